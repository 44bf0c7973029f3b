package llm_test

import (
	"bytes"
	"log/slog"
	"testing"

	"ai-terminal/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestResolveKnownAliases(t *testing.T) {
	registry, err := llm.NewRegistry(llm.DefaultModels(), llm.DefaultAlias)
	require.NoError(t, err)

	logs := captureLogs(t)
	for _, m := range llm.DefaultModels() {
		assert.Equal(t, m.ID, registry.Resolve(m.Alias).ID)
		assert.Equal(t, m.Alias, registry.Resolve(m.Alias).Alias)
	}
	assert.Empty(t, logs.String())
}

func TestResolveUnknownAliasFallsBack(t *testing.T) {
	registry, err := llm.NewRegistry(llm.DefaultModels(), llm.DefaultAlias)
	require.NoError(t, err)

	for _, alias := range []string{"gpt4", "DEEPSEEK", "claude", " deepseek"} {
		logs := captureLogs(t)
		m := registry.Resolve(alias)
		assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", m.ID)
		assert.Equal(t, "deepseek", m.Alias)
		assert.Contains(t, logs.String(), "level=WARN")
		assert.Contains(t, logs.String(), alias)
	}
}

func TestResolveEmptyAliasUsesDefaultSilently(t *testing.T) {
	registry, err := llm.NewRegistry(llm.DefaultModels(), "llama")
	require.NoError(t, err)

	logs := captureLogs(t)
	assert.Equal(t, "meta-llama/llama-3.3-70b-instruct:free", registry.Resolve("").ID)
	assert.Empty(t, logs.String())
}

func TestAliasesKeepDeclarationOrder(t *testing.T) {
	registry, err := llm.NewRegistry(llm.DefaultModels(), llm.DefaultAlias)
	require.NoError(t, err)

	aliases := registry.Aliases()
	assert.Equal(t, []string{"deepseek", "llama", "gemini"}, aliases)

	aliases[0] = "mutated"
	assert.Equal(t, "deepseek", registry.Aliases()[0])
}

func TestNewRegistryRejectsInvalidMappings(t *testing.T) {
	_, err := llm.NewRegistry(nil, "a")
	assert.Error(t, err)

	_, err = llm.NewRegistry([]llm.Model{{Alias: "a", ID: ""}}, "a")
	assert.Error(t, err)

	_, err = llm.NewRegistry([]llm.Model{{Alias: "", ID: "x"}}, "")
	assert.Error(t, err)

	_, err = llm.NewRegistry([]llm.Model{{Alias: "a", ID: "x"}, {Alias: "a", ID: "y"}}, "a")
	assert.Error(t, err)

	_, err = llm.NewRegistry([]llm.Model{{Alias: "a", ID: "x"}}, "b")
	assert.Error(t, err)
}

func TestNewRegistryFromMap(t *testing.T) {
	registry, err := llm.NewRegistryFromMap(map[string]string{
		"gpt4":   "openai/gpt-4",
		"claude": "anthropic/claude-3-sonnet",
	}, "gpt4")
	require.NoError(t, err)

	assert.Equal(t, []string{"claude", "gpt4"}, registry.Aliases())
	assert.Equal(t, "openai/gpt-4", registry.Default().ID)
	assert.Equal(t, "anthropic/claude-3-sonnet", registry.Resolve("claude").ID)
}
