package supabase

import (
	"ai-terminal/pkg/models"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

const (
	profilesTable       = "/profiles"
	profileColumns      = "id,name,email"
	uniqueViolationCode = "23505"
)

// ProfileTable reads and writes the profiles table through PostgREST.
type ProfileTable struct {
	client *Client
}

func (t *ProfileTable) Insert(ctx context.Context, profile models.Profile) error {
	_, err := t.client.do(t.client.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(profile), http.MethodPost, profilesTable)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: %w", models.ErrDuplicateProfile, err)
		}
		return err
	}
	return nil
}

func (t *ProfileTable) FindByName(ctx context.Context, name string) (*models.Profile, error) {
	return t.findOne(ctx, "name", name)
}

func (t *ProfileTable) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return t.findOne(ctx, "id", id.String())
}

func (t *ProfileTable) findOne(ctx context.Context, column, value string) (*models.Profile, error) {
	var rows []models.Profile
	_, err := t.client.do(t.client.rest.R().
		SetContext(ctx).
		SetQueryParam("select", profileColumns).
		SetQueryParam(column, "eq."+value).
		SetQueryParam("limit", "1").
		SetResult(&rows), http.MethodGet, profilesTable)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, models.ErrProfileNotFound
	}
	return &rows[0], nil
}
