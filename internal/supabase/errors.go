package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNotConfigured    = errors.New("supabase url and key must be set")
	ErrAdminUnavailable = errors.New("supabase service role key is not configured")
)

// APIError is a non-2xx reply from GoTrue or PostgREST, flattened into a
// single shape.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) StatusCode() int {
	return e.Status
}

func (e *APIError) ErrorCode() string {
	return e.Code
}

// GoTrue uses {"code": 422, "error_code": ..., "msg": ...} or the older
// {"error": ..., "error_description": ...}; PostgREST uses
// {"code": "23505", "message": ..., "details": ...}.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Details          string          `json:"details"`
}

func newAPIError(res *resty.Response) *APIError {
	apiErr := &APIError{Status: res.StatusCode()}

	var body errorBody
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		apiErr.Message = strings.TrimSpace(res.String())
		if apiErr.Message == "" {
			apiErr.Message = res.Status()
		}
		return apiErr
	}

	var code string
	if len(body.Code) > 0 {
		if err := json.Unmarshal(body.Code, &code); err != nil {
			code = ""
		}
	}

	apiErr.Code = firstNonEmpty(body.ErrorCode, code, body.Error)
	apiErr.Message = firstNonEmpty(body.Msg, body.ErrorDescription, body.Message, body.Error, res.Status())
	if body.Details != "" {
		apiErr.Message += ": " + body.Details
	}
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
