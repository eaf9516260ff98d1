package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = WithTraceID(ctx, "abc")
	assert.Equal(t, "abc", GetTraceID(ctx))

	generated := GetTraceID(WithTraceID(context.Background(), ""))
	assert.Len(t, generated, 36)

	invalid := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(invalid))
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	RespondWithJSON(rec, req, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(WithTraceID(req.Context(), "trace-1"))

	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Something went wrong",
		errors.New("connection refused at 10.0.0.1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Something went wrong", resp.Error)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.Zero(t, resp.Code, "status code is not serialized")
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name" validate:"required"`
	}

	testCases := []struct {
		name    string
		input   string
		wantErr bool
		isEmpty bool
	}{
		{name: "valid", input: `{"name":"x"}`},
		{name: "empty", input: "", wantErr: true, isEmpty: true},
		{name: "unknown field", input: `{"name":"x","extra":1}`, wantErr: true},
		{name: "trailing data", input: `{"name":"x"}{"name":"y"}`, wantErr: true},
		{name: "malformed", input: `{"name":`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.input))
			var v body

			err := DecodeJSON(rec, req, &v)

			if !tc.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "x", v.Name)
				return
			}
			require.Error(t, err)
			if tc.isEmpty {
				assert.ErrorIs(t, err, ErrEmptyBody)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type body struct {
		Name string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(body{Name: "x"}))
	assert.Error(t, ValidateRequest(body{}))
}
