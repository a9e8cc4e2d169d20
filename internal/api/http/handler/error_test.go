package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/session-server/internal/model"
	"github.com/dtroode/session-server/internal/testutil"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{name: "invalid credentials", err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: CodeInvalidCredentials, wantMessage: "invalid user credentials"},
		{name: "unauthorized", err: model.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: CodeUnauthorized},
		{name: "malformed token", err: fmt.Errorf("%w: bad segment", model.ErrMalformedToken), wantStatus: http.StatusBadRequest, wantCode: CodeMalformedToken, wantMessage: "token is malformed"},
		{name: "invalid signature", err: model.ErrInvalidSignature, wantStatus: http.StatusUnauthorized, wantCode: CodeInvalidSignature},
		{name: "expired", err: model.ErrExpiredToken, wantStatus: http.StatusUnauthorized, wantCode: CodeTokenExpired},
		{name: "invalid session", err: model.ErrInvalidSession, wantStatus: http.StatusUnauthorized, wantCode: CodeInvalidSession},
		{name: "reused", err: model.ErrSessionExpiredOrReused, wantStatus: http.StatusUnauthorized, wantCode: CodeSessionReused},
		{name: "already exists", err: fmt.Errorf("%w: taken", model.ErrAlreadyExists), wantStatus: http.StatusConflict, wantCode: CodeAlreadyExists, wantMessage: "already exists: taken"},
		{name: "validation", err: fmt.Errorf("%w: email: email", model.ErrValidation), wantStatus: http.StatusBadRequest, wantCode: CodeValidation, wantMessage: "validation failed: email: email"},
		{name: "bad request", err: fmt.Errorf("%w: invalid JSON body", errBadRequest), wantStatus: http.StatusBadRequest, wantCode: CodeBadRequest},
		{name: "not found", err: model.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "internal hides cause", err: fmt.Errorf("%w: db: password=secret", model.ErrInternal), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal, wantMessage: "internal server error"},
		{name: "internal wrapping not found", err: fmt.Errorf("%w: failed to store password: %w", model.ErrInternal, model.ErrNotFound), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal, wantMessage: "internal server error"},
		{name: "internal wrapping conflict", err: fmt.Errorf("%w: failed to create user: %w", model.ErrInternal, model.ErrAlreadyExists), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal, wantMessage: "internal server error"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal, wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, testutil.MakeNoopLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Message)
			}
		})
	}
}
