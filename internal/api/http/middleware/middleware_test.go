package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	reqctx "github.com/dtroode/session-server/internal/api/http/context"
	"github.com/dtroode/session-server/internal/api/http/handler"
	"github.com/dtroode/session-server/internal/logger"
	servermocks "github.com/dtroode/session-server/internal/mocks"
	"github.com/dtroode/session-server/internal/model"
	"github.com/dtroode/session-server/internal/testutil"
)

func TestAuthenticate_Handle(t *testing.T) {
	userID := uuid.New()
	manager := reqctx.NewManager()

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		token      string
		result     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			token:      "good",
			wantStatus: http.StatusOK,
		},
		{
			name:       "cookie wins over header",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: handler.AccessTokenCookie, Value: "good"}); r.Header.Set("Authorization", "Bearer other") },
			token:      "good",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			prepare:    func(*http.Request) {},
			token:      "",
			result:     model.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantCode:   handler.CodeUnauthorized,
		},
		{
			name:       "expired token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer old") },
			token:      "old",
			result:     model.ErrExpiredToken,
			wantStatus: http.StatusUnauthorized,
			wantCode:   handler.CodeTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &servermocks.SessionService{}
			if tt.result != nil {
				session.On("Authenticate", mock.Anything, tt.token).Return(uuid.Nil, tt.result)
			} else {
				session.On("Authenticate", mock.Anything, tt.token).Return(userID, nil)
			}

			var gotID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = manager.GetUserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			NewAuthenticate(session, manager, testutil.MakeNoopLogger()).Handle(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body handler.Error
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Code)
				return
			}
			assert.Equal(t, userID, gotID)
			session.AssertExpectations(t)
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqctx.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", rec.Header().Get(RequestIDHeader))
}

func TestLogging_Handle(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogging(logger.NewWithWriter(&buf, 0))

	h := RequestID(lg.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/api/v1/users/login")
	assert.Contains(t, out, "request_id=rid-1")
}

func TestRecovery(t *testing.T) {
	h := Recovery(testutil.MakeNoopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body handler.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, handler.CodeInternal, body.Code)
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.NoError(t, readErr)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}

var _ Authenticator = (*servermocks.SessionService)(nil)

func TestAccessToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, accessToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, accessToken(req))

	req.Header.Set("Authorization", "Bearer  tok ")
	assert.Equal(t, "tok", accessToken(req))

}
