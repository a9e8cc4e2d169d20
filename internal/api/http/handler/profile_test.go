package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	reqctx "github.com/dtroode/session-server/internal/api/http/context"
	"github.com/dtroode/session-server/internal/model"
	"github.com/dtroode/session-server/internal/service"
	"github.com/dtroode/session-server/internal/testutil"
)

type profileServiceMock struct {
	mock.Mock
}

func (m *profileServiceMock) Register(ctx context.Context, params service.RegisterParams) (model.UserView, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.UserView), args.Error(1)
}

func (m *profileServiceMock) CurrentUser(ctx context.Context, id uuid.UUID) (model.UserView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.UserView), args.Error(1)
}

func (m *profileServiceMock) UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName string) (model.UserView, error) {
	args := m.Called(ctx, id, email, fullName)
	return args.Get(0).(model.UserView), args.Error(1)
}

func (m *profileServiceMock) UpdateAvatar(ctx context.Context, id uuid.UUID, file *model.Upload) (model.UserView, error) {
	args := m.Called(ctx, id, file)
	return args.Get(0).(model.UserView), args.Error(1)
}

func (m *profileServiceMock) UpdateCoverImage(ctx context.Context, id uuid.UUID, file *model.Upload) (model.UserView, error) {
	args := m.Called(ctx, id, file)
	return args.Get(0).(model.UserView), args.Error(1)
}

func newProfileHandler(svc ProfileService) *Profile {
	return NewProfile(svc, reqctx.NewManager(), testutil.MakeNoopLogger())
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var validRegisterFields = map[string]string{
	"fullName": "Alice Doe",
	"userName": "alice",
	"email":    "alice@example.com",
	"password": "p1",
}

func TestProfile_Register(t *testing.T) {
	view := model.UserView{ID: uuid.New(), Username: "alice"}
	svc := &profileServiceMock{}
	svc.On("Register", mock.Anything, mock.MatchedBy(func(p service.RegisterParams) bool {
		return p.Username == "alice" &&
			p.Email == "alice@example.com" &&
			p.Avatar != nil && p.Avatar.Filename == "avatar.png" &&
			p.CoverImage == nil
	})).Return(view, nil).Once()

	rec := httptest.NewRecorder()
	req := multipartRequest(t, http.MethodPost, "/register", validRegisterFields, map[string]string{AvatarField: "img"})
	newProfileHandler(svc).Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got model.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, view.ID, got.ID)
	svc.AssertExpectations(t)
}

func TestProfile_RegisterRejections(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		files      map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing avatar",
			fields:     validRegisterFields,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{
			name:       "invalid email",
			fields:     map[string]string{"fullName": "A", "userName": "alice", "email": "nope", "password": "p1"},
			files:      map[string]string{AvatarField: "img"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{
			name:       "missing full name",
			fields:     map[string]string{"userName": "alice", "email": "a@b.co", "password": "p1"},
			files:      map[string]string{AvatarField: "img"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &profileServiceMock{}
			rec := httptest.NewRecorder()
			newProfileHandler(svc).Register(rec, multipartRequest(t, http.MethodPost, "/register", tt.fields, tt.files))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestProfile_RegisterNotMultipart(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	newProfileHandler(&profileServiceMock{}).Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_RegisterConflict(t *testing.T) {
	svc := &profileServiceMock{}
	svc.On("Register", mock.Anything, mock.Anything).Return(model.UserView{}, model.ErrAlreadyExists)

	rec := httptest.NewRecorder()
	req := multipartRequest(t, http.MethodPost, "/register", validRegisterFields, map[string]string{AvatarField: "img"})
	newProfileHandler(svc).Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProfile_CurrentUser(t *testing.T) {
	userID := uuid.New()
	svc := &profileServiceMock{}
	svc.On("CurrentUser", mock.Anything, userID).Return(model.UserView{ID: userID, Username: "alice"}, nil)

	rec := httptest.NewRecorder()
	newProfileHandler(svc).CurrentUser(rec, withUser(httptest.NewRequest(http.MethodGet, "/current-user", nil), userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.Username)
}

func TestProfile_CurrentUserWithoutIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	newProfileHandler(&profileServiceMock{}).CurrentUser(rec, httptest.NewRequest(http.MethodGet, "/current-user", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile_UpdateAccount(t *testing.T) {
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &profileServiceMock{}
		svc.On("UpdateAccount", mock.Anything, userID, "new@example.com", "New Name").
			Return(model.UserView{ID: userID, Email: "new@example.com"}, nil).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/update-account", strings.NewReader(`{"email":"new@example.com","fullName":"New Name"}`))
		newProfileHandler(svc).UpdateAccount(rec, withUser(req, userID))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/update-account", strings.NewReader(`{"email":"new@example.com"}`))
		newProfileHandler(&profileServiceMock{}).UpdateAccount(rec, withUser(req, userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/update-account", strings.NewReader(`{`))
		newProfileHandler(&profileServiceMock{}).UpdateAccount(rec, withUser(req, userID))

		var body Error
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, CodeBadRequest, body.Code)
	})
}

func TestProfile_UpdateMedia(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		field  string
		method string
		call   func(*Profile) http.HandlerFunc
	}{
		{name: "avatar", field: AvatarField, method: "UpdateAvatar", call: func(h *Profile) http.HandlerFunc { return h.UpdateAvatar }},
		{name: "cover image", field: CoverImageField, method: "UpdateCoverImage", call: func(h *Profile) http.HandlerFunc { return h.UpdateCoverImage }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &profileServiceMock{}
			svc.On(tt.method, mock.Anything, userID, mock.MatchedBy(func(u *model.Upload) bool {
				return u != nil && u.Filename == tt.field+".png" && u.Size == 3
			})).Return(model.UserView{ID: userID}, nil).Once()

			rec := httptest.NewRecorder()
			req := multipartRequest(t, http.MethodPatch, "/", nil, map[string]string{tt.field: "img"})
			tt.call(newProfileHandler(svc))(rec, withUser(req, userID))

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})

		t.Run(tt.name+" missing file", func(t *testing.T) {
			svc := &profileServiceMock{}
			rec := httptest.NewRecorder()
			req := multipartRequest(t, http.MethodPatch, "/", map[string]string{"x": "y"}, nil)
			tt.call(newProfileHandler(svc))(rec, withUser(req, userID))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, tt.method, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
