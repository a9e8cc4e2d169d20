package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
	"github.com/dtroode/session-server/internal/service"
)

// Multipart field names.
const (
	AvatarField     = "avatar"
	CoverImageField = "coverImage"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 1 << 20

// ProfileService manages user accounts and their media.
type ProfileService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.UserView, error)
	CurrentUser(ctx context.Context, id uuid.UUID) (model.UserView, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName string) (model.UserView, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, file *model.Upload) (model.UserView, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, file *model.Upload) (model.UserView, error)
}

type Profile struct {
	profile        ProfileService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewProfile(profile ProfileService, contextManager model.ContextManager, logger *logger.Logger) *Profile {
	return &Profile{
		profile:        profile,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Profile) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid multipart form", errBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := registerForm{
		FullName: r.FormValue("fullName"),
		Username: r.FormValue("userName"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if err := validateStruct(&form); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	avatar, closeAvatar, err := formFile(r, AvatarField)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	defer closeAvatar()
	if avatar == nil {
		WriteError(w, h.logger, fmt.Errorf("%w: avatar file is required", model.ErrValidation))
		return
	}

	cover, closeCover, err := formFile(r, CoverImageField)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	defer closeCover()

	user, err := h.profile.Register(r.Context(), service.RegisterParams{
		FullName:   form.FullName,
		Username:   form.Username,
		Email:      form.Email,
		Password:   form.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

func (h *Profile) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, h.logger, model.ErrUnauthorized)
		return
	}

	user, err := h.profile.CurrentUser(r.Context(), userID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

func (h *Profile) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, h.logger, model.ErrUnauthorized)
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	user, err := h.profile.UpdateAccount(r.Context(), userID, req.Email, req.FullName)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

func (h *Profile) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, AvatarField, h.profile.UpdateAvatar)
}

func (h *Profile) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, CoverImageField, h.profile.UpdateCoverImage)
}

func (h *Profile) updateMedia(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(context.Context, uuid.UUID, *model.Upload) (model.UserView, error),
) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, h.logger, model.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid multipart form", errBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, closeFile, err := formFile(r, field)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	defer closeFile()
	if file == nil {
		WriteError(w, h.logger, fmt.Errorf("%w: %s file is missing", model.ErrValidation, field))
		return
	}

	user, err := update(r.Context(), userID, file)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// formFile opens the named multipart file. A missing file yields a nil
// upload and no error.
func formFile(r *http.Request, field string) (*model.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("%w: invalid %s file", errBadRequest, field)
	}

	return toUpload(file, header), func() { _ = file.Close() }, nil
}

func toUpload(file multipart.File, header *multipart.FileHeader) *model.Upload {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &model.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      file,
	}
}
