package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

// Object key prefixes in media storage.
const (
	avatarPrefix = "avatars"
	coverPrefix  = "covers"
)

// RegisterParams carries the registration form.
type RegisterParams struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *model.Upload
	CoverImage *model.Upload
}

// Profile manages user accounts and their media.
type Profile struct {
	store   model.UserStore
	hasher  model.PasswordHasher
	storage model.Storage
	logger  *logger.Logger
}

func NewProfile(store model.UserStore, hasher model.PasswordHasher, storage model.Storage, logger *logger.Logger) *Profile {
	return &Profile{
		store:   store,
		hasher:  hasher,
		storage: storage,
		logger:  logger,
	}
}

func (p *Profile) Register(ctx context.Context, params RegisterParams) (model.UserView, error) {
	params.FullName = strings.TrimSpace(params.FullName)
	params.Username = normalizeIdentifier(params.Username)
	params.Email = normalizeIdentifier(params.Email)

	if params.FullName == "" || params.Username == "" || params.Email == "" || params.Password == "" {
		return model.UserView{}, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}
	if params.Avatar == nil {
		return model.UserView{}, fmt.Errorf("%w: avatar file is required", model.ErrValidation)
	}

	p.logger.Debug("Profile service: registering user", "username", params.Username)

	for _, identifier := range []string{params.Username, params.Email} {
		_, err := p.store.FindByIdentifier(ctx, identifier)
		if err == nil {
			p.logger.Info("Profile service: identifier is taken", "identifier", identifier)
			return model.UserView{}, fmt.Errorf("%w: user with email or username already exists", model.ErrAlreadyExists)
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.UserView{}, p.internal("failed to check identifier", err, "identifier", identifier)
		}
	}

	digest, err := p.hasher.Hash(params.Password)
	if errors.Is(err, model.ErrValidation) {
		return model.UserView{}, err
	}
	if err != nil {
		return model.UserView{}, p.internal("failed to hash password", err, "username", params.Username)
	}

	avatarKey, err := p.upload(ctx, avatarPrefix, params.Avatar)
	if err != nil {
		return model.UserView{}, p.internal("failed to upload avatar", err, "username", params.Username)
	}
	uploaded := []string{avatarKey}

	user := model.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		AvatarURL:    p.storage.URL(avatarKey),
		PasswordHash: digest,
	}

	if params.CoverImage != nil {
		coverKey, err := p.upload(ctx, coverPrefix, params.CoverImage)
		if err != nil {
			p.cleanup(ctx, uploaded...)
			return model.UserView{}, p.internal("failed to upload cover image", err, "username", params.Username)
		}
		uploaded = append(uploaded, coverKey)
		user.CoverImageURL = p.storage.URL(coverKey)
	}

	created, err := p.store.Create(ctx, user)
	if err != nil {
		p.cleanup(ctx, uploaded...)
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.UserView{}, err
		}
		return model.UserView{}, p.internal("failed to create user", err, "username", params.Username)
	}

	p.logger.Info("Profile service: user registered", "user_id", created.ID)

	return created.View(), nil
}

func (p *Profile) CurrentUser(ctx context.Context, id uuid.UUID) (model.UserView, error) {
	user, err := p.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.UserView{}, model.ErrInvalidSession
	}
	if err != nil {
		return model.UserView{}, p.internal("failed to find user", err, "user_id", id)
	}
	return user.View(), nil
}

func (p *Profile) UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName string) (model.UserView, error) {
	email = normalizeIdentifier(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || fullName == "" {
		return model.UserView{}, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}

	user, err := p.store.UpdateAccount(ctx, id, email, fullName)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.UserView{}, model.ErrInvalidSession
	case errors.Is(err, model.ErrAlreadyExists):
		return model.UserView{}, err
	case err != nil:
		return model.UserView{}, p.internal("failed to update account", err, "user_id", id)
	}

	p.logger.Info("Profile service: account updated", "user_id", id)
	return user.View(), nil
}

func (p *Profile) UpdateAvatar(ctx context.Context, id uuid.UUID, file *model.Upload) (model.UserView, error) {
	return p.replaceMedia(ctx, id, file, avatarPrefix,
		func(u model.User) string { return u.AvatarURL },
		p.store.SetAvatar,
	)
}

func (p *Profile) UpdateCoverImage(ctx context.Context, id uuid.UUID, file *model.Upload) (model.UserView, error) {
	return p.replaceMedia(ctx, id, file, coverPrefix,
		func(u model.User) string { return u.CoverImageURL },
		p.store.SetCoverImage,
	)
}

// replaceMedia uploads file, points the user at it and then removes the
// object it replaced.
func (p *Profile) replaceMedia(
	ctx context.Context,
	id uuid.UUID,
	file *model.Upload,
	prefix string,
	current func(model.User) string,
	set func(context.Context, uuid.UUID, string) (model.User, error),
) (model.UserView, error) {
	if file == nil {
		return model.UserView{}, fmt.Errorf("%w: %s file is missing", model.ErrValidation, strings.TrimSuffix(prefix, "s"))
	}

	user, err := p.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.UserView{}, model.ErrInvalidSession
	}
	if err != nil {
		return model.UserView{}, p.internal("failed to find user", err, "user_id", id)
	}

	key, err := p.upload(ctx, prefix, file)
	if err != nil {
		return model.UserView{}, p.internal("failed to upload "+prefix, err, "user_id", id)
	}

	updated, err := set(ctx, id, p.storage.URL(key))
	if err != nil {
		p.cleanup(ctx, key)
		if errors.Is(err, model.ErrNotFound) {
			return model.UserView{}, model.ErrInvalidSession
		}
		return model.UserView{}, p.internal("failed to store "+prefix, err, "user_id", id)
	}

	if oldKey, ok := p.storage.KeyFromURL(current(user)); ok {
		p.release(ctx, oldKey)
	}

	p.logger.Info("Profile service: media replaced", "user_id", id, "kind", prefix)
	return updated.View(), nil
}

func (p *Profile) upload(ctx context.Context, prefix string, file *model.Upload) (string, error) {
	key := prefix + "/" + uuid.NewString() + strings.ToLower(path.Ext(file.Filename))
	if err := p.storage.Upload(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// cleanup removes objects that are no longer referenced. Failures are
// logged and otherwise ignored.
func (p *Profile) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := p.storage.Delete(ctx, key); err != nil {
			p.logger.Warn("Profile service: failed to delete object",
				"key", key,
				"error", err.Error())
		}
	}
}

// release deletes a replaced object unless storage reports it already gone.
// A failed existence check still attempts the delete.
func (p *Profile) release(ctx context.Context, key string) {
	exists, err := p.storage.Exists(ctx, key)
	if err == nil && !exists {
		p.logger.Debug("Profile service: replaced object already gone", "key", key)
		return
	}
	p.cleanup(ctx, key)
}

func (p *Profile) internal(msg string, err error, args ...any) error {
	p.logger.Error("Profile service: "+msg, append(args, "error", err.Error())...)
	return fmt.Errorf("%w: %s: %w", model.ErrInternal, msg, err)
}
