// Package memory provides an in-process identity store. Every operation holds
// the store mutex, which makes CompareAndSetRefreshToken a single atomic step.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	mu         sync.Mutex
	users      map[uuid.UUID]model.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	now        func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[uuid.UUID]model.User),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func (r *UserRepository) FindByIdentifier(_ context.Context, identifier string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[identifier]
	if !ok {
		id, ok = r.byEmail[identifier]
	}
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	return cloneUser(r.users[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	return cloneUser(user), nil
}

func (r *UserRepository) CompareAndSetRefreshToken(_ context.Context, id uuid.UUID, expectedOld, newValue []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	if !bytes.Equal(user.RefreshTokenHash, expectedOld) {
		return false, nil
	}

	user.RefreshTokenHash = slices.Clone(newValue)
	user.UpdatedAt = r.now()
	r.users[id] = user

	return true, nil
}

func (r *UserRepository) SetRefreshToken(_ context.Context, id uuid.UUID, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.ErrNotFound
	}

	user.RefreshTokenHash = slices.Clone(value)
	user.UpdatedAt = r.now()
	r.users[id] = user

	return nil
}

func (r *UserRepository) SetPasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.ErrNotFound
	}

	user.PasswordHash = hash
	user.UpdatedAt = r.now()
	r.users[id] = user

	return nil
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, ok := r.users[user.ID]; ok {
		return model.User{}, model.ErrAlreadyExists
	}
	if r.identifierTaken(user.Username, uuid.Nil) || r.identifierTaken(user.Email, uuid.Nil) {
		return model.User{}, model.ErrAlreadyExists
	}

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.RefreshTokenHash = slices.Clone(user.RefreshTokenHash)

	r.users[user.ID] = user
	r.byUsername[user.Username] = user.ID
	r.byEmail[user.Email] = user.ID

	return cloneUser(user), nil
}

func (r *UserRepository) UpdateAccount(_ context.Context, id uuid.UUID, email, fullName string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	if r.identifierTaken(email, id) {
		return model.User{}, model.ErrAlreadyExists
	}

	delete(r.byEmail, user.Email)
	user.Email = email
	user.FullName = fullName
	user.UpdatedAt = r.now()
	r.users[id] = user
	r.byEmail[email] = id

	return cloneUser(user), nil
}

func (r *UserRepository) SetAvatar(_ context.Context, id uuid.UUID, url string) (model.User, error) {
	return r.update(id, func(u *model.User) { u.AvatarURL = url })
}

func (r *UserRepository) SetCoverImage(_ context.Context, id uuid.UUID, url string) (model.User, error) {
	return r.update(id, func(u *model.User) { u.CoverImageURL = url })
}

func (r *UserRepository) Ping(_ context.Context) error {
	return nil
}

func (r *UserRepository) update(id uuid.UUID, apply func(*model.User)) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	apply(&user)
	user.UpdatedAt = r.now()
	r.users[id] = user

	return cloneUser(user), nil
}

// identifierTaken reports whether value is used as a username or email by
// anyone other than owner. Usernames and emails share one namespace because
// login matches either.
func (r *UserRepository) identifierTaken(value string, owner uuid.UUID) bool {
	if id, ok := r.byUsername[value]; ok && id != owner {
		return true
	}
	if id, ok := r.byEmail[value]; ok && id != owner {
		return true
	}
	return false
}

func cloneUser(u model.User) model.User {
	u.RefreshTokenHash = slices.Clone(u.RefreshTokenHash)
	return u
}
