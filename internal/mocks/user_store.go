package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/session-server/internal/model"
)

var _ model.UserStore = (*UserStore)(nil)

// UserStore is a testify mock of model.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) FindByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) CompareAndSetRefreshToken(ctx context.Context, id uuid.UUID, expectedOld, newValue []byte) (bool, error) {
	args := m.Called(ctx, id, expectedOld, newValue)
	return args.Bool(0), args.Error(1)
}

func (m *UserStore) SetRefreshToken(ctx context.Context, id uuid.UUID, value []byte) error {
	args := m.Called(ctx, id, value)
	return args.Error(0)
}

func (m *UserStore) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName string) (model.User, error) {
	args := m.Called(ctx, id, email, fullName)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) SetAvatar(ctx context.Context, id uuid.UUID, url string) (model.User, error) {
	args := m.Called(ctx, id, url)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) SetCoverImage(ctx context.Context, id uuid.UUID, url string) (model.User, error) {
	args := m.Called(ctx, id, url)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
