package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/session-server/internal/model"
)

// SessionService is a testify mock of the session operations used by HTTP handlers.
type SessionService struct {
	mock.Mock
}

func (m *SessionService) Login(ctx context.Context, identifier, password string) (model.LoginResult, error) {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(model.LoginResult), args.Error(1)
}

func (m *SessionService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	args := m.Called(ctx, presented)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *SessionService) Logout(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *SessionService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	args := m.Called(ctx, userID, oldPassword, newPassword)
	return args.Error(0)
}

func (m *SessionService) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
