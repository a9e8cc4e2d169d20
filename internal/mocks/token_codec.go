package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/session-server/internal/model"
)

var _ model.TokenCodec = (*TokenCodec)(nil)

// TokenCodec is a testify mock of model.TokenCodec.
type TokenCodec struct {
	mock.Mock
}

func (m *TokenCodec) IssueAccessToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenCodec) IssueRefreshToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenCodec) VerifyAccessToken(token string) (model.Claims, error) {
	args := m.Called(token)
	return args.Get(0).(model.Claims), args.Error(1)
}

func (m *TokenCodec) VerifyRefreshToken(token string) (model.Claims, error) {
	args := m.Called(token)
	return args.Get(0).(model.Claims), args.Error(1)
}
