package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/session-server/internal/model"
)

var _ model.PasswordHasher = (*PasswordHasher)(nil)

// PasswordHasher is a testify mock of model.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

func (m *PasswordHasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(plaintext, digest string) bool {
	args := m.Called(plaintext, digest)
	return args.Bool(0)
}
