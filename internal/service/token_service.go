package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/model"
)

// TokenService mints token pairs and derives the digest under which the
// refresh token is persisted.
type TokenService struct {
	codec model.TokenCodec
}

func NewTokenService(codec model.TokenCodec) *TokenService {
	return &TokenService{codec: codec}
}

// Issue mints an access/refresh pair for userID and returns the refresh digest.
func (s *TokenService) Issue(userID uuid.UUID) (model.TokenPair, []byte, error) {
	access, err := s.codec.IssueAccessToken(userID)
	if err != nil {
		return model.TokenPair{}, nil, fmt.Errorf("issue access: %w", err)
	}

	refresh, err := s.codec.IssueRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, nil, fmt.Errorf("issue refresh: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, hashRefresh(refresh), nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

// matchesStored reports whether presentedHash equals the stored digest.
// An empty stored digest never matches.
func matchesStored(stored, presentedHash []byte) bool {
	if len(stored) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(stored, presentedHash) == 1
}
