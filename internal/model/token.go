package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenCodec issues and verifies signed access/refresh tokens.
// Verification failures are reported as ErrMalformedToken,
// ErrInvalidSignature or ErrExpiredToken.
type TokenCodec interface {
	IssueAccessToken(userID uuid.UUID) (string, error)
	IssueRefreshToken(userID uuid.UUID) (string, error)
	VerifyAccessToken(token string) (Claims, error)
	VerifyRefreshToken(token string) (Claims, error)
}

// Claims is the verified content of a token.
type Claims struct {
	Subject   uuid.UUID
	TokenID   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
