package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

// dummyPassword is hashed once and compared against when the login
// identifier is unknown, so both failure paths do the same work.
const dummyPassword = "session-server-dummy-password"

// SessionOptions toggles session hardening.
type SessionOptions struct {
	RevokeOnReuse          bool
	RevokeOnPasswordChange bool
}

// Session owns the login session lifecycle: login, refresh rotation,
// logout and password change. The single active refresh token per user
// is stored as a digest and rotated with compare-and-set.
type Session struct {
	store   model.IdentityStore
	hasher  model.PasswordHasher
	codec   model.TokenCodec
	tokens  *TokenService
	logger  *logger.Logger
	options SessionOptions

	dummyOnce   sync.Once
	dummyDigest string
}

func NewSession(
	store model.IdentityStore,
	hasher model.PasswordHasher,
	codec model.TokenCodec,
	logger *logger.Logger,
	options SessionOptions,
) *Session {
	return &Session{
		store:   store,
		hasher:  hasher,
		codec:   codec,
		tokens:  NewTokenService(codec),
		logger:  logger,
		options: options,
	}
}

func (s *Session) Login(ctx context.Context, identifier, password string) (model.LoginResult, error) {
	identifier = normalizeIdentifier(identifier)
	s.logger.Debug("Session service: login attempt", "identifier", identifier)

	user, err := s.store.FindByIdentifier(ctx, identifier)
	if errors.Is(err, model.ErrNotFound) {
		s.hasher.Verify(password, s.dummy())
		s.logger.Info("Session service: login rejected", "identifier", identifier)
		return model.LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.LoginResult{}, s.internal("failed to find user", err, "identifier", identifier)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info("Session service: login rejected", "identifier", identifier)
		return model.LoginResult{}, model.ErrInvalidCredentials
	}

	pair, digest, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.LoginResult{}, s.internal("failed to issue tokens", err, "user_id", user.ID)
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, digest); err != nil {
		return model.LoginResult{}, s.internal("failed to store refresh token", err, "user_id", user.ID)
	}

	s.logger.Info("Session service: user logged in", "user_id", user.ID)

	return model.LoginResult{TokenPair: pair, User: user.View()}, nil
}

// Refresh exchanges the presented refresh token for a new pair. Only the
// token currently stored for the user is accepted, and the swap to the new
// digest is conditional on it still being stored.
func (s *Session) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	if presented == "" {
		return model.TokenPair{}, model.ErrUnauthorized
	}

	claims, err := s.codec.VerifyRefreshToken(presented)
	if err != nil {
		s.logger.Debug("Session service: refresh token rejected", "error", err.Error())
		return model.TokenPair{}, err
	}

	user, err := s.store.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrInvalidSession
	}
	if err != nil {
		return model.TokenPair{}, s.internal("failed to find user", err, "user_id", claims.Subject)
	}

	presentedHash := hashRefresh(presented)
	if !matchesStored(user.RefreshTokenHash, presentedHash) {
		s.logger.Warn("Session service: refresh token is stale or reused", "user_id", user.ID)
		s.revokeAfterReuse(ctx, user)
		return model.TokenPair{}, model.ErrSessionExpiredOrReused
	}

	pair, digest, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.TokenPair{}, s.internal("failed to issue tokens", err, "user_id", user.ID)
	}

	swapped, err := s.store.CompareAndSetRefreshToken(ctx, user.ID, presentedHash, digest)
	if err != nil {
		return model.TokenPair{}, s.internal("failed to rotate refresh token", err, "user_id", user.ID)
	}
	if !swapped {
		s.logger.Warn("Session service: lost refresh rotation race", "user_id", user.ID)
		return model.TokenPair{}, model.ErrSessionExpiredOrReused
	}

	s.logger.Debug("Session service: refresh token rotated", "user_id", user.ID)

	return pair, nil
}

// Logout clears the stored refresh token. It is idempotent and an unknown
// user is not an error.
func (s *Session) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.store.SetRefreshToken(ctx, userID, nil)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return s.internal("failed to clear refresh token", err, "user_id", userID)
	}

	s.logger.Info("Session service: user logged out", "user_id", userID)
	return nil
}

func (s *Session) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrInvalidSession
	}
	if err != nil {
		return s.internal("failed to find user", err, "user_id", userID)
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		s.logger.Info("Session service: password change rejected", "user_id", userID)
		return model.ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(newPassword)
	if errors.Is(err, model.ErrValidation) {
		return err
	}
	if err != nil {
		return s.internal("failed to hash password", err, "user_id", userID)
	}

	if err := s.store.SetPasswordHash(ctx, userID, digest); err != nil {
		return s.internal("failed to store password", err, "user_id", userID)
	}

	if s.options.RevokeOnPasswordChange {
		if err := s.store.SetRefreshToken(ctx, userID, nil); err != nil {
			return s.internal("failed to revoke session", err, "user_id", userID)
		}
	}

	s.logger.Info("Session service: password changed", "user_id", userID)
	return nil
}

// Authenticate verifies an access token and returns its subject.
func (s *Session) Authenticate(_ context.Context, accessToken string) (uuid.UUID, error) {
	if accessToken == "" {
		return uuid.Nil, model.ErrUnauthorized
	}

	claims, err := s.codec.VerifyAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, err
	}

	return claims.Subject, nil
}

func (s *Session) revokeAfterReuse(ctx context.Context, user model.User) {
	if !s.options.RevokeOnReuse || len(user.RefreshTokenHash) == 0 {
		return
	}
	// Only the digest that was read is cleared; a concurrent rotation wins.
	if _, err := s.store.CompareAndSetRefreshToken(ctx, user.ID, user.RefreshTokenHash, nil); err != nil {
		s.logger.Error("Session service: failed to revoke reused session",
			"user_id", user.ID,
			"error", err.Error())
		return
	}
	s.logger.Warn("Session service: session revoked after refresh token reuse", "user_id", user.ID)
}

func (s *Session) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("Session service: failed to prepare dummy digest", "error", err.Error())
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

func (s *Session) internal(msg string, err error, args ...any) error {
	s.logger.Error("Session service: "+msg, append(args, "error", err.Error())...)
	return fmt.Errorf("%w: %s: %w", model.ErrInternal, msg, err)
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
