package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/config"
	"github.com/dtroode/session-server/internal/model"
)

var _ model.TokenCodec = (*JWT)(nil)

// Claims represents JWT claims with token type. The subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// JWT implements TokenCodec with HMAC keys that differ per token kind, so
// an access token never verifies as a refresh token.
type JWT struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

// Option customizes a JWT codec.
type Option func(*JWT)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// NewJWT creates a token codec from the JWT configuration.
func NewJWT(cfg config.JWT, opts ...Option) (*JWT, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttls must be positive")
	}

	j := &JWT{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// IssueAccessToken creates a short-lived access token.
func (j *JWT) IssueAccessToken(userID uuid.UUID) (string, error) {
	return j.issue(model.TokenKindAccess, userID)
}

// IssueRefreshToken creates a long-lived refresh token.
func (j *JWT) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return j.issue(model.TokenKindRefresh, userID)
}

// VerifyAccessToken checks signature, expiry and kind of an access token.
func (j *JWT) VerifyAccessToken(tokenString string) (model.Claims, error) {
	return j.Verify(tokenString, model.TokenKindAccess)
}

// VerifyRefreshToken checks signature, expiry and kind of a refresh token.
func (j *JWT) VerifyRefreshToken(tokenString string) (model.Claims, error) {
	return j.Verify(tokenString, model.TokenKindRefresh)
}

// Verify validates tokenString with the key of the given kind.
func (j *JWT) Verify(tokenString string, kind model.TokenKind) (model.Claims, error) {
	key, _, err := j.params(kind)
	if err != nil {
		return model.Claims{}, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return model.Claims{}, classify(err)
	}

	if claims.TokenType != string(kind) {
		return model.Claims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrMalformedToken, claims.TokenType)
	}
	if j.issuer != "" && claims.Issuer != j.issuer {
		return model.Claims{}, fmt.Errorf("%w: unexpected issuer %q", model.ErrMalformedToken, claims.Issuer)
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil || subject == uuid.Nil {
		return model.Claims{}, fmt.Errorf("%w: invalid subject", model.ErrMalformedToken)
	}

	return model.Claims{
		Subject:   subject,
		TokenID:   claims.ID,
		Kind:      kind,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (j *JWT) issue(kind model.TokenKind, userID uuid.UUID) (string, error) {
	key, ttl, err := j.params(kind)
	if err != nil {
		return "", err
	}

	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: string(kind),
	})

	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

func (j *JWT) params(kind model.TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case model.TokenKindAccess:
		return j.accessKey, j.accessTTL, nil
	case model.TokenKindRefresh:
		return j.refreshKey, j.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

// classify maps jwt parse errors onto the token error taxonomy.
// Signature is checked before claims, so a forged expired token reports
// ErrInvalidSignature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", model.ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", model.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", model.ErrExpiredToken, err)
	default:
		return fmt.Errorf("%w: %w", model.ErrMalformedToken, err)
	}
}
