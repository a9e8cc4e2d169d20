package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

// Cookie names carrying the token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// SessionService is the session lifecycle used by the auth handlers.
type SessionService interface {
	Login(ctx context.Context, identifier, password string) (model.LoginResult, error)
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

// CookieConfig controls how tokens are set as cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Auth struct {
	session        SessionService
	contextManager model.ContextManager
	cookies        CookieConfig
	logger         *logger.Logger
}

func NewAuth(session SessionService, contextManager model.ContextManager, cookies CookieConfig, logger *logger.Logger) *Auth {
	return &Auth{
		session:        session,
		contextManager: contextManager,
		cookies:        cookies,
		logger:         logger,
	}
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	res, err := h.session.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	h.setTokenCookies(w, res.TokenPair)
	WriteJSON(w, http.StatusOK, res)
}

// RefreshToken reads the refresh token from its cookie, falling back to the body.
func (h *Auth) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var presented string
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req, true); err != nil {
			WriteError(w, h.logger, err)
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.session.Refresh(r.Context(), presented)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	h.setTokenCookies(w, pair)
	WriteJSON(w, http.StatusOK, pair)
}

func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, h.logger, model.ErrUnauthorized)
		return
	}

	if err := h.session.Logout(r.Context(), userID); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	h.clearTokenCookies(w)
	WriteJSON(w, http.StatusOK, messageResponse{Message: "user logged out"})
}

func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, h.logger, model.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	if err := h.session.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (h *Auth) setTokenCookies(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, h.cookie(AccessTokenCookie, pair.AccessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, pair.RefreshToken, h.cookies.RefreshTTL))
}

func (h *Auth) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Auth) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
