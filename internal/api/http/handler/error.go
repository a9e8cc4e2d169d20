package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeMalformedToken     = "malformed_token"
	CodeInvalidSignature   = "invalid_signature"
	CodeTokenExpired       = "token_expired"
	CodeInvalidSession     = "invalid_session"
	CodeSessionReused      = "session_expired_or_reused"
	CodeAlreadyExists      = "already_exists"
	CodeValidation         = "validation_error"
	CodeBadRequest         = "bad_request"
	CodeNotFound           = "not_found"
	CodeInternal           = "internal_error"
)

// errBadRequest marks requests that could not be decoded.
var errBadRequest = errors.New("bad request")

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is matched in order. An empty message means the error text
// is safe to show.
var errorMappings = []errorMapping{
	{model.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, "invalid user credentials"},
	{model.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "unauthorized request"},
	{model.ErrMalformedToken, http.StatusBadRequest, CodeMalformedToken, "token is malformed"},
	{model.ErrInvalidSignature, http.StatusUnauthorized, CodeInvalidSignature, "token signature is invalid"},
	{model.ErrExpiredToken, http.StatusUnauthorized, CodeTokenExpired, "token is expired"},
	{model.ErrInvalidSession, http.StatusUnauthorized, CodeInvalidSession, "invalid session"},
	{model.ErrSessionExpiredOrReused, http.StatusUnauthorized, CodeSessionReused, "refresh token is expired or used"},
	{model.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists, ""},
	{model.ErrValidation, http.StatusBadRequest, CodeValidation, ""},
	{errBadRequest, http.StatusBadRequest, CodeBadRequest, ""},
	{model.ErrNotFound, http.StatusNotFound, CodeNotFound, "not found"},
}

// WriteJSON writes a JSON response with the given status code and payload.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// WriteErrorCode writes a structured error response.
func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// WriteError maps err onto the error table. Internal errors win over any
// sentinel they wrap. Unknown errors are logged and reported as internal
// errors without detail.
func WriteError(w http.ResponseWriter, log *logger.Logger, err error) {
	if errors.Is(err, model.ErrInternal) {
		WriteErrorCode(w, http.StatusInternalServerError, CodeInternal, "internal server error")
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			WriteErrorCode(w, m.status, m.code, message)
			return
		}
	}

	log.Error("HTTP handler: unexpected error", "error", err.Error())
	WriteErrorCode(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

type messageResponse struct {
	Message string `json:"message"`
}
