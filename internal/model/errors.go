package model

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")

	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidSession         = errors.New("invalid session")
	ErrSessionExpiredOrReused = errors.New("refresh token is expired or used")
	ErrInternal               = errors.New("internal failure")
)
