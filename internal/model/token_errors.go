package model

import "errors"

var (
	ErrMalformedToken   = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpiredToken     = errors.New("token is expired")
)
