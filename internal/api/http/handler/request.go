package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/session-server/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	//nolint:errcheck // tag name and func are static
	v.RegisterValidation("maxbytes", maxBytes)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// maxBytes bounds the encoded length of a string. The max tag counts runes,
// while password hashing limits bytes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

type loginRequest struct {
	Username string `json:"userName" validate:"required_without=Email"`
	Email    string `json:"email" validate:"required_without=Username"`
	Password string `json:"password" validate:"required"`
}

// identifier prefers the username, matching the order of the login form.
func (r loginRequest) identifier() string {
	if strings.TrimSpace(r.Username) != "" {
		return r.Username
	}
	return r.Email
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,maxbytes=72"`
}

type updateAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
}

type registerForm struct {
	FullName string `form:"fullName" validate:"required"`
	Username string `form:"userName" validate:"required,min=3,max=50"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

// decodeJSON decodes the request body into payload and validates it.
// An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, payload any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(payload)
	switch {
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case err != nil:
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	return validateStruct(payload)
}

func validateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_without":
		return "userName or email is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "maxbytes":
		return fe.Field() + " must be at most " + fe.Param() + " bytes"
	default:
		return fe.Field() + " is invalid"
	}
}
