package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdentityStore is the persistence contract the session core depends on.
// CompareAndSetRefreshToken must be atomic: the store applies newValue only
// if the stored value still equals expectedOld.
type IdentityStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (User, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	CompareAndSetRefreshToken(ctx context.Context, id uuid.UUID, expectedOld, newValue []byte) (bool, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, value []byte) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// UserStore extends IdentityStore with profile persistence.
type UserStore interface {
	IdentityStore
	Create(ctx context.Context, user User) (User, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, email, fullName string) (User, error)
	SetAvatar(ctx context.Context, id uuid.UUID, url string) (User, error)
	SetCoverImage(ctx context.Context, id uuid.UUID, url string) (User, error)
	Ping(ctx context.Context) error
}

// User represents a stored user with authentication material.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	FullName         string
	AvatarURL        string
	CoverImageURL    string
	PasswordHash     string
	RefreshTokenHash []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// View returns the user without credential material.
func (u User) View() UserView {
	return UserView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// UserView is the outward representation of a user.
type UserView struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"userName"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
