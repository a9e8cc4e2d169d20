package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/session-server/internal/model"
)

var _ model.PasswordHasher = (*Bcrypt)(nil)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// ErrTooLong is returned by Hash for passwords over MaxLength bytes.
var ErrTooLong = fmt.Errorf("%w: password must be at most %d bytes", model.ErrValidation, MaxLength)

// Bcrypt implements PasswordHasher with salted bcrypt digests.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a hasher with the given cost. Out-of-range costs fall
// back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns a bcrypt digest of plaintext. Every call uses a fresh salt.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxLength {
		return "", ErrTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed or empty
// digests never match.
func (b *Bcrypt) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
