package model

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	TokenPair
	User UserView `json:"user"`
}
