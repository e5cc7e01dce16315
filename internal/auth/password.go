package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Ensure BasicAuth implements Authenticator
var _ Authenticator = (*BasicAuth)(nil)

// BasicAuth checks a single operator account. The password is kept only as a
// bcrypt hash.
type BasicAuth struct {
	username     string
	passwordHash []byte
}

// NewBasicAuth hashes password for later comparison. An empty username
// disables the check.
func NewBasicAuth(username, password string) (*BasicAuth, error) {
	if username == "" {
		return &BasicAuth{}, nil
	}
	if password == "" {
		return nil, errors.New("password is required when a username is set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &BasicAuth{username: username, passwordHash: hash}, nil
}

// Enabled reports whether an operator account is configured.
func (a *BasicAuth) Enabled() bool {
	return a.username != ""
}

// Authenticate compares the presented credentials against the configured account.
func (a *BasicAuth) Authenticate(username, secret string) error {
	if !a.Enabled() {
		return nil
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(secret))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
