package auth

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Account name and password limits. Passwords are capped at bcrypt's
// 72-byte input.
const (
	usernameMaxLen = 32
	passwordMinLen = 8
	passwordMaxLen = 72
)

// Lowercase letters and digits, with '.', '_' and '-' allowed inside.
var accountNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?$`)

// credentials is a username in canonical form with its plaintext password.
type credentials struct {
	username string
	password string
}

// newCredentials canonicalizes rawUsername and enforces the account rules on
// both fields. Errors wrap ErrInvalidInput.
func newCredentials(rawUsername, password string) (credentials, error) {
	username, err := canonicalUsername(rawUsername)
	if err != nil {
		return credentials{}, err
	}
	switch n := len(password); {
	case n < passwordMinLen:
		return credentials{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, passwordMinLen)
	case n > passwordMaxLen:
		return credentials{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, passwordMaxLen)
	}
	return credentials{username: username, password: password}, nil
}

// canonicalUsername trims and lowercases raw, so "  Alice" and "alice" name
// the same account.
func canonicalUsername(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case name == "":
		return "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	case len(name) > usernameMaxLen:
		return "", fmt.Errorf("%w: username must be at most %d characters", ErrInvalidInput, usernameMaxLen)
	case !accountNameRe.MatchString(name):
		return "", fmt.Errorf("%w: username may only contain a-z, 0-9, '.', '_' and '-'", ErrInvalidInput)
	}
	return name, nil
}

// hash returns the bcrypt hash stored in users.password_hash.
func (c credentials) hash() (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(c.password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// unknownAccountHash stands in for the stored hash of a missing account.
var unknownAccountHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("picshelf-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// passwordMatches reports whether candidate produced storedHash. An empty
// storedHash still runs a bcrypt comparison and never matches.
func passwordMatches(storedHash, candidate string) bool {
	if storedHash == "" {
		_ = bcrypt.CompareHashAndPassword(unknownAccountHash(), []byte(candidate))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}
