// Package keyset holds the privileged API keys that bypass verification and
// unlock analytics. Entries are plaintext keys or bcrypt hashes.
package keyset

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "verigate/pkg/domain-errors"
)

// Set is an immutable collection of privileged keys.
type Set struct {
	plain  [][]byte
	hashed [][]byte
}

// New splits entries into plaintext and bcrypt-hashed keys. Blank entries are ignored.
func New(entries []string) *Set {
	s := &Set{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if isBcrypt(e) {
			s.hashed = append(s.hashed, []byte(e))
			continue
		}
		s.plain = append(s.plain, []byte(e))
	}
	return s
}

// Len reports how many keys are configured.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.plain) + len(s.hashed)
}

// IsPrivileged reports whether key matches a configured entry.
// Plaintext entries are compared in constant time; every entry is checked.
func (s *Set) IsPrivileged(key string) bool {
	if s == nil || strings.TrimSpace(key) == "" {
		return false
	}
	candidate := []byte(key)
	match := 0
	for _, p := range s.plain {
		match |= subtle.ConstantTimeCompare(p, candidate)
	}
	if match == 1 {
		return true
	}
	for _, h := range s.hashed {
		if bcrypt.CompareHashAndPassword(h, candidate) == nil {
			return true
		}
	}
	return false
}

// Hash returns a bcrypt hash suitable for ADMIN_API_KEYS.
func Hash(key string) (string, error) {
	if key == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "key cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "key is too long")
		}
		return "", fmt.Errorf("could not hash key: %w", err)
	}
	return string(hashed), nil
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
