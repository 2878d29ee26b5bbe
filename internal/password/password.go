// Package password turns account passwords into the value stored in the
// users table and checks login attempts against it.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	Bcrypt    = "bcrypt"
	Plaintext = "plaintext"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	// Matches reports whether password corresponds to the stored value.
	Matches(stored, password string) bool
}

// New returns the hasher registered under name.
func New(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case Bcrypt:
		return BcryptHasher{Cost: bcryptCost}, nil
	case Plaintext:
		return PlaintextHasher{}, nil
	default:
		return nil, fmt.Errorf("password.New: unknown hasher %q", name)
	}
}

// BcryptHasher stores salted bcrypt hashes.
//
// bcrypt refuses input longer than 72 bytes, so the password is first
// reduced to the base64 form of its SHA-256 digest (44 bytes). Any
// non-empty password is accepted, whatever its length.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("bcrypt: empty password")
	}

	hashed, err := bcrypt.GenerateFromPassword(prehash(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

func (h BcryptHasher) Matches(stored, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), prehash(password))
	return err == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// PlaintextHasher stores passwords as given. It exists for databases
// written by the legacy service, which never hashed anything.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("plaintext: empty password")
	}
	return password, nil
}

func (PlaintextHasher) Matches(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}
