package security

import (
	"errors"
	"strings"

	"gearshare-backend/internal/config"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator checks admin logins against bcrypt hashes from config.
type Authenticator struct {
	hashes map[string][]byte
}

func NewAuthenticator(admins []config.AdminLogin) *Authenticator {
	hashes := make(map[string][]byte, len(admins))
	for _, a := range admins {
		hashes[strings.ToLower(strings.TrimSpace(a.Email))] = []byte(a.PasswordHash)
	}
	return &Authenticator{hashes: hashes}
}

// Verify returns the canonical (lower-cased) email on success.
func (a *Authenticator) Verify(email, password string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	hash, ok := a.hashes[key]
	if !ok {
		// Burn comparable time so unknown emails are not distinguishable.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return key, nil
}

// HashPassword is used by the admin CLI to produce config entries.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gearshare-dummy"), bcrypt.MinCost)
