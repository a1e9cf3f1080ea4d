package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password schemes accepted by NewHasher.
const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Hasher turns plaintext passwords into stored hashes and checks them.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. Hashes written by any
	// scheme are accepted, so records survive a scheme change.
	Verify(hash, password string) bool
}

func NewHasher(scheme string) (Hasher, error) {
	switch strings.ToLower(scheme) {
	case "", SchemeSHA256:
		return SHA256Hasher{}, nil
	case SchemeBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("auth: unknown password scheme %q", scheme)
	}
}

// SHA256Hasher stores the lowercase hex SHA-256 digest of the password.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	return HexDigest(password), nil
}

func (SHA256Hasher) Verify(hash, password string) bool {
	return verify(hash, password)
}

// BcryptHasher stores bcrypt hashes. They are not hex digests.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

func (BcryptHasher) Verify(hash, password string) bool {
	return verify(hash, password)
}

func verify(hash, password string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HexDigest(password))) == 1
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// HexDigest returns the lowercase hex SHA-256 digest of s.
func HexDigest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
