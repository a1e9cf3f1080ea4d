package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSHA256Hasher(t *testing.T) {
	h, err := NewHasher("sha256")
	require.NoError(t, err)

	hash, err := h.Hash("secret")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)
	assert.Equal(t, "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", hash)
	assert.Len(t, hash, 64)
	assert.Equal(t, strings.ToLower(hash), hash)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, h.Verify(hash, "secret"))
	assert.False(t, h.Verify(hash, "Secret"))
	assert.False(t, h.Verify("", "secret"))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, h.Verify(hash, "secret"))
	assert.False(t, h.Verify(hash, "wrong"))
}

func TestVerifyAcceptsEitherScheme(t *testing.T) {
	digest, err := SHA256Hasher{}.Hash("secret")
	require.NoError(t, err)
	crypted, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("secret")
	require.NoError(t, err)

	for _, h := range []Hasher{SHA256Hasher{}, BcryptHasher{Cost: bcrypt.MinCost}} {
		assert.True(t, h.Verify(digest, "secret"))
		assert.True(t, h.Verify(crypted, "secret"))
	}
}

func TestNewHasherUnknownScheme(t *testing.T) {
	_, err := NewHasher("md5")
	assert.Error(t, err)

	h, err := NewHasher("")
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = NewHasher("BCRYPT")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)
}
