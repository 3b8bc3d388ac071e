package users

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "pbkdf2_sha256$210000$"))
	assert.True(t, VerifyPassword("secret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("secret")
	require.NoError(t, err)
	b, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformedStored(t *testing.T) {
	for _, stored := range []string{
		"",
		"plaintext",
		"bcrypt$12$abc$def",
		"pbkdf2_sha256$notanumber$c2FsdA$a2V5",
		"pbkdf2_sha256$210000$!!!$a2V5",
		"pbkdf2_sha256$210000$c2FsdA$",
	} {
		assert.Falsef(t, VerifyPassword("secret", stored), "stored %q", stored)
	}
}
