package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("escolar112200")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("escolar112200", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("same-password", first))
	assert.True(t, VerifyPassword("same-password", second))
}

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	salt, derived, ok := strings.Cut(hash, ":")
	require.True(t, ok)
	assert.Len(t, salt, 2*kdfSaltLen)
	assert.Len(t, derived, 2*kdfKeyLen)
}

func TestVerifyPassword_MalformedInput(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"nothex:abcdef",
		"abcdef:nothex",
		":",
		"abcd:",
		":abcd",
	}
	for _, stored := range cases {
		assert.False(t, VerifyPassword("anything", stored), "stored=%q", stored)
	}
}
