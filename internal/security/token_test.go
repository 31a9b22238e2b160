package security

import (
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionToken(t *testing.T) {
	token, err := GenerateSessionToken()
	require.NoError(t, err)

	raw, err := hex.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, sessionTokenBytes)

	other, err := GenerateSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateAccessCode(t *testing.T) {
	pattern := regexp.MustCompile(`^RAC-[A-Z0-9]{10}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 50)
}
