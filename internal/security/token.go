package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	sessionTokenBytes = 32

	accessCodePrefix   = "RAC-"
	accessCodeLength   = 10
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateSessionToken returns an opaque, unguessable token from a
// cryptographically strong source, hex-encoded.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateAccessCode returns a registration code of the form
// "RAC-" followed by 10 uppercase alphanumerics, drawn from crypto/rand.
func GenerateAccessCode() (string, error) {
	out := make([]byte, accessCodeLength)
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate access code: %w", err)
		}
		out[i] = accessCodeAlphabet[n.Int64()]
	}
	return accessCodePrefix + string(out), nil
}
