package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// The hash format does not encode parameters, so the iteration count is
// fixed for the lifetime of stored hashes.
const (
	kdfIterations = 600_000
	kdfKeyLen     = 32
	kdfSaltLen    = 16
)

// HashPassword derives a verifiable hash with a fresh random salt. The
// result is "saltHex:derivedHex"; two calls with the same password yield
// different outputs.
func HashPassword(password string) (string, error) {
	salt := make([]byte, kdfSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, kdfIterations, kdfKeyLen, sha256.New)

	return fmt.Sprintf("%s:%s", hex.EncodeToString(salt), hex.EncodeToString(derived)), nil
}

// VerifyPassword re-derives the candidate with the stored salt and
// constant-time-compares. Malformed stored hashes verify false, never
// error out.
func VerifyPassword(password string, encodedHash string) bool {
	saltHex, derivedHex, ok := strings.Cut(encodedHash, ":")
	if !ok {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}
	stored, err := hex.DecodeString(derivedHex)
	if err != nil || len(stored) == 0 {
		return false
	}

	computed := pbkdf2.Key([]byte(password), salt, kdfIterations, len(stored), sha256.New)

	return subtle.ConstantTimeCompare(stored, computed) == 1
}
