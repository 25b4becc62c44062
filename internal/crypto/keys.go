package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// DeriveMasterKey hashes the operator secret into a 256-bit key. It is
// unsalted so the same secret always yields the same key.
func DeriveMasterKey(secret string) []byte {
	hash := sha256.Sum256([]byte(secret))
	return hash[:]
}

// GenerateKey returns a fresh random 256-bit key.
func GenerateKey() ([]byte, error) {
	return Random(KeySize)
}

func Random(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("crypto/rand failed: %w", err)
	}
	return b, nil
}
