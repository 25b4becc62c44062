// internal/crypto/aead.go
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the size of every symmetric key used by the service.
const KeySize = 32

type Algorithm string

const (
	AES256GCM         Algorithm = "aes-256-gcm"
	XChaCha20Poly1305 Algorithm = "xchacha20-poly1305"
)

var (
	// ErrOpen is returned for every failure to open a sealed blob:
	// short input, bad tag, wrong key. Callers cannot tell them apart.
	ErrOpen    = errors.New("crypto: open failed")
	ErrKeySize = errors.New("crypto: key must be 32 bytes")
)

func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(name); alg {
	case AES256GCM, XChaCha20Poly1305:
		return alg, nil
	default:
		return "", fmt.Errorf("invalid cipher: %s (must be '%s' or '%s')", name, AES256GCM, XChaCha20Poly1305)
	}
}

// Cipher seals and opens self-describing blobs laid out as
// nonce || ciphertext || tag.
type Cipher struct {
	alg Algorithm
}

func NewCipher(alg Algorithm) (*Cipher, error) {
	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}
	return &Cipher{alg: alg}, nil
}

func (c *Cipher) Algorithm() Algorithm {
	return c.alg
}

// Overhead is the number of bytes Seal adds to a plaintext.
func (c *Cipher) Overhead() int {
	if c.alg == XChaCha20Poly1305 {
		return chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	}
	return gcmNonceSize + gcmTagSize
}

func (c *Cipher) Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}

	nonce, err := Random(aead.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("nonce generation failed: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *Cipher) Open(blob, key []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, ErrOpen
	}

	nonceSize := aead.NonceSize()
	if len(blob) < nonceSize+aead.Overhead() {
		return nil, ErrOpen
	}

	plaintext, err := aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, ErrOpen
	}

	return plaintext, nil
}

const (
	gcmNonceSize = 12
	gcmTagSize   = 16
)

func (c *Cipher) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	if c.alg == XChaCha20Poly1305 {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("cipher creation failed: %w", err)
		}
		return aead, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}
	return gcm, nil
}
