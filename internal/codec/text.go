// Package codec holds the encodings shared across the service: CBOR for
// structured binary values and base64url for text carried in URLs.
package codec

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrMalformed = errors.New("codec: malformed text")

var strictEncoding = base64.RawURLEncoding.Strict()

// Encode returns unpadded base64url text, safe to carry in a query string.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode. Surrounding whitespace is ignored, so tokens
// pasted with a trailing newline still decode. Decoding is strict: unused
// trailing bits must be zero, so every text has at most one decoding.
func Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrMalformed
	}

	b, err := strictEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrMalformed
	}
	return b, nil
}
