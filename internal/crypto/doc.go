// Package crypto provides the symmetric primitives behind share tokens.
//
// Sealed blobs are nonce || ciphertext || tag, using either AES-256-GCM
// (12-byte nonce) or XChaCha20-Poly1305 (24-byte nonce). A fresh random
// nonce is drawn for every Seal. Open reports every failure as ErrOpen.
//
// The master key is the SHA-256 digest of the operator secret.
package crypto
