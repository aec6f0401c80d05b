package crypto

import (
	"crypto/rand"
	"errors"

	xchacha "golang.org/x/crypto/chacha20poly1305"
)

const (
	KeySize   = xchacha.KeySize
	NonceSize = xchacha.NonceSizeX
	TagSize   = xchacha.Overhead
)

// ErrDecrypt is the single failure surfaced by every decryption path in this
// package. Callers must not learn which internal check rejected the input.
var ErrDecrypt = errors.New("crypto: decryption failed")

// NewNonce samples a fresh 24-byte XChaCha20-Poly1305 nonce.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// NewKey samples a fresh 32-byte key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// SealX encrypts plaintext with XChaCha20-Poly1305 under the given key and
// nonce. The returned blob is ciphertext||tag; the nonce is not included.
func SealX(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := xchacha.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, errors.New("crypto: bad nonce size")
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// OpenX decrypts a blob produced by SealX. Any failure, including a malformed
// key or nonce, is reported as ErrDecrypt.
func OpenX(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := xchacha.NewX(key)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(nonce) != NonceSize || len(ciphertext) < TagSize {
		return nil, ErrDecrypt
	}
	pt, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}
