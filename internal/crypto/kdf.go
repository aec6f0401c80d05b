package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"
)

const SaltSize = 16

// KDFParams carries the Argon2id cost settings persisted in config.json.
// They are read back from disk on every unlock so stores created under older
// defaults keep deriving the same KEK.
type KDFParams struct {
	MemoryMiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultKDFParams are the costs written into new stores.
func DefaultKDFParams() KDFParams {
	return KDFParams{MemoryMiB: 64, Iterations: 3, Parallelism: 2}
}

// NewSalt samples a fresh 16-byte KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKEK stretches a passphrase into a 32-byte key-encrypting key.
// The intermediate slice returned by argon2 is wiped before returning.
func DeriveKEK(passphrase, salt []byte, p KDFParams) (kek [KeySize]byte) {
	key := argon2.IDKey(passphrase, salt, p.Iterations, p.MemoryMiB*1024, p.Parallelism, KeySize)
	copy(kek[:], key)
	Zero(key)
	return
}
