// Package vault implements the key hierarchy: a master key generated once at
// store initialization, wrapped under a passphrase-derived KEK and persisted
// in the cleartext config record. Entries are sealed under the master key, so
// a passphrase change only rewraps the master key and never touches entries.
package vault

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	cr "github.com/Avdushin/pm/internal/crypto"
)

const (
	ConfigVersion = 1

	kdfAlgo  = "argon2id"
	aeadAlgo = "xchacha20-poly1305"
)

// KDFConfig is the persisted Argon2id parameter block. Costs live here, not
// in code, so future hardening does not orphan existing stores.
type KDFConfig struct {
	Algo        string `json:"algo"`
	MemoryMiB   uint32 `json:"memory_mib"`
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
	Salt        string `json:"salt"` // base64, 16 bytes
}

// EncConfig holds the wrapped master key.
type EncConfig struct {
	Algo               string `json:"algo"`
	MasterKeyNonce     string `json:"master_key_nonce"`     // base64, 24 bytes
	EncryptedMasterKey string `json:"encrypted_master_key"` // base64, 48 bytes
}

// Config is the one cleartext record per store. Together with the passphrase
// it is sufficient to recover the master key; it contains no key material.
type Config struct {
	Version int       `json:"version"`
	KDF     KDFConfig `json:"kdf"`
	Enc     EncConfig `json:"enc"`
}

// Initialize draws a fresh master key and KDF salt, derives the KEK from the
// passphrase and writes the wrap into a new config record. The returned
// Secret holds the master key; the caller owns its destruction.
func Initialize(passphrase []byte) (*Config, *cr.Secret, error) {
	salt, err := cr.NewSalt()
	if err != nil {
		return nil, nil, err
	}
	params := cr.DefaultKDFParams()

	mk := cr.NewRandomSecret(cr.KeySize)

	kek := cr.DeriveKEK(passphrase, salt, params)
	defer cr.Zero32(&kek)

	nonce, err := cr.NewNonce()
	if err != nil {
		mk.Destroy()
		return nil, nil, err
	}
	wrap, err := cr.SealX(kek[:], nonce, mk.Bytes(), nil)
	if err != nil {
		mk.Destroy()
		return nil, nil, err
	}

	cfg := &Config{
		Version: ConfigVersion,
		KDF: KDFConfig{
			Algo:        kdfAlgo,
			MemoryMiB:   params.MemoryMiB,
			Iterations:  params.Iterations,
			Parallelism: params.Parallelism,
			Salt:        base64.StdEncoding.EncodeToString(salt),
		},
		Enc: EncConfig{
			Algo:               aeadAlgo,
			MasterKeyNonce:     base64.StdEncoding.EncodeToString(nonce),
			EncryptedMasterKey: base64.StdEncoding.EncodeToString(wrap),
		},
	}
	return cfg, mk, nil
}

// Unwrap recovers the master key from the config record. Every failure past
// config validation reports ErrBadPassphrase.
func (c *Config) Unwrap(passphrase []byte) (*cr.Secret, error) {
	salt, params, err := c.kdfParams()
	if err != nil {
		return nil, err
	}
	nonce, err := base64.StdEncoding.DecodeString(c.Enc.MasterKeyNonce)
	if err != nil {
		return nil, fmt.Errorf("%w: bad master key nonce", ErrCorruptConfig)
	}
	wrap, err := base64.StdEncoding.DecodeString(c.Enc.EncryptedMasterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad master key ciphertext", ErrCorruptConfig)
	}

	kek := cr.DeriveKEK(passphrase, salt, params)
	defer cr.Zero32(&kek)

	mk, err := cr.OpenX(kek[:], nonce, wrap, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	if len(mk) != cr.KeySize {
		cr.Zero(mk)
		return nil, ErrBadPassphrase
	}
	return cr.NewSecret(mk), nil
}

// Rewrap replaces the master-key wrap with one derived from a new passphrase.
// The KDF salt, the cost parameters and the master key itself are preserved,
// so every entry file stays valid.
func (c *Config) Rewrap(mk *cr.Secret, newPassphrase []byte) error {
	salt, params, err := c.kdfParams()
	if err != nil {
		return err
	}
	kek := cr.DeriveKEK(newPassphrase, salt, params)
	defer cr.Zero32(&kek)

	nonce, err := cr.NewNonce()
	if err != nil {
		return err
	}
	wrap, err := cr.SealX(kek[:], nonce, mk.Bytes(), nil)
	if err != nil {
		return err
	}
	c.Enc.MasterKeyNonce = base64.StdEncoding.EncodeToString(nonce)
	c.Enc.EncryptedMasterKey = base64.StdEncoding.EncodeToString(wrap)
	return nil
}

func (c *Config) kdfParams() ([]byte, cr.KDFParams, error) {
	if c.Version != ConfigVersion {
		return nil, cr.KDFParams{}, fmt.Errorf("%w: version %d", ErrCorruptConfig, c.Version)
	}
	if c.KDF.Algo != kdfAlgo || c.Enc.Algo != aeadAlgo {
		return nil, cr.KDFParams{}, fmt.Errorf("%w: unknown algorithm", ErrCorruptConfig)
	}
	if c.KDF.MemoryMiB == 0 || c.KDF.Iterations == 0 || c.KDF.Parallelism == 0 {
		return nil, cr.KDFParams{}, fmt.Errorf("%w: zero KDF cost", ErrCorruptConfig)
	}
	salt, err := base64.StdEncoding.DecodeString(c.KDF.Salt)
	if err != nil || len(salt) != cr.SaltSize {
		return nil, cr.KDFParams{}, fmt.Errorf("%w: bad KDF salt", ErrCorruptConfig)
	}
	p := cr.KDFParams{
		MemoryMiB:   c.KDF.MemoryMiB,
		Iterations:  c.KDF.Iterations,
		Parallelism: c.KDF.Parallelism,
	}
	return salt, p, nil
}

// Load reads and validates a config record from disk.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptConfig, err)
	}
	if _, _, err := c.kdfParams(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the config record. Init and passphrase rotation are the only
// writers; both are user-driven, so no lock is taken.
func (c *Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}
