package vault

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cr "github.com/Avdushin/pm/internal/crypto"
)

func initVault(t *testing.T, passphrase string) (*Config, []byte) {
	t.Helper()
	cfg, mk, err := Initialize([]byte(passphrase))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	mkCopy := append([]byte(nil), mk.Bytes()...)
	mk.Destroy()
	return cfg, mkCopy
}

func TestInitializeUnwrapRoundTrip(t *testing.T) {
	cfg, want := initVault(t, "correcthorse")

	mk, err := cfg.Unwrap([]byte("correcthorse"))
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	defer mk.Destroy()
	if !bytes.Equal(mk.Bytes(), want) {
		t.Fatal("unwrapped master key differs from generated one")
	}
}

func TestUnwrapWrongPassphrase(t *testing.T) {
	cfg, _ := initVault(t, "correcthorse")
	if _, err := cfg.Unwrap([]byte("batterystaple")); !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("got %v, want ErrBadPassphrase", err)
	}
}

func TestRewrapPreservesMasterKeyAndKDF(t *testing.T) {
	cfg, want := initVault(t, "old-pass")

	saltBefore := cfg.KDF.Salt
	nonceBefore := cfg.Enc.MasterKeyNonce

	mk, err := cfg.Unwrap([]byte("old-pass"))
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if err := cfg.Rewrap(mk, []byte("new-pass")); err != nil {
		t.Fatalf("rewrap: %v", err)
	}
	mk.Destroy()

	if cfg.KDF.Salt != saltBefore {
		t.Fatal("rewrap must not touch the KDF salt")
	}
	if cfg.Enc.MasterKeyNonce == nonceBefore {
		t.Fatal("rewrap must draw a fresh nonce")
	}

	if _, err := cfg.Unwrap([]byte("old-pass")); !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("old passphrase still unwraps: %v", err)
	}
	mk2, err := cfg.Unwrap([]byte("new-pass"))
	if err != nil {
		t.Fatalf("unwrap after rewrap: %v", err)
	}
	defer mk2.Destroy()
	if !bytes.Equal(mk2.Bytes(), want) {
		t.Fatal("master key changed across rewrap")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg, _ := initVault(t, "correcthorse")
	path := filepath.Join(t.TempDir(), "config.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Enc.EncryptedMasterKey != cfg.Enc.EncryptedMasterKey {
		t.Fatal("wrap changed across save/load")
	}
	mk, err := loaded.Unwrap([]byte("correcthorse"))
	if err != nil {
		t.Fatalf("unwrap loaded: %v", err)
	}
	mk.Destroy()
}

func TestLoadRejectsCorruptConfig(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		return path
	}

	if _, err := Load(write("garbage.json", "not json")); !errors.Is(err, ErrCorruptConfig) {
		t.Fatalf("garbage: got %v", err)
	}

	cfg, _ := initVault(t, "p")

	v2 := *cfg
	v2.Version = 2
	if err := v2.Save(filepath.Join(dir, "v2.json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "v2.json")); !errors.Is(err, ErrCorruptConfig) {
		t.Fatalf("v2: got %v", err)
	}

	badSalt := *cfg
	badSalt.KDF.Salt = base64.StdEncoding.EncodeToString([]byte("short"))
	if err := badSalt.Save(filepath.Join(dir, "salt.json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "salt.json")); !errors.Is(err, ErrCorruptConfig) {
		t.Fatalf("salt: got %v", err)
	}

	zeroCost := *cfg
	zeroCost.KDF.Iterations = 0
	if err := zeroCost.Save(filepath.Join(dir, "cost.json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "cost.json")); !errors.Is(err, ErrCorruptConfig) {
		t.Fatalf("cost: got %v", err)
	}
}

func TestConfigCarriesNoPlaintextKeyMaterial(t *testing.T) {
	cfg, mk := initVault(t, "correcthorse")
	wrap, err := base64.StdEncoding.DecodeString(cfg.Enc.EncryptedMasterKey)
	if err != nil {
		t.Fatalf("decode wrap: %v", err)
	}
	if len(wrap) != cr.KeySize+cr.TagSize {
		t.Fatalf("wrap length %d, want %d", len(wrap), cr.KeySize+cr.TagSize)
	}
	if bytes.Contains(wrap, mk) {
		t.Fatal("wrapped blob contains the raw master key")
	}
}
