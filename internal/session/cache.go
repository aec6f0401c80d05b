// Package session persists the unwrapped master key between command
// invocations for a bounded window, so the expensive Argon2id derivation runs
// at most once per window instead of once per command. The cache lives in
// per-user runtime storage, is owner-only, and can be deleted at any moment:
// the store is always recoverable from passphrase + config + entries alone.
package session

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	cr "github.com/Avdushin/pm/internal/crypto"
)

const (
	FileName   = "pm-session.json"
	DefaultTTL = 300 * time.Second
)

type record struct {
	MasterKeyBase64 string `json:"master_key_base64"`
	CachedAt        int64  `json:"cached_at"`
	TTL             int64  `json:"ttl"`
}

type Cache struct {
	path string
	now  func() time.Time
}

// New places the cache file inside dir.
func New(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, FileName), now: time.Now}
}

func (c *Cache) Path() string { return c.path }

// Put records the master key with the given lifetime. The write is atomic:
// the temp file is created 0600 before it ever holds key material, then
// renamed over the target. A race between two Puts leaves one of two
// equivalent images of the same key.
func (c *Cache) Put(mk []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rec := record{
		MasterKeyBase64: base64.StdEncoding.EncodeToString(mk),
		CachedAt:        c.now().Unix(),
		TTL:             int64(ttl / time.Second),
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	defer cr.Zero(data)

	tmp := c.path + ".tmp-" + uuid.NewString()
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Get returns the cached master key, or nil if the cache is absent in any
// sense: missing file, permissions wider than owner-only, expired TTL, or a
// key that is not exactly 32 bytes. Every absent-but-present case deletes
// the file on the way out.
func (c *Cache) Get() []byte {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
		c.Invalidate()
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	defer cr.Zero(data)
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		c.Invalidate()
		return nil
	}
	if rec.TTL <= 0 || c.now().Unix() > rec.CachedAt+rec.TTL {
		c.Invalidate()
		return nil
	}
	mk, err := base64.StdEncoding.DecodeString(rec.MasterKeyBase64)
	if err != nil || len(mk) != cr.KeySize {
		if mk != nil {
			cr.Zero(mk)
		}
		c.Invalidate()
		return nil
	}
	return mk
}

// Invalidate deletes the cache file unconditionally.
func (c *Cache) Invalidate() error {
	err := os.Remove(c.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
