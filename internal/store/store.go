// Package store owns the on-disk layout of a password store: config.json at
// the root and one envelope file per entry under store/, addressed by
// slash-separated names (`work/github` -> store/work/github.enc).
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	cr "github.com/Avdushin/pm/internal/crypto"
	"github.com/Avdushin/pm/internal/entry"
)

const (
	ConfigFile = "config.json"
	entryDir   = "store"
	encSuffix  = ".enc"
)

var (
	ErrNotFound    = errors.New("store: entry not found")
	ErrExists      = errors.New("store: entry already exists")
	ErrInvalidName = errors.New("store: invalid entry name")
)

type Store struct {
	root string
	log  zerolog.Logger
}

// Open binds a store to its root directory. The directory need not exist yet;
// Init creates it.
func Open(root string, log zerolog.Logger) *Store {
	return &Store{root: root, log: log}
}

func (s *Store) Root() string       { return s.root }
func (s *Store) ConfigPath() string { return filepath.Join(s.root, ConfigFile) }
func (s *Store) entryRoot() string  { return filepath.Join(s.root, entryDir) }

// Exists reports whether the store root is already present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.root)
	return err == nil
}

// Init creates the root and entry directories.
func (s *Store) Init() error {
	return os.MkdirAll(s.entryRoot(), 0700)
}

// ValidateName checks that a name maps under store/ and nowhere else. Names
// are slash-separated; backslashes are treated as separators too so Windows
// input cannot smuggle segments past the check.
func ValidateName(name string) error {
	n := strings.ReplaceAll(name, "\\", "/")
	if n == "" || strings.HasPrefix(n, "/") || strings.HasSuffix(n, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, seg := range strings.Split(n, "/") {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsRune(seg, ':') {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

func (s *Store) entryPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	n := strings.ReplaceAll(name, "\\", "/")
	return filepath.Join(s.entryRoot(), filepath.FromSlash(n)+encSuffix), nil
}

// Write persists an envelope atomically: temp file in the target directory,
// fsync, rename over. A concurrent reader sees the old record or the new one,
// never a torn file.
func (s *Store) Write(name string, env *cr.Envelope, overwrite bool) error {
	path, err := s.entryPath(name)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	tmp := path + ".tmp-" + uuid.NewString()
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
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	s.log.Debug().Str("entry", name).Msg("wrote envelope")
	return nil
}

// Read loads the raw envelope for a name.
func (s *Store) Read(name string) (*cr.Envelope, error) {
	path, err := s.entryPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	env, err := cr.ParseEnvelope(data)
	if err != nil {
		// An unparsable file under store/ is indistinguishable from a
		// tampered one.
		return nil, cr.ErrDecrypt
	}
	return env, nil
}

// Delete removes the entry file and prunes any directories it leaves empty.
func (s *Store) Delete(name string) error {
	path, err := s.entryPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	s.pruneEmptyDirs(filepath.Dir(path))
	return nil
}

func (s *Store) pruneEmptyDirs(dir string) {
	root := s.entryRoot()
	for dir != root && strings.HasPrefix(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		s.log.Debug().Str("dir", dir).Msg("pruned empty directory")
		dir = filepath.Dir(dir)
	}
}

// List walks store/ and returns sorted entry names, optionally filtered to
// prefix itself and names under `prefix/`.
func (s *Store) List(prefix string) ([]string, error) {
	root := s.entryRoot()
	names := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, encSuffix) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), encSuffix)
		if prefix == "" || name == prefix || strings.HasPrefix(name, prefix+"/") {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// WriteEntry seals an entry under the master key and persists it.
func (s *Store) WriteEntry(e *entry.Entry, mk []byte, overwrite bool) error {
	pt, err := e.Marshal()
	if err != nil {
		return err
	}
	defer cr.Zero(pt)
	env, err := cr.SealEnvelope(mk, pt, nil)
	if err != nil {
		return err
	}
	return s.Write(e.Title, env, overwrite)
}

// ReadEntry loads and decrypts one entry. AEAD failure surfaces as
// crypto.ErrDecrypt with no further detail.
func (s *Store) ReadEntry(name string, mk []byte) (*entry.Entry, error) {
	env, err := s.Read(name)
	if err != nil {
		return nil, err
	}
	pt, err := env.Open(mk, nil)
	if err != nil {
		return nil, err
	}
	defer cr.Zero(pt)
	return entry.Unmarshal(pt)
}
