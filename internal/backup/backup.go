// Package backup archives the store root. Only relative paths and file
// contents are promised by the format, so any future restore can unpack
// either archive kind.
package backup

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tarPrefix nests tar.gz contents under a single directory, the way the
// original archives unpacked.
const tarPrefix = "pm-store"

// ResolveName turns the optional CLI argument into a concrete archive path.
// No argument: timestamped zip. A name with a recognized archive extension is
// kept; anything else gains .tar.gz.
func ResolveName(arg string, now time.Time) string {
	timestamp := strings.ReplaceAll(now.UTC().Format(time.RFC3339), ":", "-")
	arg = strings.TrimSpace(arg)
	switch {
	case arg == "":
		return fmt.Sprintf("backup_%s.zip", timestamp)
	case strings.HasSuffix(arg, ".zip"),
		strings.HasSuffix(arg, ".tar.gz"),
		strings.HasSuffix(arg, ".tgz"),
		strings.HasSuffix(arg, ".gz"):
		return arg
	default:
		return arg + ".tar.gz"
	}
}

// Create archives root at path, picking the format from the extension.
func Create(root, path string) error {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup: store does not exist, run `pm init` first")
		}
		return err
	}
	if strings.HasSuffix(path, ".zip") {
		return createZip(root, path)
	}
	return createTarGz(root, path)
}

func createZip(root, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func createTarGz(root, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = tarPrefix + "/" + filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		tw.Close()
		gw.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}
