// Package filestore keeps uploaded statement-of-account files on local disk.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("file exceeds maximum upload size")

// Store persists uploaded files.
type Store interface {
	// Save writes r under a unique name derived from name and returns the
	// stored path.
	Save(name string, r io.Reader) (string, error)
	Remove(path string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalStore writes files to a directory as <unix-ms>-<name>.
type LocalStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewLocalStore creates dir if needed. maxBytes <= 0 disables the size limit.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, eris.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, eris.Wrapf(err, "create upload directory %s", dir)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Save implements Store. A partially written file is removed on failure.
func (s *LocalStore) Save(name string, r io.Reader) (string, error) {
	base := SanitizeName(name)
	path := filepath.Join(s.dir, fmt.Sprintf("%d-%s", s.now().UnixMilli(), base))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if errors.Is(err, os.ErrExist) {
		path = filepath.Join(s.dir, fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString()[:8], base))
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	}
	if err != nil {
		return "", eris.Wrapf(err, "create %s", path)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case err != nil:
		_ = os.Remove(path)
		return "", eris.Wrapf(err, "write %s", path)
	case s.maxBytes > 0 && n > s.maxBytes:
		_ = os.Remove(path)
		return "", ErrTooLarge
	case closeErr != nil:
		_ = os.Remove(path)
		return "", eris.Wrapf(closeErr, "close %s", path)
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "remove %s", path)
	}
	return nil
}

// SanitizeName reduces a client-supplied file name to a safe base name.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}
