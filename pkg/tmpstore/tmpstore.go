// Package tmpstore hands out uniquely named temporary files that are removed
// when released, and sweeps files left behind by a crashed process.
package tmpstore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Prefix marks every file created by a Store so Sweep never touches others.
const Prefix = "expressionapi-"

type IStore interface {
	Acquire(ext string) (*File, error)
	Sweep(olderThan time.Duration) (int, error)
	Dir() string
}

type store struct {
	dir string
	log *logrus.Logger
}

// File is an open temporary file. Release closes and deletes it and is safe
// to call more than once.
type File struct {
	*os.File
	log      *logrus.Logger
	released bool
}

func New(log *logrus.Logger) (IStore, error) {
	dir := os.Getenv("TEMP_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return NewInDir(dir, log)
}

func NewInDir(dir string, log *logrus.Logger) (IStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", dir, err)
	}
	return &store{dir: dir, log: log}, nil
}

func (s *store) Dir() string {
	return s.dir
}

func (s *store) Acquire(ext string) (*File, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return nil, err
	}

	name := filepath.Join(s.dir, Prefix+id.String()+ext)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}

	return &File{File: f, log: s.log}, nil
}

// Sweep removes prefixed files whose modification time is older than the
// cutoff and reports how many were removed.
func (s *store) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.WithFields(logrus.Fields{
				"path":  path,
				"error": err.Error(),
			}).Warn("Failed to remove orphaned temp file")
			continue
		}
		removed++
	}

	return removed, nil
}

// Fill streams r into the file chunkSize bytes at a time.
func (f *File) Fill(r io.Reader, chunkSize int) (int64, error) {
	buf := make([]byte, chunkSize)
	// Hide ReadFrom/WriteTo so the copy goes through buf.
	return io.CopyBuffer(struct{ io.Writer }{f.File}, struct{ io.Reader }{r}, buf)
}

func (f *File) Release() {
	if f == nil || f.released {
		return
	}
	f.released = true

	name := f.Name()
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		f.log.WithFields(logrus.Fields{
			"path":  name,
			"error": err.Error(),
		}).Debug("Temp file close failed")
	}

	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		f.log.WithFields(logrus.Fields{
			"path":  name,
			"error": err.Error(),
		}).Warn("Failed to remove temp file")
	}
}
