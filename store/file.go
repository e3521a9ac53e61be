package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const appDirName = "go-auth-client"

// File stores the credential in a single file. Writes go through a
// temporary file and a rename so a crash never leaves a torn credential.
type File struct {
	path string
}

var _ Store = (*File)(nil)

// NewFile returns a store backed by the file at path. The parent directory
// is created with 0700 permissions on first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns $XDG_DATA_HOME/go-auth-client/token, falling back to
// $HOME/.local/share and finally the temp directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, appDirName, DefaultKey)
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Save implements Store.
func (f *File) Save(ctx context.Context, credential string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	if err := atomic.WriteFile(f.path, strings.NewReader(credential)); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}

	return os.Chmod(f.path, 0o600)
}

// Load implements Store.
func (f *File) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}

	return string(raw), nil
}

// Clear implements Store.
func (f *File) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}
