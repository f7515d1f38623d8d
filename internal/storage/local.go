package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidName is returned for names that would escape the storage directory.
var ErrInvalidName = errors.New("invalid file name")

// Local stores documents on the local filesystem and serves them under a public path.
type Local struct {
	dir        string
	publicPath string
	logger     zerolog.Logger
}

// NewLocal creates the storage directory if needed.
func NewLocal(dir, publicPath string, logger zerolog.Logger) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	return &Local{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		logger:     logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Save writes the file and returns its public URL path.
func (l *Local) Save(ctx context.Context, name string, reader io.Reader) (string, error) {
	path, err := l.Path(name)
	if err != nil {
		return "", err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	l.logger.Debug().Str("file", name).Msg("document stored")
	return l.publicPath + "/" + name, nil
}

// Delete removes the file. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, name string) error {
	path, err := l.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Path resolves name inside the storage directory.
func (l *Local) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(l.dir, name), nil
}
