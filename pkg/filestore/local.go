package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local writes uploaded files under a directory on the local disk.
type Local struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewLocal prepares the target directory and returns a Local store.
func NewLocal(dir string, logger zerolog.Logger) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &Local{
		dir:    dir,
		logger: logger.With().Str("component", "local_filestore").Logger(),
		now:    time.Now,
	}, nil
}

// Upload copies the reader into a new file and returns its relative path.
func (l *Local) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s_%s_%s", SanitizeFileName(name), l.now().UTC().Format("20060102_150405"), uuid.NewString()[:8])
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		fileName += ext
	}
	target := filepath.Join(l.dir, fileName)

	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}

	l.logger.Debug().Str("path", target).Msg("file stored")
	return filepath.ToSlash(target), nil
}

// SanitizeFileName keeps letters, digits, dashes and underscores of the base name.
func SanitizeFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, base)
	if len(base) > 120 {
		base = base[:120]
	}
	if base == "" {
		base = "file"
	}
	return base
}
