// Package file writes run archives as JSON files on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.BackupWriter = (*Writer)(nil)

// Writer writes <dir>/<name>.json.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Path returns the file an archive named name is written to.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name+".json")
}

// Write serialises the archive as indented JSON. The file is written to a
// temporary name and renamed so a failed write never truncates the
// previous archive.
func (w *Writer) Write(ctx context.Context, name string, archive *domain.Archive) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if archive.GeneratedAt.IsZero() {
		archive.GeneratedAt = w.now().UTC()
	}
	data, err := Encode(archive)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+"-*.json")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing backup: %w", err)
	}

	path := w.Path(name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replacing backup: %w", err)
	}
	return path, nil
}

// Encode renders an archive as indented UTF-8 JSON with a trailing newline.
func Encode(archive *domain.Archive) ([]byte, error) {
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding archive: %w", err)
	}
	return append(data, '\n'), nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: backup name %q", domain.ErrInvalidInput, name)
	}
	return nil
}
