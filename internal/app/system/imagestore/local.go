// internal/app/system/imagestore/local.go
package imagestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes images to a directory on disk and returns URLs under a
// configured base. Development use only; nothing serves the directory
// unless the deployment does.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal builds a disk-backed provider, creating the directory if
// needed.
func NewLocal(dir, baseURL string) (*Local, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := filepath.Ext(filename)
	name := uuid.NewString() + ext
	path := filepath.Join(l.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("imagestore: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("imagestore: write %s: %w", path, err)
	}
	return l.baseURL + "/" + name, nil
}
