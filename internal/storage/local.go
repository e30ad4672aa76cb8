package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/spf13/afero"
)

// LocalStore keeps blobs on a filesystem and serves them under a public prefix
type LocalStore struct {
	fs        afero.Fs
	publicURL string
}

// NewLocalStore stores files below dir on fs
func NewLocalStore(fs afero.Fs, dir, publicURL string) *LocalStore {
	return &LocalStore{
		fs:        afero.NewBasePathFs(fs, dir),
		publicURL: publicURL,
	}
}

// Store writes the upload into the category directory
func (s *LocalStore) Store(ctx context.Context, upload Upload, category string) (string, error) {
	if err := Validate(upload); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := path.Join(category, objectName(upload))
	if err := s.fs.MkdirAll(category, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", category, err)
	}
	if err := afero.WriteFile(s.fs, name, upload.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return s.publicURL + "/" + name, nil
}

// Handler serves stored blobs. Mount it with the public prefix stripped.
func (s *LocalStore) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
}
