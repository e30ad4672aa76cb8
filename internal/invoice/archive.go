package invoice

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrNotArchived = errors.New("invoice has not been archived")
)

// Archive keeps rendered invoices so they are not re-rendered on download
type Archive struct {
	fs afero.Fs
}

// NewArchive stores invoices below dir on fs
func NewArchive(fs afero.Fs, dir string) *Archive {
	return &Archive{fs: afero.NewBasePathFs(fs, dir)}
}

// Save writes doc under the order id, replacing any earlier rendering
func (a *Archive) Save(id uuid.UUID, doc *Document) error {
	if err := a.fs.MkdirAll("/", 0o755); err != nil {
		return fmt.Errorf("failed to create invoice directory: %w", err)
	}
	if err := a.remove(id); err != nil {
		return err
	}
	if err := afero.WriteFile(a.fs, doc.Filename, doc.Data, 0o644); err != nil {
		return fmt.Errorf("failed to archive invoice: %w", err)
	}
	return nil
}

// Load returns the archived invoice of an order
func (a *Archive) Load(id uuid.UUID) (*Document, error) {
	for ext, contentType := range archivedTypes {
		name := fileName(id, ext)
		data, err := afero.ReadFile(a.fs, name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read invoice: %w", err)
		}
		return &Document{ContentType: contentType, Filename: name, Data: data}, nil
	}
	return nil, ErrNotArchived
}

var archivedTypes = map[string]string{
	".pdf":  "application/pdf",
	".html": "text/html; charset=utf-8",
}

func (a *Archive) remove(id uuid.UUID) error {
	for ext := range archivedTypes {
		err := a.fs.Remove(path.Clean(fileName(id, ext)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to replace invoice: %w", err)
		}
	}
	return nil
}
