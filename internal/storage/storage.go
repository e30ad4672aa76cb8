package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Blob categories
const (
	CategoryDesigns  = "designs"
	CategoryPayments = "payments"
)

// MaxUploadSize bounds a single uploaded file
const MaxUploadSize = 10 << 20

var (
	ErrInvalidFile     = errors.New("no file was uploaded")
	ErrUnsupportedType = errors.New("only png, jpg, jpeg, gif and webp images are allowed")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// Upload is a file received from a client
type Upload struct {
	Filename string
	Data     []byte
}

// Ext returns the lower-cased extension of the client file name
func (u Upload) Ext() string {
	return strings.ToLower(filepath.Ext(u.Filename))
}

// BlobStore durably stores a file and returns a stable reference to it
type BlobStore interface {
	Store(ctx context.Context, upload Upload, category string) (string, error)
}

// Validate checks an upload against the image allow-list. Both the extension
// and the sniffed content must be an image.
func Validate(upload Upload) error {
	if strings.TrimSpace(upload.Filename) == "" || len(upload.Data) == 0 {
		return ErrInvalidFile
	}
	if len(upload.Data) > MaxUploadSize {
		return ErrTooLarge
	}
	if _, ok := allowedExtensions[upload.Ext()]; !ok {
		return ErrUnsupportedType
	}
	if !strings.HasPrefix(mimetype.Detect(upload.Data).String(), "image/") {
		return ErrUnsupportedType
	}
	return nil
}

// objectName builds a collision-free name that keeps the client extension
func objectName(upload Upload) string {
	ext := upload.Ext()
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return uuid.NewString() + ext
}
