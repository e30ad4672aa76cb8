package transport

import (
	"errors"
	"io"
	"net/http"

	"teeshop/internal/middleware"
	"teeshop/internal/storage"

	"github.com/google/uuid"
)

// respondDecodeError reports a JSON body that failed to decode or validate
func respondDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, "validation failed", validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

func parseID(w http.ResponseWriter, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// parseMultipart bounds the request body to the given number of files
func parseMultipart(w http.ResponseWriter, r *http.Request, files int) bool {
	limit := int64(files)*storage.MaxUploadSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithCode(w, http.StatusRequestEntityTooLarge, middleware.CodeUploadTooLarge, storage.ErrTooLarge.Error(), nil)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

// formUploads reads every file sent under field. A missing field yields no uploads.
func formUploads(r *http.Request, field string) ([]storage.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, storage.MaxUploadSize+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, storage.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}
