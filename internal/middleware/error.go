package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"teeshop/internal/repository"
	"teeshop/internal/service"
	"teeshop/internal/storage"

	"go.uber.org/zap"
)

// Error codes the storefront and admin clients branch on. Responses without a
// specific code carry the HTTP status text.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeDuplicateSubmission = "DUPLICATE_SUBMISSION"
	CodeOutOfStock          = "OUT_OF_STOCK"
	CodeDesignCodeTaken     = "DESIGN_CODE_TAKEN"
	CodeDesignNotFound      = "DESIGN_NOT_FOUND"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeUploadTooLarge      = "UPLOAD_TOO_LARGE"
	CodeStorageFailure      = "STORAGE_FAILURE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	RespondWithCode(w, statusCode, http.StatusText(statusCode), message, details)
}

// RespondWithCode sends a structured error response under an explicit error code
func RespondWithCode(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, message string, errors []ValidationError) {
	RespondWithCode(w, http.StatusBadRequest, CodeValidationFailed, message,
		map[string]interface{}{"validation_errors": errors})
}

// RespondWithServiceError maps an error returned by the services onto a status
// and error code. Unexpected errors are logged with the attempted action.
func RespondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		if len(verr.Fields) > 0 {
			RespondWithValidationErrors(w, verr.Message, FieldErrors(verr.Fields))
			return
		}
		RespondWithCode(w, http.StatusBadRequest, CodeValidationFailed, verr.Message, nil)
		return
	}

	status, code := classifyError(err)
	switch code {
	case CodeInternal:
		logger.Error("Request failed", zap.String("action", action), zap.Error(err))
		RespondWithCode(w, status, code, "failed to "+action, nil)
	case CodeStorageFailure:
		logger.Error("Blob storage failed", zap.String("action", action), zap.Error(err))
		RespondWithCode(w, status, code, "failed to store uploaded file", nil)
	case CodeInvalidCredentials:
		RespondWithCode(w, status, code, "invalid password", nil)
	default:
		RespondWithCode(w, status, code, err.Error(), nil)
	}
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDuplicateSubmission):
		return http.StatusConflict, CodeDuplicateSubmission
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict, CodeOutOfStock
	case errors.Is(err, repository.ErrDesignCodeTaken):
		return http.StatusConflict, CodeDesignCodeTaken
	case errors.Is(err, repository.ErrDesignNotFound):
		return http.StatusNotFound, CodeDesignNotFound
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, CodeOrderNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeInvalidCredentials
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, CodeUploadTooLarge
	case errors.Is(err, service.ErrStorage):
		return http.StatusInternalServerError, CodeStorageFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithCode(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
