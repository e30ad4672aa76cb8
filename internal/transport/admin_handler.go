package transport

import (
	"net/http"
	"time"

	"teeshop/internal/middleware"
	"teeshop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the admin login payload
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the admin token for API clients
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminHandler handles admin sessions and settings
type AdminHandler struct {
	auth          service.AdminAuthService
	settings      service.SettingsService
	secureCookies bool
	logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(auth service.AdminAuthService, settings service.SettingsService, secureCookies bool, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		auth:          auth,
		settings:      settings,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRoutes registers the public routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/payment-info", h.PaymentInfo)
	r.Post("/api/admin/login", h.Login)
}

// RegisterAdminRoutes registers routes that need an admin session
func (h *AdminHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/session", h.Session)
	r.Post("/logout", h.Logout)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings/payment", h.UpdatePayment)
	r.Put("/settings/email", h.UpdateEmail)
	r.Put("/settings/password", h.ChangePassword)
}

// Login exchanges the shared password for a token, also set as a cookie
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	token, expiresAt, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		h.logger.Warn("Admin login failed", zap.String("remote_addr", r.RemoteAddr))
		middleware.RespondWithServiceError(w, h.logger, err, "login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("Admin logged in")
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Session confirms the token is valid; the CSRF middleware adds the token header
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	role, _ := middleware.GetRole(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"role": role})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AdminHandler) PaymentInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.settings.PaymentInfo(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "load payment info")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, info)
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Current(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "load settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"payment_name":      settings.PaymentName,
		"payment_number":    settings.PaymentNumber,
		"email_sender":      settings.EmailSender,
		"admin_email":       settings.AdminEmail,
		"email_api_key_set": settings.EmailAPIKey != "",
		"updated_at":        settings.UpdatedAt,
	})
}

func (h *AdminHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentInfoInput
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	settings, err := h.settings.UpdatePaymentInfo(r.Context(), req)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "update payment info")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings.PaymentInfo())
}

func (h *AdminHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req service.EmailSettingsInput
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	if _, err := h.settings.UpdateEmailSettings(r.Context(), req); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "update email settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "email settings updated"})
}

func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordInput
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	if err := h.settings.ChangePassword(r.Context(), req); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "change password")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
