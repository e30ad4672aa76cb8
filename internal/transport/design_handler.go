package transport

import (
	"net/http"
	"strconv"
	"strings"

	"teeshop/internal/domain"
	"teeshop/internal/middleware"
	"teeshop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxDesignImages bounds the files accepted in one catalog upload
const maxDesignImages = 8

// DesignHandler handles HTTP requests for the catalog
type DesignHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewDesignHandler creates a new DesignHandler
func NewDesignHandler(catalog service.CatalogService, logger *zap.Logger) *DesignHandler {
	return &DesignHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *DesignHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/designs", h.List)
	r.Get("/api/designs/{code}", h.Get)
}

// RegisterAdminRoutes registers catalog management routes
func (h *DesignHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/designs", h.Create)
	r.Put("/designs/{id}", h.Update)
	r.Post("/designs/{id}/images", h.AddImages)
	r.Post("/designs/{id}/toggle-stock", h.ToggleStock)
	r.Delete("/designs/{id}", h.Delete)
}

func (h *DesignHandler) List(w http.ResponseWriter, r *http.Request) {
	designs, err := h.catalog.List(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "list designs")
		return
	}
	if designs == nil {
		designs = []*domain.Design{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, designs)
}

func (h *DesignHandler) Get(w http.ResponseWriter, r *http.Request) {
	design, err := h.catalog.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "load design")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, design)
}

// Create handles the multipart design form with one or more "images" files
func (h *DesignHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxDesignImages) {
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("stock_quantity")))
	if err != nil {
		middleware.RespondWithValidationErrors(w, "validation failed", []middleware.ValidationError{
			{Field: "stock_quantity", Message: "Must be a whole number"},
		})
		return
	}

	images, err := formUploads(r, "images")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	design, err := h.catalog.Create(r.Context(), service.DesignInput{
		Code:          r.FormValue("design_code"),
		Name:          r.FormValue("name"),
		Description:   r.FormValue("description"),
		Price:         r.FormValue("price"),
		StockQuantity: quantity,
	}, images)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "create design")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, design)
}

// Update handles a JSON edit of the design fields
func (h *DesignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// price rules live in the service
	var req service.DesignInput
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	design, err := h.catalog.Update(r.Context(), id, req)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "update design")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, design)
}

func (h *DesignHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !parseMultipart(w, r, maxDesignImages) {
		return
	}

	images, err := formUploads(r, "images")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	design, err := h.catalog.AddImages(r.Context(), id, images)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "add images")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, design)
}

func (h *DesignHandler) ToggleStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	design, err := h.catalog.ToggleStock(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "toggle stock")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, design)
}

func (h *DesignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "delete design")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
