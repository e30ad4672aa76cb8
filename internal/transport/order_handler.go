package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"teeshop/internal/domain"
	"teeshop/internal/middleware"
	"teeshop/internal/service"
	"teeshop/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TransitionRequest represents the status change payload
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// RegisterRoutes registers the customer-facing order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, submitLimiter func(http.Handler) http.Handler) {
	r.With(submitLimiter).Post("/api/orders/{code}", h.Submit)
	r.Get("/api/orders/{id}/invoice", h.Invoice)
}

// RegisterAdminRoutes registers the order management routes
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/orders", h.ListByStatus)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/status", h.Transition)
	r.Get("/reports/sales", h.SalesReport)
}

// Submit handles the multipart checkout form
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, 1) {
		return
	}

	proofs, err := formUploads(r, "payment_proof")
	if err != nil {
		h.logger.Debug("Could not read payment proof", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	var proof storage.Upload
	if len(proofs) > 0 {
		proof = proofs[0]
	}

	input := service.SubmitOrderInput{
		DesignCode: chi.URLParam(r, "code"),
		Customer: domain.Customer{
			Name:   r.FormValue("customer_name"),
			House:  r.FormValue("house"),
			City:   r.FormValue("city"),
			Mandal: r.FormValue("mandal"),
			Phone:  r.FormValue("phone"),
			Email:  r.FormValue("email"),
		},
		Size:         r.FormValue("size"),
		Quantity:     r.FormValue("quantity"),
		PaymentProof: proof,
	}

	result, err := h.orders.Submit(r.Context(), input)
	if err != nil {
		h.logger.Debug("Order submission failed", zap.String("design_code", input.DesignCode), zap.Error(err))
		middleware.RespondWithServiceError(w, h.logger, err, "place order")
		return
	}

	w.Header().Set("Location", result.InvoicePath)
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// Invoice streams the invoice document of an order
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	doc, err := h.orders.Invoice(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "generate invoice")
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

// Transition applies an admin status change
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req TransitionRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	result, err := h.orders.Transition(r.Context(), id, req.Status)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "update order status")
		return
	}

	switch result.Outcome {
	case service.OutcomeOrderNotFound:
		middleware.RespondWithErrorDetails(w, http.StatusNotFound, "order not found",
			map[string]interface{}{"outcome": result.Outcome})
	case service.OutcomeUnrecognizedStatus:
		middleware.RespondWithErrorDetails(w, http.StatusUnprocessableEntity, "unrecognized status",
			map[string]interface{}{"outcome": result.Outcome, "allowed": domain.Statuses()})
	default:
		middleware.RespondWithJSON(w, http.StatusOK, result)
	}
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "load order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListByStatus handles GET /orders?status=
func (h *OrderHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByStatus(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "list orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.orders.Dashboard(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "load dashboard")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *OrderHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	counts, err := h.orders.SalesReport(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err, "load sales report")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, counts)
}
