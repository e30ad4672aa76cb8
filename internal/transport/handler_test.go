package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"teeshop/internal/domain"
	"teeshop/internal/invoice"
	"teeshop/internal/middleware"
	"teeshop/internal/repository"
	"teeshop/internal/service"
	"teeshop/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubOrderService records the last submission and returns canned results
type stubOrderService struct {
	submitted  service.SubmitOrderInput
	submitErr  error
	transition *service.TransitionResult
	doc        *invoice.Document
}

func (s *stubOrderService) Submit(ctx context.Context, input service.SubmitOrderInput) (*service.SubmitResult, error) {
	s.submitted = input
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	order := &domain.Order{ID: uuid.New(), Status: domain.StatusPending, Customer: input.Customer}
	return &service.SubmitResult{Order: order, InvoicePath: service.InvoicePath(order.ID), Notifications: 2}, nil
}

func (s *stubOrderService) Transition(ctx context.Context, id uuid.UUID, requested string) (*service.TransitionResult, error) {
	return s.transition, nil
}

func (s *stubOrderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (s *stubOrderService) ListByStatus(ctx context.Context, status string) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) Dashboard(ctx context.Context) (*service.Dashboard, error) {
	return &service.Dashboard{}, nil
}

func (s *stubOrderService) SalesReport(ctx context.Context) ([]domain.SalesCount, error) {
	return []domain.SalesCount{{DesignCode: "TEE-1", Label: "Lotus", Orders: 3}}, nil
}

func (s *stubOrderService) Invoice(ctx context.Context, id uuid.UUID) (*invoice.Document, error) {
	if s.doc == nil {
		return nil, repository.ErrOrderNotFound
	}
	return s.doc, nil
}

func newOrderRouter(svc service.OrderService) http.Handler {
	h := NewOrderHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler { return next })
	r.Route("/api/admin", h.RegisterAdminRoutes)
	return r
}

func checkoutRequest(t *testing.T, code string, fields map[string]string, proofName string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if proofName != "" {
		fw, err := mw.CreateFormFile("payment_proof", proofName)
		require.NoError(t, err)
		require.NoError(t, png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+code, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validCheckout() map[string]string {
	return map[string]string{
		"customer_name": "Ravi Kumar",
		"house":         "4-12",
		"city":          "Guntur",
		"mandal":        "Tenali",
		"phone":         "9000000001",
		"email":         "ravi@example.com",
		"size":          "L",
		"quantity":      "2",
	}
}

func TestSubmitPassesFormToService(t *testing.T) {
	svc := &stubOrderService{}
	w := httptest.NewRecorder()

	newOrderRouter(svc).ServeHTTP(w, checkoutRequest(t, "TEE-1", validCheckout(), "proof.png"))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "TEE-1", svc.submitted.DesignCode)
	assert.Equal(t, "Tenali", svc.submitted.Customer.Mandal)
	assert.Equal(t, "2", svc.submitted.Quantity)
	assert.Equal(t, "proof.png", svc.submitted.PaymentProof.Filename)
	assert.NotEmpty(t, svc.submitted.PaymentProof.Data)
	assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "/invoice"))

	var res service.SubmitResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, domain.StatusPending, res.Order.Status)
}

func TestSubmitErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &service.ValidationError{Message: "invalid payment proof", Fields: map[string]string{"payment_proof": "no file was uploaded"}}, http.StatusBadRequest, middleware.CodeValidationFailed},
		{"validation without fields", &service.ValidationError{Message: "design is out of range"}, http.StatusBadRequest, middleware.CodeValidationFailed},
		{"duplicate", service.ErrDuplicateSubmission, http.StatusConflict, middleware.CodeDuplicateSubmission},
		{"out of stock", service.ErrOutOfStock, http.StatusConflict, middleware.CodeOutOfStock},
		{"unknown design", repository.ErrDesignNotFound, http.StatusNotFound, middleware.CodeDesignNotFound},
		{"storage", fmt.Errorf("%w: bucket down", service.ErrStorage), http.StatusInternalServerError, middleware.CodeStorageFailure},
		{"persistence", errors.New("connection refused"), http.StatusInternalServerError, middleware.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{submitErr: tt.err}
			w := httptest.NewRecorder()

			newOrderRouter(svc).ServeHTTP(w, checkoutRequest(t, "TEE-1", validCheckout(), ""))

			assert.Equal(t, tt.status, w.Code)
			var response middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.code, response.Error.Code)
			assert.NotContains(t, response.Error.Message, "connection refused")
		})
	}
}

func TestProperty_CheckoutErrorsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)
	errs := []error{
		service.ErrDuplicateSubmission,
		service.ErrOutOfStock,
		repository.ErrDesignNotFound,
		service.ErrStorage,
		&service.ValidationError{Message: "validation failed"},
	}

	properties.Property("every rejected checkout returns an error body and no Location", prop.ForAll(
		func(i int, phone string) bool {
			svc := &stubOrderService{submitErr: errs[i]}
			fields := validCheckout()
			fields["phone"] = phone
			w := httptest.NewRecorder()

			newOrderRouter(svc).ServeHTTP(w, checkoutRequest(t, "TEE-9", fields, "proof.png"))

			if w.Code < 400 || w.Header().Get("Location") != "" {
				t.Logf("FAIL: status %d", w.Code)
				return false
			}
			var response map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				return false
			}
			_, ok := response["error"]
			return ok
		},
		gen.IntRange(0, len(errs)-1),
		gen.NumString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestTransitionOutcomeStatuses(t *testing.T) {
	tests := []struct {
		name    string
		outcome service.Outcome
		status  int
	}{
		{"applied", service.OutcomeApplied, http.StatusOK},
		{"unknown order", service.OutcomeOrderNotFound, http.StatusNotFound},
		{"unknown status", service.OutcomeUnrecognizedStatus, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{transition: &service.TransitionResult{Outcome: tt.outcome}}
			req := httptest.NewRequest(http.MethodPost, "/api/admin/orders/"+uuid.NewString()+"/status",
				strings.NewReader(`{"status":"Shipped"}`))
			w := httptest.NewRecorder()

			newOrderRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestTransitionRejectsBadInput(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/orders/not-a-uuid/status", strings.NewReader(`{"status":"Shipped"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/orders/"+uuid.NewString()+"/status", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceDownload(t *testing.T) {
	id := uuid.New()
	svc := &stubOrderService{doc: &invoice.Document{
		ContentType: "application/pdf",
		Filename:    "invoice_" + id.String() + ".pdf",
		Data:        []byte("%PDF-1.4"),
	}}
	w := httptest.NewRecorder()

	newOrderRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/"+id.String()+"/invoice", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), id.String())
	assert.Equal(t, "%PDF-1.4", w.Body.String())

	w = httptest.NewRecorder()
	newOrderRouter(&stubOrderService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/"+id.String()+"/invoice", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// stubAuth accepts a single password
type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, password string) (string, time.Time, error) {
	if password != "correct-horse" {
		return "", time.Time{}, service.ErrInvalidCredentials
	}
	return "signed-token", time.Now().Add(time.Hour), nil
}

func (stubAuth) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func TestAdminLoginSetsCookie(t *testing.T) {
	h := NewAdminHandler(stubAuth{}, nil, true, zap.NewNop())

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"correct-horse"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AdminCookieName, cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestFormUploadsReadsEveryFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"front.png", "back.png"} {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("data-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/designs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	require.True(t, parseMultipart(w, req, 2))

	uploads, err := formUploads(req, "images")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, storage.Upload{Filename: "front.png", Data: []byte("data-front.png")}, uploads[0])

	none, err := formUploads(req, "payment_proof")
	require.NoError(t, err)
	assert.Empty(t, none)
}
