package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"teeshop/internal/domain"
	"teeshop/internal/events"
	"teeshop/internal/invoice"
	"teeshop/internal/notify"
	"teeshop/internal/repository"
	"teeshop/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome tells the caller what a transition request did
type Outcome string

const (
	OutcomeApplied            Outcome = "applied"
	OutcomeOrderNotFound      Outcome = "order_not_found"
	OutcomeUnrecognizedStatus Outcome = "unrecognized_status"
)

// OrderNotifier sends the customer and admin emails of the order lifecycle
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o *domain.Order) int
	StatusChanged(ctx context.Context, o *domain.Order) bool
}

// InvoiceArchive keeps rendered invoices per order
type InvoiceArchive interface {
	Save(id uuid.UUID, doc *invoice.Document) error
	Load(id uuid.UUID) (*invoice.Document, error)
}

// SubmitOrderInput is a customer checkout
type SubmitOrderInput struct {
	DesignCode   string          `json:"design_code" validate:"required,max=50"`
	Customer     domain.Customer `json:"customer"`
	Size         string          `json:"size" validate:"required,max=10"`
	Quantity     string          `json:"quantity"`
	PaymentProof storage.Upload  `json:"-"`
}

// SubmitResult describes a placed order
type SubmitResult struct {
	Order         *domain.Order `json:"order"`
	InvoicePath   string        `json:"invoice_path"`
	Notifications int           `json:"notifications_sent"`
}

// TransitionResult describes a status change request
type TransitionResult struct {
	Outcome Outcome       `json:"outcome"`
	Order   *domain.Order `json:"order,omitempty"`
	// Previous is the status before the request
	Previous domain.Status `json:"previous_status,omitempty"`
	Changed  bool          `json:"changed"`
	// StockAdjusted is true when a cancellation put quantity back on its design
	StockAdjusted    bool `json:"stock_adjusted"`
	RestoredQuantity int  `json:"restored_quantity,omitempty"`
	// DesignMissing is set when the design was deleted before a cancellation
	DesignMissing bool `json:"design_missing,omitempty"`
	Notified      bool `json:"notified"`
}

// Dashboard groups the orders shown on the admin overview
type Dashboard struct {
	Pending   []*domain.Order `json:"pending"`
	Active    []*domain.Order `json:"active"`
	Completed []*domain.Order `json:"completed"`
	Cancelled []*domain.Order `json:"cancelled"`
}

// OrderService runs the order lifecycle
type OrderService interface {
	Submit(ctx context.Context, input SubmitOrderInput) (*SubmitResult, error)
	Transition(ctx context.Context, id uuid.UUID, requested string) (*TransitionResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByStatus(ctx context.Context, status string) ([]*domain.Order, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	SalesReport(ctx context.Context) ([]domain.SalesCount, error)
	Invoice(ctx context.Context, id uuid.UUID) (*invoice.Document, error)
}

// OrderDeps are the collaborators of the order service
type OrderDeps struct {
	Designs   repository.DesignRepository
	Orders    repository.OrderRepository
	Tx        repository.TxManager
	Blobs     storage.BlobStore
	Notifier  OrderNotifier
	Publisher events.Publisher
	Renderer  invoice.Renderer
	Archive   InvoiceArchive
	Settings  notify.SettingsProvider
	Logger    *zap.Logger
	Now       func() time.Time
}

type orderService struct {
	designs   repository.DesignRepository
	orders    repository.OrderRepository
	tx        repository.TxManager
	blobs     storage.BlobStore
	notifier  OrderNotifier
	publisher events.Publisher
	renderer  invoice.Renderer
	archive   InvoiceArchive
	settings  notify.SettingsProvider
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(deps OrderDeps) OrderService {
	s := &orderService{
		designs:   deps.Designs,
		orders:    deps.Orders,
		tx:        deps.Tx,
		blobs:     deps.Blobs,
		notifier:  deps.Notifier,
		publisher: deps.Publisher,
		renderer:  deps.Renderer,
		archive:   deps.Archive,
		settings:  deps.Settings,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.publisher == nil {
		s.publisher = events.NewNopPublisher()
	}
	if s.renderer == nil {
		s.renderer = invoice.HTMLRenderer{}
	}
	return s
}

// Submit places an order. The payment proof is stored first; stock and the
// order row are then written in one transaction under a lock on the design.
func (s *orderService) Submit(ctx context.Context, input SubmitOrderInput) (*SubmitResult, error) {
	input.DesignCode = strings.TrimSpace(input.DesignCode)
	input.Customer.Phone = strings.TrimSpace(input.Customer.Phone)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := storage.Validate(input.PaymentProof); err != nil {
		return nil, &ValidationError{
			Message: "invalid payment proof",
			Fields:  map[string]string{"payment_proof": err.Error()},
		}
	}

	if err := s.checkOrderable(ctx, input.DesignCode, input.Customer.Phone); err != nil {
		return nil, err
	}

	proofURL, err := s.blobs.Store(ctx, input.PaymentProof, storage.CategoryPayments)
	if err != nil {
		s.logger.Error("Failed to store payment proof", zap.String("design_code", input.DesignCode), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	quantity := domain.ParseQuantity(input.Quantity)
	var order *domain.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		design, err := s.designs.FindByCodeForUpdate(ctx, input.DesignCode)
		if err != nil {
			return err
		}
		if !design.InStock() {
			return ErrOutOfStock
		}
		pending, err := s.orders.ExistsPending(ctx, input.Customer.Phone, design.Code)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicateSubmission
		}

		now := s.now()
		design.DecrementStock(quantity)
		design.UpdatedAt = now
		if err := s.designs.UpdateStock(ctx, design); err != nil {
			return err
		}

		order = &domain.Order{
			ID:             uuid.New(),
			DesignSnapshot: design.Snapshot(),
			Customer:       input.Customer,
			Size:           input.Size,
			Quantity:       strconv.Itoa(quantity),
			PaymentImage:   proofURL,
			Status:         domain.StatusPending,
			CreatedAt:      &now,
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		s.logger.Warn("Order submission rejected",
			zap.String("design_code", input.DesignCode),
			zap.String("payment_image", proofURL),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("design_code", order.DesignCode),
		zap.Int("quantity", quantity),
	)

	sent := 0
	if s.notifier != nil {
		sent = s.notifier.OrderPlaced(ctx, order)
	}
	s.publish(ctx, events.OrderPlaced(order, s.now()))
	s.storeInvoice(ctx, order)

	return &SubmitResult{
		Order:         order,
		InvoicePath:   InvoicePath(order.ID),
		Notifications: sent,
	}, nil
}

// checkOrderable rejects a submission before anything is stored
func (s *orderService) checkOrderable(ctx context.Context, code, phone string) error {
	design, err := s.designs.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !design.InStock() {
		return ErrOutOfStock
	}
	pending, err := s.orders.ExistsPending(ctx, phone, design.Code)
	if err != nil {
		return err
	}
	if pending {
		return ErrDuplicateSubmission
	}
	return nil
}

// Transition moves an order to the requested status. Unknown orders and
// statuses are reported through the outcome, not as errors.
func (s *orderService) Transition(ctx context.Context, id uuid.UUID, requested string) (*TransitionResult, error) {
	target, ok := domain.ParseStatus(requested)
	if !ok {
		return &TransitionResult{Outcome: OutcomeUnrecognizedStatus}, nil
	}

	result := &TransitionResult{Outcome: OutcomeApplied}
	var effect domain.TransitionEffect
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		effect = order.ApplyTransition(target, now)

		if effect.RestoreQuantity > 0 {
			design, err := s.designs.FindByCodeForUpdate(ctx, order.DesignCode)
			switch {
			case errors.Is(err, repository.ErrDesignNotFound):
				result.DesignMissing = true
			case err != nil:
				return err
			default:
				design.RestoreStock(effect.RestoreQuantity)
				design.UpdatedAt = now
				if err := s.designs.UpdateStock(ctx, design); err != nil {
					return err
				}
				result.StockAdjusted = true
				result.RestoredQuantity = effect.RestoreQuantity
			}
		}

		result.Order = order
		return s.orders.UpdateLifecycle(ctx, order)
	})
	if errors.Is(err, repository.ErrOrderNotFound) {
		return &TransitionResult{Outcome: OutcomeOrderNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	result.Previous = effect.Previous
	result.Changed = effect.Changed()

	fields := []zap.Field{
		zap.String("order_id", id.String()),
		zap.String("from", effect.Previous.String()),
		zap.String("to", effect.Current.String()),
	}
	if result.DesignMissing {
		s.logger.Warn("Design no longer exists, stock not restored",
			append(fields, zap.String("design_code", result.Order.DesignCode))...)
	}

	if !result.Changed {
		return result, nil
	}

	s.logger.Info("Order status changed", fields...)
	if s.notifier != nil {
		result.Notified = s.notifier.StatusChanged(ctx, result.Order)
	}
	s.publish(ctx, events.StatusChanged(result.Order, effect, result.RestoredQuantity, s.now()))
	return result, nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *orderService) ListByStatus(ctx context.Context, status string) ([]*domain.Order, error) {
	parsed, ok := domain.ParseStatus(status)
	if !ok {
		return nil, &ValidationError{
			Message: "unrecognized status",
			Fields:  map[string]string{"status": "Invalid value"},
		}
	}
	return s.orders.ListByStatus(ctx, parsed)
}

func (s *orderService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	for _, status := range domain.Statuses() {
		orders, err := s.orders.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		switch status {
		case domain.StatusPending:
			d.Pending = orders
		case domain.StatusCompleted:
			d.Completed = orders
		case domain.StatusCancelled:
			d.Cancelled = orders
		default:
			d.Active = append(d.Active, orders...)
		}
	}
	return d, nil
}

func (s *orderService) SalesReport(ctx context.Context) ([]domain.SalesCount, error) {
	return s.orders.SalesByDesign(ctx)
}

// Invoice returns the archived invoice, rendering it when none was kept
func (s *orderService) Invoice(ctx context.Context, id uuid.UUID) (*invoice.Document, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		doc, err := s.archive.Load(id)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, invoice.ErrNotArchived) {
			s.logger.Warn("Could not read archived invoice", zap.String("order_id", id.String()), zap.Error(err))
		}
	}

	return s.renderInvoice(ctx, order)
}

func (s *orderService) renderInvoice(ctx context.Context, order *domain.Order) (*invoice.Document, error) {
	var payment domain.PaymentInfo
	if settings, err := s.settings.Current(ctx); err != nil {
		s.logger.Warn("Invoice rendered without payment details", zap.Error(err))
	} else {
		payment = settings.PaymentInfo()
	}

	snapshot, err := invoice.NewSnapshot(order, payment, s.now())
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.Save(order.ID, doc); err != nil {
			s.logger.Warn("Could not archive invoice", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *orderService) storeInvoice(ctx context.Context, order *domain.Order) {
	if _, err := s.renderInvoice(ctx, order); err != nil {
		s.logger.Error("Failed to generate invoice", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (s *orderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID.String()),
			zap.Error(err),
		)
	}
}

// InvoicePath is where the invoice of an order can be downloaded
func InvoicePath(id uuid.UUID) string {
	return "/api/orders/" + id.String() + "/invoice"
}
