package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"teeshop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	UpdateLifecycle(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ExistsPending(ctx context.Context, phone, designCode string) (bool, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	SalesByDesign(ctx context.Context) ([]domain.SalesCount, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, design_name, design_code, design_price, customer_name, house, city, mandal,
	phone, email, size, quantity, payment_image, status, created_at, completed_at, cancelled_at, status_updated_at`

// Create inserts a new order
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		order.ID,
		order.DesignName,
		order.DesignCode,
		order.DesignPrice,
		order.Name,
		order.House,
		order.City,
		order.Mandal,
		order.Phone,
		order.Email,
		order.Size,
		order.Quantity,
		order.PaymentImage,
		string(order.Status),
		nullTime(order.CreatedAt),
		nullTime(order.CompletedAt),
		nullTime(order.CancelledAt),
		nullTime(order.StatusUpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// UpdateLifecycle writes the status and lifecycle timestamps of an order
func (r *orderRepository) UpdateLifecycle(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, completed_at = $3, cancelled_at = $4, status_updated_at = $5
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		order.ID,
		string(order.Status),
		nullTime(order.CompletedAt),
		nullTime(order.CancelledAt),
		nullTime(order.StatusUpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

// FindByIDForUpdate retrieves an order and locks its row for the surrounding transaction
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

// ExistsPending reports whether the phone already has a pending order for the design
func (r *orderRepository) ExistsPending(ctx context.Context, phone, designCode string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM orders WHERE phone = $1 AND design_code = $2 AND status = $3
		)
	`

	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, query, phone, designCode, string(domain.StatusPending)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending orders: %w", err)
	}
	return exists, nil
}

// ListByStatus returns orders in a status. Terminal statuses list newest first.
func (r *orderRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	order := "created_at ASC"
	if status.IsTerminal() {
		order = "created_at DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE status = $1 ORDER BY %s`, orderColumns, order)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// SalesByDesign counts orders per catalog design, matched on design code
func (r *orderRepository) SalesByDesign(ctx context.Context) ([]domain.SalesCount, error) {
	query := `
		SELECT d.design_code, d.name, COUNT(o.id)
		FROM designs d
		LEFT JOIN orders o ON o.design_code = d.design_code
		GROUP BY d.id, d.design_code, d.name, d.created_at
		ORDER BY d.created_at ASC
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}
	defer rows.Close()

	counts := []domain.SalesCount{}
	for rows.Next() {
		var c domain.SalesCount
		if err := rows.Scan(&c.DesignCode, &c.Label, &c.Orders); err != nil {
			return nil, fmt.Errorf("failed to scan sales count: %w", err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales counts: %w", err)
	}

	return counts, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	var status string
	var createdAt, completedAt, cancelledAt, statusUpdatedAt sql.NullTime

	err := row.Scan(
		&o.ID,
		&o.DesignName,
		&o.DesignCode,
		&o.DesignPrice,
		&o.Name,
		&o.House,
		&o.City,
		&o.Mandal,
		&o.Phone,
		&o.Email,
		&o.Size,
		&o.Quantity,
		&o.PaymentImage,
		&status,
		&createdAt,
		&completedAt,
		&cancelledAt,
		&statusUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.Status = domain.Status(status)
	o.CreatedAt = timePtr(createdAt)
	o.CompletedAt = timePtr(completedAt)
	o.CancelledAt = timePtr(cancelledAt)
	o.StatusUpdatedAt = timePtr(statusUpdatedAt)
	return o, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
