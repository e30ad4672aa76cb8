package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"teeshop/internal/domain"
)

var (
	ErrSettingsNotFound = errors.New("settings not initialized")
)

// SettingsRepository defines the interface for the single settings row
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	CreateIfMissing(ctx context.Context, settings *domain.Settings) (bool, error)
	Update(ctx context.Context, settings *domain.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get reads the settings row
func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	query := `
		SELECT id, admin_password_hash, payment_name, payment_number, email_api_key, email_sender, admin_email, updated_at
		FROM settings
		WHERE id = $1
	`

	s := &domain.Settings{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, domain.SettingsID).Scan(
		&s.ID,
		&s.AdminPasswordHash,
		&s.PaymentName,
		&s.PaymentNumber,
		&s.EmailAPIKey,
		&s.EmailSender,
		&s.AdminEmail,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return s, nil
}

// CreateIfMissing inserts the settings row unless one exists and reports whether it did
func (r *settingsRepository) CreateIfMissing(ctx context.Context, settings *domain.Settings) (bool, error) {
	query := `
		INSERT INTO settings (id, admin_password_hash, payment_name, payment_number, email_api_key, email_sender, admin_email, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		domain.SettingsID,
		settings.AdminPasswordHash,
		settings.PaymentName,
		settings.PaymentNumber,
		settings.EmailAPIKey,
		settings.EmailSender,
		settings.AdminEmail,
		settings.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// Update rewrites every settings column
func (r *settingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	query := `
		UPDATE settings
		SET admin_password_hash = $2, payment_name = $3, payment_number = $4,
		    email_api_key = $5, email_sender = $6, admin_email = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		domain.SettingsID,
		settings.AdminPasswordHash,
		settings.PaymentName,
		settings.PaymentNumber,
		settings.EmailAPIKey,
		settings.EmailSender,
		settings.AdminEmail,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return expectOneRow(result, ErrSettingsNotFound)
}
