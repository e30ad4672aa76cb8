package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teeshop/internal/domain"
	"teeshop/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// MinPasswordLength applies to admin password changes
	MinPasswordLength = 8

	defaultPaymentName   = "Your Name"
	defaultPaymentNumber = "9999999999"
)

// PaymentInfoInput updates the payment identity shown to customers
type PaymentInfoInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Number string `json:"number" validate:"required,max=50"`
}

// EmailSettingsInput updates the email provider credentials. An empty API key
// keeps the stored one.
type EmailSettingsInput struct {
	APIKey     string `json:"api_key" validate:"max=255"`
	Sender     string `json:"sender" validate:"required,email,max=255"`
	AdminEmail string `json:"admin_email" validate:"omitempty,email,max=255"`
}

// ChangePasswordInput replaces the shared admin password
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// SettingsService manages the single settings row
type SettingsService interface {
	Current(ctx context.Context) (*domain.Settings, error)
	EnsureDefaults(ctx context.Context, initialPassword, adminEmail string) (bool, error)
	PaymentInfo(ctx context.Context) (domain.PaymentInfo, error)
	UpdatePaymentInfo(ctx context.Context, input PaymentInfoInput) (*domain.Settings, error)
	UpdateEmailSettings(ctx context.Context, input EmailSettingsInput) (*domain.Settings, error)
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
	VerifyPassword(ctx context.Context, password string) error
}

type settingsService struct {
	repo   repository.SettingsRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(repo repository.SettingsRepository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger, now: time.Now}
}

// Current reads the settings fresh from storage on every call
func (s *settingsService) Current(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// EnsureDefaults creates the settings row on first start
func (s *settingsService) EnsureDefaults(ctx context.Context, initialPassword, adminEmail string) (bool, error) {
	if _, err := s.repo.Get(ctx); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrSettingsNotFound) {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}

	hash, err := hashPassword(initialPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.repo.CreateIfMissing(ctx, &domain.Settings{
		ID:                domain.SettingsID,
		AdminPasswordHash: hash,
		PaymentName:       defaultPaymentName,
		PaymentNumber:     defaultPaymentNumber,
		AdminEmail:        adminEmail,
		UpdatedAt:         s.now(),
	})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("Default settings created")
	}
	return created, nil
}

func (s *settingsService) PaymentInfo(ctx context.Context) (domain.PaymentInfo, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return domain.PaymentInfo{}, err
	}
	return settings.PaymentInfo(), nil
}

func (s *settingsService) UpdatePaymentInfo(ctx context.Context, input PaymentInfoInput) (*domain.Settings, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	return s.update(ctx, func(settings *domain.Settings) {
		settings.PaymentName = input.Name
		settings.PaymentNumber = input.Number
	})
}

func (s *settingsService) UpdateEmailSettings(ctx context.Context, input EmailSettingsInput) (*domain.Settings, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	return s.update(ctx, func(settings *domain.Settings) {
		if input.APIKey != "" {
			settings.EmailAPIKey = input.APIKey
		}
		settings.EmailSender = input.Sender
		settings.AdminEmail = input.AdminEmail
	})
}

// ChangePassword requires the current password before storing the new hash
func (s *settingsService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if err := s.VerifyPassword(ctx, input.CurrentPassword); err != nil {
		return err
	}

	hash, err := hashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.update(ctx, func(settings *domain.Settings) {
		settings.AdminPasswordHash = hash
	})
	if err == nil {
		s.logger.Info("Admin password changed")
	}
	return err
}

// VerifyPassword checks password against the stored admin hash
func (s *settingsService) VerifyPassword(ctx context.Context, password string) error {
	settings, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(settings.AdminPasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *settingsService) update(ctx context.Context, apply func(*domain.Settings)) (*domain.Settings, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	apply(settings)
	settings.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}

// hashPassword hashes a password using bcrypt with cost factor 10
func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}
