package domain

import "time"

// SettingsID is the primary key of the only settings row
const SettingsID = 1

// Settings is the process-wide configuration row edited from the admin area
type Settings struct {
	ID                int       `json:"-" db:"id"`
	AdminPasswordHash string    `json:"-" db:"admin_password_hash"`
	PaymentName       string    `json:"payment_name" db:"payment_name"`
	PaymentNumber     string    `json:"payment_number" db:"payment_number"`
	EmailAPIKey       string    `json:"-" db:"email_api_key"`
	EmailSender       string    `json:"email_sender" db:"email_sender"`
	AdminEmail        string    `json:"admin_email" db:"admin_email"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// PaymentInfo is the public subset shown on the order form
type PaymentInfo struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// PaymentInfo returns the payment-collection identity
func (s *Settings) PaymentInfo() PaymentInfo {
	return PaymentInfo{Name: s.PaymentName, Number: s.PaymentNumber}
}

// SalesCount is the number of orders placed against a design
type SalesCount struct {
	DesignCode string `json:"design_code"`
	Label      string `json:"label"`
	Orders     int    `json:"orders"`
}
