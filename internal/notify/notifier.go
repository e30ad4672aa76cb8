package notify

import (
	"context"

	"teeshop/internal/domain"

	"go.uber.org/zap"
)

// Notifier composes order emails and delivers them on a best-effort basis.
// Delivery errors are logged and never returned.
type Notifier struct {
	sender   Sender
	settings SettingsProvider
	logger   *zap.Logger
}

// NewNotifier creates a Notifier
func NewNotifier(sender Sender, settings SettingsProvider, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, settings: settings, logger: logger}
}

// OrderPlaced sends the customer confirmation and the admin alert. It
// returns how many messages were delivered.
func (n *Notifier) OrderPlaced(ctx context.Context, o *domain.Order) int {
	sent := 0
	if n.deliver(ctx, o, o.Email, ConfirmationMessage(o)) {
		sent++
	}

	adminEmail := ""
	if s, err := n.settings.Current(ctx); err != nil {
		n.logger.Warn("Could not load admin email", zap.Error(err))
	} else {
		adminEmail = s.AdminEmail
	}
	if adminEmail == "" {
		n.logger.Warn("Admin alert skipped, no admin email configured", zap.String("order_id", o.ID.String()))
		return sent
	}
	if n.deliver(ctx, o, adminEmail, AdminAlertMessage(o)) {
		sent++
	}
	return sent
}

// StatusChanged sends the status-specific customer email
func (n *Notifier) StatusChanged(ctx context.Context, o *domain.Order) bool {
	return n.deliver(ctx, o, o.Email, StatusMessage(o))
}

func (n *Notifier) deliver(ctx context.Context, o *domain.Order, to string, msg Message) bool {
	if err := n.sender.Send(ctx, to, msg.Subject, msg.Body); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("order_id", o.ID.String()),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return false
	}
	n.logger.Info("Notification sent",
		zap.String("order_id", o.ID.String()),
		zap.String("subject", msg.Subject),
	)
	return true
}
