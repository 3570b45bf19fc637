// Package notify sends low stock alerts through Mailgun.
package notify

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/logger"
	"stockroom/internal/models"

	"github.com/mailgun/mailgun-go/v5"
)

const sendTimeout = 10 * time.Second

type Mailer struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	recipient   string
	enabled     bool
}

// NewMailer returns a mailer that is enabled only when the Mailgun domain,
// API key and alert recipient are all configured.
func NewMailer(cfg config.MailConfig) *Mailer {
	enabled := cfg.Domain != "" && cfg.APIKey != "" && cfg.AlertEmail != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.APIKey)
	}

	return &Mailer{
		client:      client,
		domain:      cfg.Domain,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		recipient:   cfg.AlertEmail,
		enabled:     enabled,
	}
}

func (m *Mailer) IsEnabled() bool {
	return m != nil && m.enabled
}

// NotifyLowStock mails the alert recipient the list of items that are at or
// below their threshold. A disabled mailer does nothing.
func (m *Mailer) NotifyLowStock(ctx context.Context, owner string, items []models.InventoryItem) error {
	if !m.IsEnabled() || len(items) == 0 {
		return nil
	}

	message := mailgun.NewMessage(
		m.domain,
		fmt.Sprintf("%s <%s>", m.senderName, m.senderEmail),
		lowStockSubject(items),
		lowStockText(owner, items),
		m.recipient,
	)
	message.SetHTML(lowStockHTML(owner, items))

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := m.client.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send low stock alert: %w", err)
	}

	logger.Info("Low stock alert sent",
		"owner", owner,
		"items", len(items))
	return nil
}
