package notification

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/infrastructure/config"
)

// ResendEmailSender delivers discount emails through the Resend API
type ResendEmailSender struct {
	client *resend.Client
	cfg    config.NotificationConfig
	log    *zap.Logger
}

// NewResendEmailSender creates a new ResendEmailSender
func NewResendEmailSender(cfg config.NotificationConfig, log *zap.Logger) *ResendEmailSender {
	return &ResendEmailSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		cfg:    cfg,
		log:    log,
	}
}

// NewResendEmailSenderWithClient creates a ResendEmailSender with an
// existing client, primarily for testing
func NewResendEmailSenderWithClient(client *resend.Client, cfg config.NotificationConfig, log *zap.Logger) *ResendEmailSender {
	return &ResendEmailSender{client: client, cfg: cfg, log: log}
}

// Send delivers a discount email to the client
func (s *ResendEmailSender) Send(ctx context.Context, n apppromotion.DiscountNotification) error {
	if n.ClientEmail == "" {
		return fmt.Errorf("email notification requires a client email address")
	}

	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{n.ClientEmail},
		Subject: discountSubject(n),
		Html:    discountHTML(n),
		Text:    discountText(n),
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}

	s.log.Debug("discount email sent",
		zap.String("email_id", sent.Id),
		zap.String("invoice_number", n.InvoiceNumber))
	return nil
}
