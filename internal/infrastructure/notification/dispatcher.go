package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/infrastructure/config"
)

// ChannelSender delivers a discount notification over one channel
type ChannelSender interface {
	Send(ctx context.Context, n apppromotion.DiscountNotification) error
}

// ChannelDispatcher routes discount notifications to the channel the
// application requested. A channel with no contact detail is skipped, and
// delivery counts as successful when at least one attempted channel got
// the message through.
type ChannelDispatcher struct {
	email    ChannelSender
	whatsapp ChannelSender
	enabled  bool
	log      *zap.Logger
}

// NewChannelDispatcher creates a new ChannelDispatcher
func NewChannelDispatcher(email, whatsapp ChannelSender, enabled bool, log *zap.Logger) *ChannelDispatcher {
	return &ChannelDispatcher{
		email:    email,
		whatsapp: whatsapp,
		enabled:  enabled,
		log:      log,
	}
}

// NewDispatcherFromConfig wires the default senders from configuration
func NewDispatcherFromConfig(cfg config.NotificationConfig, log *zap.Logger) *ChannelDispatcher {
	return NewChannelDispatcher(
		NewResendEmailSender(cfg, log),
		NewWhatsAppSender(cfg, log),
		cfg.Enabled,
		log,
	)
}

// NotifyDiscount delivers the notification over the requested channel
func (d *ChannelDispatcher) NotifyDiscount(ctx context.Context, n apppromotion.DiscountNotification) error {
	if !d.enabled {
		d.log.Debug("notifications disabled, skipping",
			zap.String("invoice_number", n.InvoiceNumber))
		return nil
	}
	if !n.Channel.IsValid() {
		return fmt.Errorf("unknown notification channel: %s", n.Channel)
	}

	var errs []error
	attempted := 0
	delivered := 0

	if n.Channel.IncludesEmail() {
		if n.ClientEmail == "" {
			d.log.Debug("no email address, skipping email channel",
				zap.String("invoice_number", n.InvoiceNumber))
		} else {
			attempted++
			if err := d.email.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Errorf("email: %w", err))
			} else {
				delivered++
			}
		}
	}
	if n.Channel.IncludesWhatsApp() {
		if n.ClientPhone == "" {
			d.log.Debug("no phone number, skipping whatsapp channel",
				zap.String("invoice_number", n.InvoiceNumber))
		} else {
			attempted++
			if err := d.whatsapp.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Errorf("whatsapp: %w", err))
			} else {
				delivered++
			}
		}
	}

	if delivered > 0 {
		return nil
	}
	if attempted == 0 {
		return fmt.Errorf("no contact details for channel %s", n.Channel)
	}
	return errors.Join(errs...)
}

// Ensure ChannelDispatcher implements Notifier
var _ apppromotion.Notifier = (*ChannelDispatcher)(nil)
