package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiscountAppliedHandler moves a lead to CONVERTED when a discount is
// applied to one of its invoices. A discounted invoice means the lead is
// buying, so the funnel position is no longer NEW or CONTACTED.
type DiscountAppliedHandler struct {
	leads  partner.LeadRepository
	logger *zap.Logger
}

// NewDiscountAppliedHandler creates a new handler for discount applied events
func NewDiscountAppliedHandler(leads partner.LeadRepository, logger *zap.Logger) *DiscountAppliedHandler {
	return &DiscountAppliedHandler{
		leads:  leads,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *DiscountAppliedHandler) EventTypes() []string {
	return []string{promotion.EventTypeDiscountApplied}
}

// Handle processes a DiscountAppliedEvent
func (h *DiscountAppliedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	applied, ok := event.(*promotion.DiscountAppliedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", promotion.EventTypeDiscountApplied),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			promotion.EventTypeDiscountApplied, event.EventType())
	}

	// Invoices created without a resolved lead carry a zero lead ID
	if applied.LeadID == uuid.Nil {
		return nil
	}

	lead, err := h.leads.FindByID(ctx, applied.LeadID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("lead referenced by discount application no longer exists",
				zap.String("lead_id", applied.LeadID.String()),
				zap.String("application_id", applied.ApplicationID.String()),
			)
			return nil
		}
		return err
	}

	if lead.Status == partner.LeadStatusConverted {
		return nil
	}

	if err := lead.SetStatus(partner.LeadStatusConverted); err != nil {
		return err
	}
	if err := h.leads.Save(ctx, lead); err != nil {
		return err
	}

	h.logger.Info("lead converted",
		zap.String("lead_id", lead.ID.String()),
		zap.String("invoice_id", applied.InvoiceID.String()),
	)
	return nil
}

// Ensure DiscountAppliedHandler implements shared.EventHandler
var _ shared.EventHandler = (*DiscountAppliedHandler)(nil)
