package event

import (
	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/promotion"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Promotion domain - discount rule lifecycle
	serializer.Register(promotion.EventTypeDiscountRuleCreated, &promotion.DiscountRuleCreatedEvent{})
	serializer.Register(promotion.EventTypeDiscountRuleUpdated, &promotion.DiscountRuleUpdatedEvent{})
	serializer.Register(promotion.EventTypeDiscountRuleActivated, &promotion.DiscountRuleActivatedEvent{})
	serializer.Register(promotion.EventTypeDiscountRuleDeactivated, &promotion.DiscountRuleDeactivatedEvent{})

	// Promotion domain - discount application
	serializer.Register(promotion.EventTypeDiscountApplied, &promotion.DiscountAppliedEvent{})

	// Billing domain - invoice lifecycle
	serializer.Register(billing.EventTypeInvoiceCreated, &billing.InvoiceCreatedEvent{})
	serializer.Register(billing.EventTypeInvoicePaid, &billing.InvoicePaidEvent{})
}
