package promotion

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeDiscountRule        = "DiscountRule"
	AggregateTypeDiscountApplication = "DiscountApplication"
)

// Event type constants
const (
	EventTypeDiscountRuleCreated     = "DiscountRuleCreated"
	EventTypeDiscountRuleUpdated     = "DiscountRuleUpdated"
	EventTypeDiscountRuleActivated   = "DiscountRuleActivated"
	EventTypeDiscountRuleDeactivated = "DiscountRuleDeactivated"
	EventTypeDiscountApplied         = "DiscountApplied"
)

// DiscountRuleCreatedEvent is published when a new discount rule is created
type DiscountRuleCreatedEvent struct {
	shared.BaseDomainEvent
	RuleID        uuid.UUID       `json:"rule_id"`
	Name          string          `json:"name"`
	RuleType      RuleType        `json:"rule_type"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// NewDiscountRuleCreatedEvent creates a new DiscountRuleCreatedEvent
func NewDiscountRuleCreatedEvent(rule *DiscountRule) *DiscountRuleCreatedEvent {
	return &DiscountRuleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiscountRuleCreated, AggregateTypeDiscountRule, rule.ID, rule.OwnerID),
		RuleID:          rule.ID,
		Name:            rule.Name,
		RuleType:        rule.RuleType,
		DiscountType:    rule.DiscountType,
		DiscountValue:   rule.DiscountValue,
	}
}

// DiscountRuleUpdatedEvent is published when a discount rule is updated
type DiscountRuleUpdatedEvent struct {
	shared.BaseDomainEvent
	RuleID        uuid.UUID       `json:"rule_id"`
	Name          string          `json:"name"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// NewDiscountRuleUpdatedEvent creates a new DiscountRuleUpdatedEvent
func NewDiscountRuleUpdatedEvent(rule *DiscountRule) *DiscountRuleUpdatedEvent {
	return &DiscountRuleUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiscountRuleUpdated, AggregateTypeDiscountRule, rule.ID, rule.OwnerID),
		RuleID:          rule.ID,
		Name:            rule.Name,
		DiscountValue:   rule.DiscountValue,
	}
}

// DiscountRuleActivatedEvent is published when a discount rule is activated
type DiscountRuleActivatedEvent struct {
	shared.BaseDomainEvent
	RuleID uuid.UUID `json:"rule_id"`
	Name   string    `json:"name"`
}

// NewDiscountRuleActivatedEvent creates a new DiscountRuleActivatedEvent
func NewDiscountRuleActivatedEvent(rule *DiscountRule) *DiscountRuleActivatedEvent {
	return &DiscountRuleActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiscountRuleActivated, AggregateTypeDiscountRule, rule.ID, rule.OwnerID),
		RuleID:          rule.ID,
		Name:            rule.Name,
	}
}

// DiscountRuleDeactivatedEvent is published when a discount rule is deactivated
type DiscountRuleDeactivatedEvent struct {
	shared.BaseDomainEvent
	RuleID uuid.UUID `json:"rule_id"`
	Name   string    `json:"name"`
}

// NewDiscountRuleDeactivatedEvent creates a new DiscountRuleDeactivatedEvent
func NewDiscountRuleDeactivatedEvent(rule *DiscountRule) *DiscountRuleDeactivatedEvent {
	return &DiscountRuleDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiscountRuleDeactivated, AggregateTypeDiscountRule, rule.ID, rule.OwnerID),
		RuleID:          rule.ID,
		Name:            rule.Name,
	}
}

// DiscountAppliedEvent is published when a discount is applied to an invoice
type DiscountAppliedEvent struct {
	shared.BaseDomainEvent
	ApplicationID  uuid.UUID       `json:"application_id"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	RuleID         uuid.UUID       `json:"rule_id"`
	LeadID         uuid.UUID       `json:"lead_id,omitempty"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// NewDiscountAppliedEvent creates a new DiscountAppliedEvent
func NewDiscountAppliedEvent(app *DiscountApplication) *DiscountAppliedEvent {
	return &DiscountAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiscountApplied, AggregateTypeDiscountApplication, app.ID, app.OwnerID),
		ApplicationID:   app.ID,
		InvoiceID:       app.InvoiceID,
		RuleID:          app.DiscountRuleID,
		LeadID:          app.LeadID,
		OriginalAmount:  app.OriginalAmount,
		DiscountAmount:  app.DiscountAmount,
		FinalAmount:     app.FinalAmount,
	}
}
