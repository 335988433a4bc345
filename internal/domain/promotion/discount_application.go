package promotion

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotificationChannel represents how the client is told about a discount
type NotificationChannel string

const (
	NotificationChannelEmail    NotificationChannel = "email"
	NotificationChannelWhatsApp NotificationChannel = "whatsapp"
	NotificationChannelBoth     NotificationChannel = "both"
)

// IsValid checks if the channel is valid
func (c NotificationChannel) IsValid() bool {
	return c == NotificationChannelEmail || c == NotificationChannelWhatsApp || c == NotificationChannelBoth
}

// String returns the string representation of NotificationChannel
func (c NotificationChannel) String() string {
	return string(c)
}

// IncludesEmail returns true if email delivery is requested
func (c NotificationChannel) IncludesEmail() bool {
	return c == NotificationChannelEmail || c == NotificationChannelBoth
}

// IncludesWhatsApp returns true if WhatsApp delivery is requested
func (c NotificationChannel) IncludesWhatsApp() bool {
	return c == NotificationChannelWhatsApp || c == NotificationChannelBoth
}

// NotificationStatus represents the delivery state of the client notification
type NotificationStatus string

const (
	NotificationStatusNone   NotificationStatus = "none"
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// IsValid checks if the notification status is valid
func (s NotificationStatus) IsValid() bool {
	return s == NotificationStatusNone || s == NotificationStatusSent || s == NotificationStatusFailed
}

// DiscountApplication records one discount applied to one invoice.
// The invoice ID is unique across applications; the database constraint on
// it is what makes discount application idempotent under concurrency.
// The amount columns are immutable once written; only the delivery fields
// (notification and provider sync status) change afterwards.
type DiscountApplication struct {
	shared.OwnerAggregateRoot
	InvoiceID           uuid.UUID           `json:"invoice_id"`
	DiscountRuleID      uuid.UUID           `json:"discount_rule_id"`
	LeadID              uuid.UUID           `json:"lead_id"`
	OriginalAmount      decimal.Decimal     `json:"original_amount"`
	DiscountAmount      decimal.Decimal     `json:"discount_amount"`
	FinalAmount         decimal.Decimal     `json:"final_amount"`
	NotificationChannel NotificationChannel `json:"notification_channel"`
	NotificationStatus  NotificationStatus  `json:"notification_status"`
	ClientNotifiedAt    *time.Time          `json:"client_notified_at"`
	ProviderSynced      bool                `json:"provider_synced"`
}

// NewDiscountApplication creates a new discount application record
func NewDiscountApplication(
	ownerID uuid.UUID,
	invoiceID uuid.UUID,
	ruleID uuid.UUID,
	leadID uuid.UUID,
	originalAmount decimal.Decimal,
	discountAmount decimal.Decimal,
	channel NotificationChannel,
) (*DiscountApplication, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if ruleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RULE", "Discount rule ID cannot be empty")
	}
	if originalAmount.LessThan(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Original amount cannot be negative")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount amount cannot be negative")
	}
	if discountAmount.GreaterThan(originalAmount) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount amount cannot exceed original amount")
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Unknown notification channel")
	}

	app := &DiscountApplication{
		OwnerAggregateRoot:  shared.NewOwnerAggregateRoot(ownerID),
		InvoiceID:           invoiceID,
		DiscountRuleID:      ruleID,
		LeadID:              leadID,
		OriginalAmount:      originalAmount,
		DiscountAmount:      discountAmount,
		FinalAmount:         originalAmount.Sub(discountAmount),
		NotificationChannel: channel,
		NotificationStatus:  NotificationStatusNone,
	}

	app.AddDomainEvent(NewDiscountAppliedEvent(app))

	return app, nil
}

// Savings returns the amount the client saved
func (a *DiscountApplication) Savings() decimal.Decimal {
	return a.DiscountAmount
}

// SavingsPercent returns the savings as a percentage of the original amount
func (a *DiscountApplication) SavingsPercent() decimal.Decimal {
	if a.OriginalAmount.IsZero() {
		return decimal.Zero
	}
	return a.DiscountAmount.Div(a.OriginalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

// MarkNotificationSent records a successful client notification
func (a *DiscountApplication) MarkNotificationSent() {
	now := time.Now()
	a.NotificationStatus = NotificationStatusSent
	a.ClientNotifiedAt = &now
	a.Touch()
	a.IncrementVersion()
}

// MarkNotificationFailed records that the notification could not be delivered
func (a *DiscountApplication) MarkNotificationFailed() {
	a.NotificationStatus = NotificationStatusFailed
	a.Touch()
	a.IncrementVersion()
}

// MarkProviderSynced records that the payment provider accepted the new amount
func (a *DiscountApplication) MarkProviderSynced() {
	a.ProviderSynced = true
	a.Touch()
	a.IncrementVersion()
}
