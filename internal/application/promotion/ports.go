package promotion

import (
	"context"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderGateway pushes updated invoice totals to the owner's payment
// provider (Stripe, QuickBooks). Implementations live in infrastructure.
type ProviderGateway interface {
	// UpdateInvoiceAmount reports the invoice's discounted total
	UpdateInvoiceAmount(ctx context.Context, ownerID uuid.UUID, invoice *billing.Invoice) error
}

// DiscountNotification carries everything a sender needs to tell the
// client about an applied discount
type DiscountNotification struct {
	OwnerID       uuid.UUID
	Channel       promotion.NotificationChannel
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	RuleName      string
	Savings       valueobject.Money
	FinalAmount   valueobject.Money
	InvoiceNumber string
}

// Notifier delivers client notifications over the requested channel
type Notifier interface {
	NotifyDiscount(ctx context.Context, n DiscountNotification) error
}

// AnalyticsEntry is one appended record of an applied discount
type AnalyticsEntry struct {
	OwnerID        uuid.UUID
	ApplicationID  uuid.UUID
	InvoiceID      uuid.UUID
	RuleID         uuid.UUID
	RuleType       promotion.RuleType
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	SavingsPercent decimal.Decimal
}

// AnalyticsRecorder appends discount analytics entries
type AnalyticsRecorder interface {
	RecordDiscountApplied(ctx context.Context, entry AnalyticsEntry) error
}

// Retryer runs an operation with bounded retries. Implementations decide
// which errors are worth retrying and how long to back off.
type Retryer interface {
	Do(ctx context.Context, op string, fn func(ctx context.Context) error) error
}
