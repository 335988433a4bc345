package promotion

import (
	"context"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DiscountRuleRepository defines the interface for discount rule persistence
type DiscountRuleRepository interface {
	// FindByID finds a rule by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*DiscountRule, error)

	// FindByIDForOwner finds a rule by ID within an owner account
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*DiscountRule, error)

	// FindActiveForOwner returns the owner's active rules ordered by
	// discount value descending, ties broken by creation time ascending
	FindActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]DiscountRule, error)

	// FindAllForOwner finds all rules for an owner
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]DiscountRule, error)

	// Save creates or updates a rule. UsageCount is never written by Save;
	// it only moves through TryIncrementUsage.
	Save(ctx context.Context, rule *DiscountRule) error

	// TryIncrementUsage atomically increments the rule's usage count while
	// it is still below its cap. Returns false without error when the cap
	// is exhausted (no row matched).
	TryIncrementUsage(ctx context.Context, ruleID uuid.UUID) (bool, error)

	// Delete deletes a rule
	Delete(ctx context.Context, id uuid.UUID) error

	// CountForOwner counts rules for an owner
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)
}

// DiscountApplicationRepository defines the interface for discount application persistence
type DiscountApplicationRepository interface {
	// FindByID finds an application by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*DiscountApplication, error)

	// FindByIDForOwner finds an application by ID within an owner account
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*DiscountApplication, error)

	// FindByInvoiceID finds the application for an invoice, if any
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*DiscountApplication, error)

	// FindAllForOwner finds all applications for an owner
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]DiscountApplication, error)

	// Record persists a discount application atomically: it inserts the
	// application row, writes the invoice's discounted amount and consumes
	// one unit of the rule's usage cap, all in one transaction.
	// Returns shared.ErrAlreadyApplied when the invoice already carries an
	// application (unique constraint on invoice_id) and
	// shared.ErrUsageLimitReached when the rule's cap is exhausted; in both
	// cases nothing is persisted.
	Record(ctx context.Context, app *DiscountApplication, invoice *billing.Invoice) error

	// UpdateDeliveryStatus persists the notification and provider sync
	// fields after the best-effort side effects have run
	UpdateDeliveryStatus(ctx context.Context, app *DiscountApplication) error
}
