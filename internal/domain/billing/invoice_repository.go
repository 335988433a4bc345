package billing

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHistory summarizes a client's paid invoices. It is derived on
// demand from invoices sharing the client's email, never stored.
type PaymentHistory struct {
	PaidInvoiceCount int
	PaidTotal        decimal.Decimal
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForOwner finds an invoice by ID within an owner account
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Invoice, error)

	// FindAllForOwner finds all invoices for an owner
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// PaymentHistoryByEmail summarizes the paid invoices recorded for the
	// given client email within an owner account
	PaymentHistoryByEmail(ctx context.Context, ownerID uuid.UUID, email string) (PaymentHistory, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// Delete deletes an invoice
	Delete(ctx context.Context, id uuid.UUID) error
}
