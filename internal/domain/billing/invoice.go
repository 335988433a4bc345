package billing

import (
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Not yet sent to the client
	InvoiceStatusSent      InvoiceStatus = "SENT"      // Delivered, awaiting payment
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Fully paid
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Voided before payment
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// Invoice represents an invoice aggregate root.
// Its amount can be reduced by a discount at most once for its lifetime;
// afterwards the amount is what the client owes.
type Invoice struct {
	shared.OwnerAggregateRoot
	InvoiceNumber   string               `json:"invoice_number"`
	LeadID          uuid.UUID            `json:"lead_id"`
	CustomerEmail   string               `json:"customer_email"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        valueobject.Currency `json:"currency"`
	Status          InvoiceStatus        `json:"status"`
	DueDate         *time.Time           `json:"due_date"`
	DiscountApplied bool                 `json:"discount_applied"`
	PaidAt          *time.Time           `json:"paid_at"`
}

// NewInvoice creates a new invoice
func NewInvoice(
	ownerID uuid.UUID,
	invoiceNumber string,
	leadID uuid.UUID,
	customerEmail string,
	amount valueobject.Money,
	dueDate *time.Time,
) (*Invoice, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if leadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEAD", "Lead ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}

	inv := &Invoice{
		OwnerAggregateRoot: shared.NewOwnerAggregateRoot(ownerID),
		InvoiceNumber:      invoiceNumber,
		LeadID:             leadID,
		CustomerEmail:      customerEmail,
		Amount:             amount.Amount(),
		Currency:           amount.Currency(),
		Status:             InvoiceStatusDraft,
		DueDate:            dueDate,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// ApplyDiscount reduces the invoice amount by the given discount.
// An invoice can be discounted at most once for its lifetime and never
// below zero.
func (i *Invoice) ApplyDiscount(discount decimal.Decimal) error {
	if i.DiscountApplied {
		return shared.ErrAlreadyApplied
	}
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot discount invoice in %s status", i.Status))
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Discount cannot be negative")
	}
	if discount.GreaterThan(i.Amount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Discount cannot exceed the invoice amount")
	}

	i.Amount = i.Amount.Sub(discount)
	i.DiscountApplied = true
	i.Touch()
	i.IncrementVersion()

	return nil
}

// MarkSent marks the invoice as delivered to the client
func (i *Invoice) MarkSent() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", i.Status))
	}
	i.Status = InvoiceStatusSent
	i.Touch()
	i.IncrementVersion()
	return nil
}

// MarkPaid marks the invoice as fully paid
func (i *Invoice) MarkPaid() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay invoice in %s status", i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.Touch()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoicePaidEvent(i))

	return nil
}

// Cancel voids the invoice
func (i *Invoice) Cancel() error {
	if i.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", i.Status))
	}
	i.Status = InvoiceStatusCancelled
	i.Touch()
	i.IncrementVersion()
	return nil
}

// GetAmountMoney returns the invoice amount as Money
func (i *Invoice) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.Amount, i.Currency)
	return m
}

// IsPaid returns true if the invoice is fully paid
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}
