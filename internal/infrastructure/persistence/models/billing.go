package models

import (
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	OwnerAggregateModel
	InvoiceNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_owner_number,priority:2"`
	LeadID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerEmail   string                `gorm:"type:varchar(200);index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency        string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Status          billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	DueDate         *time.Time            `gorm:""`
	DiscountApplied bool                  `gorm:"not null;default:false"`
	PaidAt          *time.Time            `gorm:""`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber:   m.InvoiceNumber,
		LeadID:          m.LeadID,
		CustomerEmail:   m.CustomerEmail,
		Amount:          m.Amount,
		Currency:        valueobject.Currency(m.Currency),
		Status:          m.Status,
		DueDate:         m.DueDate,
		DiscountApplied: m.DiscountApplied,
		PaidAt:          m.PaidAt,
	}
	m.PopulateOwnerAggregateRoot(&inv.OwnerAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.FromDomainOwnerAggregateRoot(i.OwnerAggregateRoot)
	m.InvoiceNumber = i.InvoiceNumber
	m.LeadID = i.LeadID
	m.CustomerEmail = i.CustomerEmail
	m.Amount = i.Amount
	m.Currency = string(i.Currency)
	m.Status = i.Status
	m.DueDate = i.DueDate
	m.DiscountApplied = i.DiscountApplied
	m.PaidAt = i.PaidAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}
