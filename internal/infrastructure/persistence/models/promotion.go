package models

import (
	"time"

	"github.com/crm/backend/internal/domain/promotion"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountRuleModel is the persistence model for the DiscountRule aggregate.
type DiscountRuleModel struct {
	OwnerAggregateModel
	Name          string                 `gorm:"type:varchar(100);not null"`
	RuleType      promotion.RuleType     `gorm:"type:varchar(20);not null;index"`
	DiscountType  promotion.DiscountType `gorm:"type:varchar(20);not null"`
	DiscountValue decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Conditions    promotion.Conditions   `gorm:"type:jsonb"`
	MaxUsage      *int                   `gorm:""`
	UsageCount    int                    `gorm:"not null;default:0"`
	IsActive      bool                   `gorm:"not null;default:true;index"`
	ValidFrom     *time.Time             `gorm:""`
	ValidUntil    *time.Time             `gorm:""`
}

// TableName returns the table name for GORM
func (DiscountRuleModel) TableName() string {
	return "discount_rules"
}

// ToDomain converts the persistence model to a domain DiscountRule aggregate.
func (m *DiscountRuleModel) ToDomain() *promotion.DiscountRule {
	rule := &promotion.DiscountRule{
		Name:          m.Name,
		RuleType:      m.RuleType,
		DiscountType:  m.DiscountType,
		DiscountValue: m.DiscountValue,
		Conditions:    m.Conditions,
		MaxUsage:      m.MaxUsage,
		UsageCount:    m.UsageCount,
		IsActive:      m.IsActive,
		ValidFrom:     m.ValidFrom,
		ValidUntil:    m.ValidUntil,
	}
	m.PopulateOwnerAggregateRoot(&rule.OwnerAggregateRoot)
	return rule
}

// FromDomain populates the persistence model from a domain DiscountRule aggregate.
func (m *DiscountRuleModel) FromDomain(r *promotion.DiscountRule) {
	m.FromDomainOwnerAggregateRoot(r.OwnerAggregateRoot)
	m.Name = r.Name
	m.RuleType = r.RuleType
	m.DiscountType = r.DiscountType
	m.DiscountValue = r.DiscountValue
	m.Conditions = r.Conditions
	m.MaxUsage = r.MaxUsage
	m.UsageCount = r.UsageCount
	m.IsActive = r.IsActive
	m.ValidFrom = r.ValidFrom
	m.ValidUntil = r.ValidUntil
}

// DiscountRuleModelFromDomain creates a new persistence model from a domain DiscountRule.
func DiscountRuleModelFromDomain(r *promotion.DiscountRule) *DiscountRuleModel {
	m := &DiscountRuleModel{}
	m.FromDomain(r)
	return m
}

// DiscountApplicationModel is the persistence model for the DiscountApplication
// aggregate. The unique index on invoice_id is the idempotency anchor: at most
// one discount per invoice, enforced by the database.
type DiscountApplicationModel struct {
	OwnerAggregateModel
	InvoiceID           uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_discount_application_invoice"`
	DiscountRuleID      uuid.UUID                     `gorm:"type:uuid;not null;index"`
	LeadID              uuid.UUID                     `gorm:"type:uuid;index"`
	OriginalAmount      decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	DiscountAmount      decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	FinalAmount         decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	NotificationChannel promotion.NotificationChannel `gorm:"type:varchar(20);not null;default:'email'"`
	NotificationStatus  promotion.NotificationStatus  `gorm:"type:varchar(20);not null;default:'none'"`
	ClientNotifiedAt    *time.Time                    `gorm:""`
	ProviderSynced      bool                          `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (DiscountApplicationModel) TableName() string {
	return "discount_applications"
}

// ToDomain converts the persistence model to a domain DiscountApplication aggregate.
func (m *DiscountApplicationModel) ToDomain() *promotion.DiscountApplication {
	app := &promotion.DiscountApplication{
		InvoiceID:           m.InvoiceID,
		DiscountRuleID:      m.DiscountRuleID,
		LeadID:              m.LeadID,
		OriginalAmount:      m.OriginalAmount,
		DiscountAmount:      m.DiscountAmount,
		FinalAmount:         m.FinalAmount,
		NotificationChannel: m.NotificationChannel,
		NotificationStatus:  m.NotificationStatus,
		ClientNotifiedAt:    m.ClientNotifiedAt,
		ProviderSynced:      m.ProviderSynced,
	}
	m.PopulateOwnerAggregateRoot(&app.OwnerAggregateRoot)
	return app
}

// FromDomain populates the persistence model from a domain DiscountApplication aggregate.
func (m *DiscountApplicationModel) FromDomain(a *promotion.DiscountApplication) {
	m.FromDomainOwnerAggregateRoot(a.OwnerAggregateRoot)
	m.InvoiceID = a.InvoiceID
	m.DiscountRuleID = a.DiscountRuleID
	m.LeadID = a.LeadID
	m.OriginalAmount = a.OriginalAmount
	m.DiscountAmount = a.DiscountAmount
	m.FinalAmount = a.FinalAmount
	m.NotificationChannel = a.NotificationChannel
	m.NotificationStatus = a.NotificationStatus
	m.ClientNotifiedAt = a.ClientNotifiedAt
	m.ProviderSynced = a.ProviderSynced
}

// DiscountApplicationModelFromDomain creates a new persistence model from a
// domain DiscountApplication.
func DiscountApplicationModelFromDomain(a *promotion.DiscountApplication) *DiscountApplicationModel {
	m := &DiscountApplicationModel{}
	m.FromDomain(a)
	return m
}

// DiscountAnalyticsModel is an append-only record of applied discounts used
// for reporting. It has no domain aggregate behind it.
type DiscountAnalyticsModel struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key"`
	OwnerID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	ApplicationID  uuid.UUID          `gorm:"type:uuid;not null"`
	InvoiceID      uuid.UUID          `gorm:"type:uuid;not null"`
	RuleID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	RuleType       promotion.RuleType `gorm:"type:varchar(20);not null"`
	OriginalAmount decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	FinalAmount    decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	SavingsPercent decimal.Decimal    `gorm:"type:decimal(8,4);not null"`
	RecordedAt     time.Time          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DiscountAnalyticsModel) TableName() string {
	return "discount_analytics"
}
