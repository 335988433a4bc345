package models

import (
	"github.com/crm/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// LeadModel is the persistence model for the Lead aggregate.
type LeadModel struct {
	OwnerAggregateModel
	CustomerName   string             `gorm:"type:varchar(200);not null"`
	CustomerEmail  string             `gorm:"type:varchar(200);index"`
	CustomerPhone  string             `gorm:"type:varchar(50)"`
	ReferralCodeID *uuid.UUID         `gorm:"type:uuid;index"`
	Status         partner.LeadStatus `gorm:"type:varchar(20);not null;default:'NEW';index"`
}

// TableName returns the table name for GORM
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts the persistence model to a domain Lead aggregate.
func (m *LeadModel) ToDomain() *partner.Lead {
	lead := &partner.Lead{
		CustomerName:   m.CustomerName,
		CustomerEmail:  m.CustomerEmail,
		CustomerPhone:  m.CustomerPhone,
		ReferralCodeID: m.ReferralCodeID,
		Status:         m.Status,
	}
	m.PopulateOwnerAggregateRoot(&lead.OwnerAggregateRoot)
	return lead
}

// FromDomain populates the persistence model from a domain Lead aggregate.
func (m *LeadModel) FromDomain(l *partner.Lead) {
	m.FromDomainOwnerAggregateRoot(l.OwnerAggregateRoot)
	m.CustomerName = l.CustomerName
	m.CustomerEmail = l.CustomerEmail
	m.CustomerPhone = l.CustomerPhone
	m.ReferralCodeID = l.ReferralCodeID
	m.Status = l.Status
}

// LeadModelFromDomain creates a new persistence model from a domain Lead.
func LeadModelFromDomain(l *partner.Lead) *LeadModel {
	m := &LeadModel{}
	m.FromDomain(l)
	return m
}
