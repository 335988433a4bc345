package partner

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadStatus represents where a lead sits in the sales funnel
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusConverted LeadStatus = "CONVERTED" // Became a paying client
	LeadStatusLost      LeadStatus = "LOST"
)

// IsValid checks if the status is a valid LeadStatus
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// String returns the string representation of LeadStatus
func (s LeadStatus) String() string {
	return string(s)
}

// Lead represents a prospective or existing client.
// The client's email is the key that links a lead to its invoices; payment
// history is derived from paid invoices carrying the same email.
type Lead struct {
	shared.OwnerAggregateRoot
	CustomerName   string     `json:"customer_name"`
	CustomerEmail  string     `json:"customer_email"`
	CustomerPhone  string     `json:"customer_phone"`
	ReferralCodeID *uuid.UUID `json:"referral_code_id"`
	Status         LeadStatus `json:"status"`
}

// NewLead creates a new lead
func NewLead(ownerID uuid.UUID, customerName, customerEmail, customerPhone string, referralCodeID *uuid.UUID) (*Lead, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	customerEmail = strings.ToLower(strings.TrimSpace(customerEmail))
	if customerEmail != "" && !strings.Contains(customerEmail, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Customer email is not valid")
	}

	return &Lead{
		OwnerAggregateRoot: shared.NewOwnerAggregateRoot(ownerID),
		CustomerName:       customerName,
		CustomerEmail:      customerEmail,
		CustomerPhone:      customerPhone,
		ReferralCodeID:     referralCodeID,
		Status:             LeadStatusNew,
	}, nil
}

// HasReferralCode returns true if the lead arrived through a referral
func (l *Lead) HasReferralCode() bool {
	return l.ReferralCodeID != nil && *l.ReferralCodeID != uuid.Nil
}

// UpdateContact changes the lead's contact details
func (l *Lead) UpdateContact(name, email, phone string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Customer email is not valid")
	}

	l.CustomerName = name
	l.CustomerEmail = email
	l.CustomerPhone = phone
	l.Touch()
	l.IncrementVersion()

	return nil
}

// SetStatus moves the lead through the funnel
func (l *Lead) SetStatus(status LeadStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown lead status")
	}
	l.Status = status
	l.Touch()
	l.IncrementVersion()
	return nil
}
