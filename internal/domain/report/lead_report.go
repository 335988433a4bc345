package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeadFunnelSummary is a read model for the lead conversion funnel
type LeadFunnelSummary struct {
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	TotalLeads     int64           `json:"total_leads"`
	NewLeads       int64           `json:"new_leads"`
	ContactedLeads int64           `json:"contacted_leads"`
	ConvertedLeads int64           `json:"converted_leads"`
	LostLeads      int64           `json:"lost_leads"`
	ConversionRate decimal.Decimal `json:"conversion_rate"` // Percentage
}

// ReferralRanking represents referral rule ranking by leads brought in
type ReferralRanking struct {
	Rank           int       `json:"rank"`
	ReferralCodeID uuid.UUID `json:"referral_code_id"`
	RuleName       string    `json:"rule_name,omitempty"`
	LeadCount      int64     `json:"lead_count"`
	ConvertedCount int64     `json:"converted_count"`
}

// LeadReportFilter defines filtering options for lead reports
type LeadReportFilter struct {
	OwnerID   uuid.UUID `json:"-"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TopN      int       `json:"top_n,omitempty"` // For rankings
}

// LeadReportRepository defines the interface for lead report queries
type LeadReportRepository interface {
	// GetLeadFunnelSummary returns the lead funnel for the period
	GetLeadFunnelSummary(ctx context.Context, filter LeadReportFilter) (*LeadFunnelSummary, error)

	// GetReferralRanking returns top N referral sources by lead count
	GetReferralRanking(ctx context.Context, filter LeadReportFilter) ([]ReferralRanking, error)
}
