package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crm/backend/internal/domain/promotion"
)

// DiscountSummary is a read model for aggregated discount statistics
// over a reporting period. This is a CQRS read model optimized for querying.
type DiscountSummary struct {
	PeriodStart         time.Time       `json:"period_start"`
	PeriodEnd           time.Time       `json:"period_end"`
	TotalApplications   int64           `json:"total_applications"`
	TotalOriginalAmount decimal.Decimal `json:"total_original_amount"`
	TotalDiscountAmount decimal.Decimal `json:"total_discount_amount"`
	TotalFinalAmount    decimal.Decimal `json:"total_final_amount"`
	AvgDiscountAmount   decimal.Decimal `json:"avg_discount_amount"`
	AvgDiscountRate     decimal.Decimal `json:"avg_discount_rate"` // Percentage of original amount
}

// DailyDiscountTrend represents daily discount application trend data
type DailyDiscountTrend struct {
	Date             time.Time       `json:"date"`
	ApplicationCount int64           `json:"application_count"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
}

// RuleUsageRanking represents discount rule ranking by usage
type RuleUsageRanking struct {
	Rank                int                    `json:"rank"`
	RuleID              uuid.UUID              `json:"rule_id"`
	RuleName            string                 `json:"rule_name"`
	RuleType            promotion.RuleType     `json:"rule_type"`
	DiscountType        promotion.DiscountType `json:"discount_type"`
	ApplicationCount    int64                  `json:"application_count"`
	TotalDiscountAmount decimal.Decimal        `json:"total_discount_amount"`
}

// SavingsByRuleType represents discount totals grouped by rule type
type SavingsByRuleType struct {
	RuleType            promotion.RuleType `json:"rule_type"`
	ApplicationCount    int64              `json:"application_count"`
	TotalDiscountAmount decimal.Decimal    `json:"total_discount_amount"`
}

// DiscountReportFilter defines filtering options for discount reports
type DiscountReportFilter struct {
	OwnerID   uuid.UUID  `json:"-"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	RuleID    *uuid.UUID `json:"rule_id,omitempty"`
	TopN      int        `json:"top_n,omitempty"` // For rankings
}

// DiscountReportRepository defines the interface for discount report queries
type DiscountReportRepository interface {
	// GetDiscountSummary returns aggregated discount statistics for the period
	GetDiscountSummary(ctx context.Context, filter DiscountReportFilter) (*DiscountSummary, error)

	// GetDailyDiscountTrend returns daily discount application trend data
	GetDailyDiscountTrend(ctx context.Context, filter DiscountReportFilter) ([]DailyDiscountTrend, error)

	// GetRuleUsageRanking returns top N rules by application count
	GetRuleUsageRanking(ctx context.Context, filter DiscountReportFilter) ([]RuleUsageRanking, error)

	// GetSavingsByRuleType returns discount totals grouped by rule type
	GetSavingsByRuleType(ctx context.Context, filter DiscountReportFilter) ([]SavingsByRuleType, error)
}
