package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/report"
)

const defaultRankingSize = 10

// GormDiscountReportRepository implements DiscountReportRepository with
// aggregate queries over the discount application rows. Reports are read
// models; nothing here goes through the domain aggregates.
type GormDiscountReportRepository struct {
	db *gorm.DB
}

// NewGormDiscountReportRepository creates a new GormDiscountReportRepository
func NewGormDiscountReportRepository(db *gorm.DB) *GormDiscountReportRepository {
	return &GormDiscountReportRepository{db: db}
}

func (r *GormDiscountReportRepository) baseQuery(ctx context.Context, filter report.DiscountReportFilter) *gorm.DB {
	// Columns are qualified because some report queries join discount_rules,
	// which shares the owner_id and created_at column names.
	query := r.db.WithContext(ctx).
		Table("discount_applications").
		Where("discount_applications.owner_id = ?", filter.OwnerID).
		Where("discount_applications.created_at >= ? AND discount_applications.created_at < ?",
			filter.StartDate, filter.EndDate)
	if filter.RuleID != nil {
		query = query.Where("discount_applications.discount_rule_id = ?", *filter.RuleID)
	}
	return query
}

// GetDiscountSummary returns aggregated discount statistics for the period
func (r *GormDiscountReportRepository) GetDiscountSummary(ctx context.Context, filter report.DiscountReportFilter) (*report.DiscountSummary, error) {
	var row struct {
		TotalApplications   int64
		TotalOriginalAmount decimal.Decimal
		TotalDiscountAmount decimal.Decimal
		TotalFinalAmount    decimal.Decimal
	}

	err := r.baseQuery(ctx, filter).
		Select(`COUNT(*) AS total_applications,
			COALESCE(SUM(original_amount), 0) AS total_original_amount,
			COALESCE(SUM(discount_amount), 0) AS total_discount_amount,
			COALESCE(SUM(final_amount), 0) AS total_final_amount`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &report.DiscountSummary{
		PeriodStart:         filter.StartDate,
		PeriodEnd:           filter.EndDate,
		TotalApplications:   row.TotalApplications,
		TotalOriginalAmount: row.TotalOriginalAmount,
		TotalDiscountAmount: row.TotalDiscountAmount,
		TotalFinalAmount:    row.TotalFinalAmount,
	}
	if row.TotalApplications > 0 {
		summary.AvgDiscountAmount = row.TotalDiscountAmount.
			Div(decimal.NewFromInt(row.TotalApplications)).Round(4)
	}
	if row.TotalOriginalAmount.IsPositive() {
		summary.AvgDiscountRate = row.TotalDiscountAmount.
			Div(row.TotalOriginalAmount).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	return summary, nil
}

// GetDailyDiscountTrend returns daily discount application trend data
func (r *GormDiscountReportRepository) GetDailyDiscountTrend(ctx context.Context, filter report.DiscountReportFilter) ([]report.DailyDiscountTrend, error) {
	var rows []struct {
		Day              string
		ApplicationCount int64
		DiscountAmount   decimal.Decimal
		FinalAmount      decimal.Decimal
	}

	// Grouping on the text form of the timestamp keeps the query portable
	// between PostgreSQL and the SQLite driver used in tests.
	err := r.baseQuery(ctx, filter).
		Select(`substr(CAST(created_at AS varchar), 1, 10) AS day,
			COUNT(*) AS application_count,
			COALESCE(SUM(discount_amount), 0) AS discount_amount,
			COALESCE(SUM(final_amount), 0) AS final_amount`).
		Group("substr(CAST(created_at AS varchar), 1, 10)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	trend := make([]report.DailyDiscountTrend, 0, len(rows))
	for _, row := range rows {
		day, err := time.Parse("2006-01-02", row.Day)
		if err != nil {
			return nil, err
		}
		trend = append(trend, report.DailyDiscountTrend{
			Date:             day,
			ApplicationCount: row.ApplicationCount,
			DiscountAmount:   row.DiscountAmount,
			FinalAmount:      row.FinalAmount,
		})
	}
	return trend, nil
}

// GetRuleUsageRanking returns top N rules by application count
func (r *GormDiscountReportRepository) GetRuleUsageRanking(ctx context.Context, filter report.DiscountReportFilter) ([]report.RuleUsageRanking, error) {
	topN := filter.TopN
	if topN <= 0 {
		topN = defaultRankingSize
	}

	var rows []struct {
		RuleID              uuid.UUID
		RuleName            string
		RuleType            promotion.RuleType
		DiscountType        promotion.DiscountType
		ApplicationCount    int64
		TotalDiscountAmount decimal.Decimal
	}

	err := r.baseQuery(ctx, filter).
		Select(`discount_rules.id AS rule_id,
			discount_rules.name AS rule_name,
			discount_rules.rule_type AS rule_type,
			discount_rules.discount_type AS discount_type,
			COUNT(discount_applications.id) AS application_count,
			COALESCE(SUM(discount_applications.discount_amount), 0) AS total_discount_amount`).
		Joins("JOIN discount_rules ON discount_rules.id = discount_applications.discount_rule_id").
		Group("discount_rules.id, discount_rules.name, discount_rules.rule_type, discount_rules.discount_type").
		Order("application_count DESC, total_discount_amount DESC").
		Limit(topN).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranking := make([]report.RuleUsageRanking, len(rows))
	for i, row := range rows {
		ranking[i] = report.RuleUsageRanking{
			Rank:                i + 1,
			RuleID:              row.RuleID,
			RuleName:            row.RuleName,
			RuleType:            row.RuleType,
			DiscountType:        row.DiscountType,
			ApplicationCount:    row.ApplicationCount,
			TotalDiscountAmount: row.TotalDiscountAmount,
		}
	}
	return ranking, nil
}

// GetSavingsByRuleType returns discount totals grouped by rule type
func (r *GormDiscountReportRepository) GetSavingsByRuleType(ctx context.Context, filter report.DiscountReportFilter) ([]report.SavingsByRuleType, error) {
	var rows []struct {
		RuleType            promotion.RuleType
		ApplicationCount    int64
		TotalDiscountAmount decimal.Decimal
	}

	err := r.baseQuery(ctx, filter).
		Select(`discount_rules.rule_type AS rule_type,
			COUNT(discount_applications.id) AS application_count,
			COALESCE(SUM(discount_applications.discount_amount), 0) AS total_discount_amount`).
		Joins("JOIN discount_rules ON discount_rules.id = discount_applications.discount_rule_id").
		Group("discount_rules.rule_type").
		Order("total_discount_amount DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	savings := make([]report.SavingsByRuleType, len(rows))
	for i, row := range rows {
		savings[i] = report.SavingsByRuleType{
			RuleType:            row.RuleType,
			ApplicationCount:    row.ApplicationCount,
			TotalDiscountAmount: row.TotalDiscountAmount,
		}
	}
	return savings, nil
}

// GormLeadReportRepository implements LeadReportRepository with aggregate
// queries over the lead rows.
type GormLeadReportRepository struct {
	db *gorm.DB
}

// NewGormLeadReportRepository creates a new GormLeadReportRepository
func NewGormLeadReportRepository(db *gorm.DB) *GormLeadReportRepository {
	return &GormLeadReportRepository{db: db}
}

// GetLeadFunnelSummary returns the lead funnel for the period
func (r *GormLeadReportRepository) GetLeadFunnelSummary(ctx context.Context, filter report.LeadReportFilter) (*report.LeadFunnelSummary, error) {
	var row struct {
		TotalLeads     int64
		NewLeads       int64
		ContactedLeads int64
		ConvertedLeads int64
		LostLeads      int64
	}

	err := r.db.WithContext(ctx).
		Table("leads").
		Where("owner_id = ?", filter.OwnerID).
		Where("created_at >= ? AND created_at < ?", filter.StartDate, filter.EndDate).
		Select(`COUNT(*) AS total_leads,
			SUM(CASE WHEN status = 'NEW' THEN 1 ELSE 0 END) AS new_leads,
			SUM(CASE WHEN status = 'CONTACTED' THEN 1 ELSE 0 END) AS contacted_leads,
			SUM(CASE WHEN status = 'CONVERTED' THEN 1 ELSE 0 END) AS converted_leads,
			SUM(CASE WHEN status = 'LOST' THEN 1 ELSE 0 END) AS lost_leads`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &report.LeadFunnelSummary{
		PeriodStart:    filter.StartDate,
		PeriodEnd:      filter.EndDate,
		TotalLeads:     row.TotalLeads,
		NewLeads:       row.NewLeads,
		ContactedLeads: row.ContactedLeads,
		ConvertedLeads: row.ConvertedLeads,
		LostLeads:      row.LostLeads,
	}
	if row.TotalLeads > 0 {
		summary.ConversionRate = decimal.NewFromInt(row.ConvertedLeads).
			Div(decimal.NewFromInt(row.TotalLeads)).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	return summary, nil
}

// GetReferralRanking returns top N referral sources by lead count
func (r *GormLeadReportRepository) GetReferralRanking(ctx context.Context, filter report.LeadReportFilter) ([]report.ReferralRanking, error) {
	topN := filter.TopN
	if topN <= 0 {
		topN = defaultRankingSize
	}

	var rows []struct {
		ReferralCodeID uuid.UUID
		RuleName       string
		LeadCount      int64
		ConvertedCount int64
	}

	err := r.db.WithContext(ctx).
		Table("leads").
		Where("leads.owner_id = ?", filter.OwnerID).
		Where("leads.created_at >= ? AND leads.created_at < ?", filter.StartDate, filter.EndDate).
		Where("leads.referral_code_id IS NOT NULL").
		Select(`leads.referral_code_id AS referral_code_id,
			COALESCE(discount_rules.name, '') AS rule_name,
			COUNT(leads.id) AS lead_count,
			SUM(CASE WHEN leads.status = 'CONVERTED' THEN 1 ELSE 0 END) AS converted_count`).
		Joins("LEFT JOIN discount_rules ON discount_rules.id = leads.referral_code_id").
		Group("leads.referral_code_id, discount_rules.name").
		Order("lead_count DESC, converted_count DESC").
		Limit(topN).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranking := make([]report.ReferralRanking, len(rows))
	for i, row := range rows {
		ranking[i] = report.ReferralRanking{
			Rank:           i + 1,
			ReferralCodeID: row.ReferralCodeID,
			RuleName:       row.RuleName,
			LeadCount:      row.LeadCount,
			ConvertedCount: row.ConvertedCount,
		}
	}
	return ranking, nil
}
