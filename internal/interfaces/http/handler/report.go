package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/report"
)

// defaultReportPeriodDays is the reporting window used when the caller
// does not pass an explicit date range.
const defaultReportPeriodDays = 30

// ReportHandler serves discount and lead report read models
type ReportHandler struct {
	BaseHandler
	discountReports report.DiscountReportRepository
	leadReports     report.LeadReportRepository
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(discountReports report.DiscountReportRepository, leadReports report.LeadReportRepository) *ReportHandler {
	return &ReportHandler{
		discountReports: discountReports,
		leadReports:     leadReports,
	}
}

// ReportPeriodRequest carries the common report query parameters.
// end_date is inclusive; the handler extends it to the end of the day.
type ReportPeriodRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	RuleID    string `form:"rule_id"`
	TopN      int    `form:"top_n" binding:"omitempty,min=1,max=100"`
}

func (r *ReportPeriodRequest) period() (start, end time.Time, err error) {
	now := time.Now().UTC()
	start = now.AddDate(0, 0, -defaultReportPeriodDays)
	end = now

	if r.StartDate != "" {
		start, err = time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if r.EndDate != "" {
		end, err = time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func (h *ReportHandler) discountFilter(c *gin.Context) (report.DiscountReportFilter, bool) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return report.DiscountReportFilter{}, false
	}

	var req ReportPeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return report.DiscountReportFilter{}, false
	}

	start, end, err := req.period()
	if err != nil {
		h.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return report.DiscountReportFilter{}, false
	}
	if !end.After(start) {
		h.BadRequest(c, "end_date must not be before start_date")
		return report.DiscountReportFilter{}, false
	}

	filter := report.DiscountReportFilter{
		OwnerID:   ownerID,
		StartDate: start,
		EndDate:   end,
		TopN:      req.TopN,
	}
	if req.RuleID != "" {
		ruleID, err := uuid.Parse(req.RuleID)
		if err != nil {
			h.BadRequest(c, "Invalid rule_id")
			return report.DiscountReportFilter{}, false
		}
		filter.RuleID = &ruleID
	}
	return filter, true
}

// DiscountSummary godoc
// @Summary      Discount summary report
// @Description  Aggregated discount statistics for a period
// @Tags         reports
// @Produce      json
// @Param        start_date query string false "Period start (YYYY-MM-DD)"
// @Param        end_date   query string false "Period end, inclusive (YYYY-MM-DD)"
// @Param        rule_id    query string false "Restrict to one discount rule"
// @Success      200 {object} APIResponse[report.DiscountSummary]
// @Router       /promotion/reports/discounts/summary [get]
func (h *ReportHandler) DiscountSummary(c *gin.Context) {
	filter, ok := h.discountFilter(c)
	if !ok {
		return
	}

	summary, err := h.discountReports.GetDiscountSummary(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to build discount summary")
		return
	}
	h.Success(c, summary)
}

// DailyDiscountTrend godoc
// @Summary      Daily discount trend
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[[]report.DailyDiscountTrend]
// @Router       /promotion/reports/discounts/daily [get]
func (h *ReportHandler) DailyDiscountTrend(c *gin.Context) {
	filter, ok := h.discountFilter(c)
	if !ok {
		return
	}

	trend, err := h.discountReports.GetDailyDiscountTrend(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to build discount trend")
		return
	}
	h.Success(c, trend)
}

// RuleUsageRanking godoc
// @Summary      Top discount rules by usage
// @Tags         reports
// @Produce      json
// @Param        top_n query int false "Ranking size, defaults to 10"
// @Success      200 {object} APIResponse[[]report.RuleUsageRanking]
// @Router       /promotion/reports/discounts/rules [get]
func (h *ReportHandler) RuleUsageRanking(c *gin.Context) {
	filter, ok := h.discountFilter(c)
	if !ok {
		return
	}

	ranking, err := h.discountReports.GetRuleUsageRanking(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to build rule ranking")
		return
	}
	h.Success(c, ranking)
}

// SavingsByRuleType godoc
// @Summary      Discount totals by rule type
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[[]report.SavingsByRuleType]
// @Router       /promotion/reports/discounts/rule-types [get]
func (h *ReportHandler) SavingsByRuleType(c *gin.Context) {
	filter, ok := h.discountFilter(c)
	if !ok {
		return
	}

	savings, err := h.discountReports.GetSavingsByRuleType(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to build savings report")
		return
	}
	h.Success(c, savings)
}

func (h *ReportHandler) leadFilter(c *gin.Context) (report.LeadReportFilter, bool) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return report.LeadReportFilter{}, false
	}

	var req ReportPeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return report.LeadReportFilter{}, false
	}

	start, end, err := req.period()
	if err != nil {
		h.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return report.LeadReportFilter{}, false
	}
	if !end.After(start) {
		h.BadRequest(c, "end_date must not be before start_date")
		return report.LeadReportFilter{}, false
	}

	return report.LeadReportFilter{
		OwnerID:   ownerID,
		StartDate: start,
		EndDate:   end,
		TopN:      req.TopN,
	}, true
}

// LeadFunnel godoc
// @Summary      Lead conversion funnel
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[report.LeadFunnelSummary]
// @Router       /partner/reports/leads/funnel [get]
func (h *ReportHandler) LeadFunnel(c *gin.Context) {
	filter, ok := h.leadFilter(c)
	if !ok {
		return
	}

	funnel, err := h.leadReports.GetLeadFunnelSummary(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to build lead funnel")
		return
	}
	h.Success(c, funnel)
}

// ReferralRanking godoc
// @Summary      Top referral sources by leads
// @Tags         reports
// @Produce      json
// @Param        top_n query int false "Ranking size, defaults to 10"
// @Success      200 {object} APIResponse[[]report.ReferralRanking]
// @Router       /partner/reports/leads/referrals [get]
func (h *ReportHandler) ReferralRanking(c *gin.Context) {
	filter, ok := h.leadFilter(c)
	if !ok {
		return
	}

	ranking, err := h.leadReports.GetReferralRanking(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "failed to build referral ranking")
		return
	}
	h.Success(c, ranking)
}
