package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	promotionapp "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
)

// RuleHandler handles discount rule API endpoints
type RuleHandler struct {
	BaseHandler
	ruleService *promotionapp.DiscountRuleService
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(ruleService *promotionapp.DiscountRuleService) *RuleHandler {
	return &RuleHandler{
		ruleService: ruleService,
	}
}

// CreateRuleRequest represents a request to create a discount rule
// @Description Request body for creating a discount rule
type CreateRuleRequest struct {
	Name          string               `json:"name" binding:"required,min=1,max=200" example:"Referral Reward"`
	RuleType      string               `json:"rule_type" binding:"required,oneof=referral repeat_client volume seasonal custom" example:"referral"`
	DiscountType  string               `json:"discount_type" binding:"required,oneof=percentage fixed_amount" example:"percentage"`
	DiscountValue decimal.Decimal      `json:"discount_value" binding:"required" example:"10"`
	Conditions    promotion.Conditions `json:"conditions"`
	MaxUsage      *int                 `json:"max_usage" binding:"omitempty,min=1" example:"100"`
	ValidFrom     *time.Time           `json:"valid_from"`
	ValidUntil    *time.Time           `json:"valid_until"`
}

// UpdateRuleRequest represents a request to update a discount rule
// @Description Request body for updating a discount rule
type UpdateRuleRequest struct {
	Name          string               `json:"name" binding:"required,min=1,max=200" example:"Referral Reward"`
	DiscountValue decimal.Decimal      `json:"discount_value" binding:"required" example:"15"`
	Conditions    promotion.Conditions `json:"conditions"`
	MaxUsage      *int                 `json:"max_usage" binding:"omitempty,min=1" example:"100"`
	ValidFrom     *time.Time           `json:"valid_from"`
	ValidUntil    *time.Time           `json:"valid_until"`
}

// ListRulesRequest represents query parameters for listing discount rules
type ListRulesRequest struct {
	dto.ListRequest
	RuleType string `form:"rule_type" binding:"omitempty,oneof=referral repeat_client volume seasonal custom"`
	IsActive *bool  `form:"is_active"`
}

// RuleResponse represents a discount rule
// @Description A discount rule
type RuleResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	RuleType      string               `json:"rule_type"`
	DiscountType  string               `json:"discount_type"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	Conditions    promotion.Conditions `json:"conditions"`
	MaxUsage      *int                 `json:"max_usage,omitempty"`
	UsageCount    int                  `json:"usage_count"`
	IsActive      bool                 `json:"is_active"`
	ValidFrom     *time.Time           `json:"valid_from,omitempty"`
	ValidUntil    *time.Time           `json:"valid_until,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toRuleResponse(rule *promotion.DiscountRule) RuleResponse {
	return RuleResponse{
		ID:            rule.ID.String(),
		Name:          rule.Name,
		RuleType:      string(rule.RuleType),
		DiscountType:  string(rule.DiscountType),
		DiscountValue: rule.DiscountValue,
		Conditions:    rule.Conditions,
		MaxUsage:      rule.MaxUsage,
		UsageCount:    rule.UsageCount,
		IsActive:      rule.IsActive,
		ValidFrom:     rule.ValidFrom,
		ValidUntil:    rule.ValidUntil,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}
}

// Create godoc
// @ID           createDiscountRule
// @Summary      Create a discount rule
// @Description  Create a new discount rule for the owner account
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        request body CreateRuleRequest true "Rule creation request"
// @Success      201 {object} APIResponse[RuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), promotionapp.CreateRuleRequest{
		OwnerID:       ownerID,
		Name:          req.Name,
		RuleType:      promotion.RuleType(req.RuleType),
		DiscountType:  promotion.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		Conditions:    req.Conditions,
		MaxUsage:      req.MaxUsage,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toRuleResponse(rule))
}

// Update godoc
// @ID           updateDiscountRule
// @Summary      Update a discount rule
// @Description  Update the name, value, conditions, usage cap, or validity window of a rule
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        id path string true "Rule ID"
// @Param        request body UpdateRuleRequest true "Rule update request"
// @Success      200 {object} APIResponse[RuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/rules/{id} [put]
func (h *RuleHandler) Update(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), promotionapp.UpdateRuleRequest{
		OwnerID:       ownerID,
		RuleID:        uuid.MustParse(idReq.ID),
		Name:          req.Name,
		DiscountValue: req.DiscountValue,
		Conditions:    req.Conditions,
		MaxUsage:      req.MaxUsage,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}

// Get godoc
// @ID           getDiscountRule
// @Summary      Get a discount rule
// @Description  Returns a discount rule by its ID
// @Tags         rules
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        id path string true "Rule ID"
// @Success      200 {object} APIResponse[RuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/rules/{id} [get]
func (h *RuleHandler) Get(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), ownerID, uuid.MustParse(idReq.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}

// List godoc
// @ID           listDiscountRules
// @Summary      List discount rules
// @Description  Returns a paginated list of discount rules for the owner account
// @Tags         rules
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        rule_type query string false "Filter by rule type"
// @Param        is_active query bool false "Filter by active state"
// @Success      200 {object} APIResponse[[]RuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	req := ListRulesRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	if req.RuleType != "" {
		filter.Filters["rule_type"] = req.RuleType
	}
	if req.IsActive != nil {
		filter.Filters["is_active"] = *req.IsActive
	}

	page, err := h.ruleService.ListRules(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]RuleResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toRuleResponse(&page.Items[i]))
	}

	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// Activate godoc
// @ID           activateDiscountRule
// @Summary      Activate a discount rule
// @Description  Makes the rule eligible for evaluation
// @Tags         rules
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        id path string true "Rule ID"
// @Success      200 {object} APIResponse[RuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/rules/{id}/activate [post]
func (h *RuleHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate godoc
// @ID           deactivateDiscountRule
// @Summary      Deactivate a discount rule
// @Description  Excludes the rule from evaluation without deleting it
// @Tags         rules
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        id path string true "Rule ID"
// @Success      200 {object} APIResponse[RuleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/rules/{id}/deactivate [post]
func (h *RuleHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *RuleHandler) setActive(c *gin.Context, active bool) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	ruleID := uuid.MustParse(idReq.ID)
	var rule *promotion.DiscountRule
	if active {
		rule, err = h.ruleService.ActivateRule(c.Request.Context(), ownerID, ruleID)
	} else {
		rule, err = h.ruleService.DeactivateRule(c.Request.Context(), ownerID, ruleID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}
