package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	promotionapp "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/interfaces/http/dto"
)

// DiscountHandler handles discount application API endpoints
type DiscountHandler struct {
	BaseHandler
	applicationService *promotionapp.DiscountApplicationService
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(applicationService *promotionapp.DiscountApplicationService) *DiscountHandler {
	return &DiscountHandler{
		applicationService: applicationService,
	}
}

// ApplyDiscountRequest represents a request to apply a discount to an invoice
// @Description Request body for applying the best eligible discount to an invoice
type ApplyDiscountRequest struct {
	InvoiceID           string `json:"invoice_id" binding:"required,uuid" example:"9f8e1c3a-5b2d-4e6f-8a1b-2c3d4e5f6a7b"`
	RuleID              string `json:"rule_id" binding:"omitempty,uuid" example:"1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d"`
	LeadID              string `json:"lead_id" binding:"omitempty,uuid" example:"2b3c4d5e-6f7a-8b9c-0d1e-2f3a4b5c6d7e"`
	ClientName          string `json:"client_name" binding:"max=200" example:"Jane Doe"`
	ClientEmail         string `json:"client_email" binding:"omitempty,email,max=200" example:"jane@example.com"`
	ClientPhone         string `json:"client_phone" binding:"max=50" example:"+15550100100"`
	NotificationChannel string `json:"notification_channel" binding:"omitempty,oneof=email whatsapp both" example:"email"`
}

// ApplicationResponse represents a stored discount application
// @Description A discount application record
type ApplicationResponse struct {
	ID                  string          `json:"id"`
	InvoiceID           string          `json:"invoice_id"`
	DiscountRuleID      string          `json:"discount_rule_id"`
	LeadID              string          `json:"lead_id,omitempty"`
	OriginalAmount      decimal.Decimal `json:"original_amount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	FinalAmount         decimal.Decimal `json:"final_amount"`
	NotificationChannel string          `json:"notification_channel"`
	NotificationStatus  string          `json:"notification_status"`
	ClientNotifiedAt    *time.Time      `json:"client_notified_at,omitempty"`
	ProviderSynced      bool            `json:"provider_synced"`
	CreatedAt           time.Time       `json:"created_at"`
}

func toApplicationResponse(app *promotion.DiscountApplication) ApplicationResponse {
	resp := ApplicationResponse{
		ID:                  app.ID.String(),
		InvoiceID:           app.InvoiceID.String(),
		DiscountRuleID:      app.DiscountRuleID.String(),
		OriginalAmount:      app.OriginalAmount,
		DiscountAmount:      app.DiscountAmount,
		FinalAmount:         app.FinalAmount,
		NotificationChannel: string(app.NotificationChannel),
		NotificationStatus:  string(app.NotificationStatus),
		ClientNotifiedAt:    app.ClientNotifiedAt,
		ProviderSynced:      app.ProviderSynced,
		CreatedAt:           app.CreatedAt,
	}
	if app.LeadID != uuid.Nil {
		resp.LeadID = app.LeadID.String()
	}
	return resp
}

// Apply godoc
// @ID           applyDiscount
// @Summary      Apply a discount to an invoice
// @Description  Evaluates active discount rules and applies the best eligible one to the invoice. When no rule is eligible the response is 200 with success=false; an already discounted invoice is a 409.
// @Tags         discounts
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        request body ApplyDiscountRequest true "Discount application request"
// @Success      200 {object} APIResponse[promotionapp.ApplyDiscountResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/discounts/apply [post]
func (h *DiscountHandler) Apply(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var req ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := promotionapp.ApplyDiscountRequest{
		OwnerID:             ownerID,
		InvoiceID:           uuid.MustParse(req.InvoiceID),
		ClientName:          req.ClientName,
		ClientEmail:         req.ClientEmail,
		ClientPhone:         req.ClientPhone,
		NotificationChannel: promotion.NotificationChannel(req.NotificationChannel),
	}
	if req.RuleID != "" {
		ruleID := uuid.MustParse(req.RuleID)
		appReq.RuleID = &ruleID
	}
	if req.LeadID != "" {
		leadID := uuid.MustParse(req.LeadID)
		appReq.LeadID = &leadID
	}

	result, err := h.applicationService.Apply(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if !result.Applied {
		// A business outcome, not a transport failure. The envelope carries
		// the reason so clients can distinguish it from validation errors.
		c.JSON(http.StatusOK, dto.Response{
			Success: false,
			Data:    result,
			Error: &dto.ErrorInfo{
				Code:      "NO_ELIGIBLE_RULE",
				Message:   result.Reason,
				RequestID: getRequestID(c),
			},
		})
		return
	}

	h.Success(c, result)
}

// GetApplication godoc
// @ID           getDiscountApplication
// @Summary      Get a discount application
// @Description  Returns a stored discount application by its ID
// @Tags         discounts
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        id path string true "Application ID"
// @Success      200 {object} APIResponse[ApplicationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/discounts/applications/{id} [get]
func (h *DiscountHandler) GetApplication(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid application ID")
		return
	}

	app, err := h.applicationService.GetApplication(c.Request.Context(), ownerID, uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toApplicationResponse(app))
}

// GetApplicationByInvoice godoc
// @ID           getDiscountApplicationByInvoice
// @Summary      Get the discount application for an invoice
// @Description  Returns the discount application attached to the given invoice, if any
// @Tags         discounts
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID (optional for dev)"
// @Param        invoice_id path string true "Invoice ID"
// @Success      200 {object} APIResponse[ApplicationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /promotion/discounts/invoices/{invoice_id}/application [get]
func (h *DiscountHandler) GetApplicationByInvoice(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identification required")
		return
	}

	invoiceIDStr := c.Param("invoice_id")
	invoiceID, err := uuid.Parse(invoiceIDStr)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	app, err := h.applicationService.GetApplicationByInvoice(c.Request.Context(), ownerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toApplicationResponse(app))
}
