package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EligibilityService decides which discount rule, if any, applies to an
// invoice. It never mutates state; the usage cap is only reserved later,
// at commit time, by the conditional increment.
type EligibilityService struct {
	ruleRepo    promotion.DiscountRuleRepository
	invoiceRepo billing.InvoiceRepository
}

// NewEligibilityService creates a new EligibilityService
func NewEligibilityService(
	ruleRepo promotion.DiscountRuleRepository,
	invoiceRepo billing.InvoiceRepository,
) *EligibilityService {
	return &EligibilityService{
		ruleRepo:    ruleRepo,
		invoiceRepo: invoiceRepo,
	}
}

// EvaluateRequest carries the inputs of one eligibility evaluation
type EvaluateRequest struct {
	OwnerID       uuid.UUID
	Lead          *partner.Lead // nil when the invoice has no resolvable lead
	InvoiceAmount decimal.Decimal
	RuleID        *uuid.UUID  // explicit rule requested by the owner, optional
	Exclude       []uuid.UUID // rules already found exhausted during this application
}

// Evaluate returns the best eligible rule for the request, or nil when no
// rule matches. A nil rule is a business outcome, not an error.
//
// When an explicit rule is requested it is the only candidate: if it does
// not belong to the owner, is inactive or its predicate fails, the result
// is silently nil. Otherwise candidates are the owner's active rules in
// descending discount value order, ties broken by creation time, and the
// first rule whose predicate passes and that still has usage headroom wins.
func (s *EligibilityService) Evaluate(ctx context.Context, req EvaluateRequest) (*promotion.DiscountRule, error) {
	ec, err := s.buildContext(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.RuleID != nil {
		return s.evaluateExplicit(ctx, req, ec)
	}

	rules, err := s.ruleRepo.FindActiveForOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	excluded := make(map[uuid.UUID]bool, len(req.Exclude))
	for _, id := range req.Exclude {
		excluded[id] = true
	}

	for i := range rules {
		rule := &rules[i]
		if excluded[rule.ID] {
			continue
		}
		if rule.EligibleFor(ec) && rule.HasUsageHeadroom() {
			return rule, nil
		}
	}

	return nil, nil
}

func (s *EligibilityService) evaluateExplicit(ctx context.Context, req EvaluateRequest, ec promotion.EligibilityContext) (*promotion.DiscountRule, error) {
	rule, err := s.ruleRepo.FindByIDForOwner(ctx, req.OwnerID, *req.RuleID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load rule: %w", err)
	}
	if rule == nil || !rule.IsActive {
		return nil, nil
	}
	for _, id := range req.Exclude {
		if rule.ID == id {
			return nil, nil
		}
	}
	if !rule.EligibleFor(ec) || !rule.HasUsageHeadroom() {
		return nil, nil
	}
	return rule, nil
}

// buildContext derives the facts rule predicates need: referral presence
// from the lead and payment history from paid invoices sharing the lead's
// email
func (s *EligibilityService) buildContext(ctx context.Context, req EvaluateRequest) (promotion.EligibilityContext, error) {
	ec := promotion.EligibilityContext{
		InvoiceAmount: req.InvoiceAmount,
		Now:           time.Now(),
	}

	if req.Lead == nil {
		return ec, nil
	}

	ec.HasReferralCode = req.Lead.HasReferralCode()

	if req.Lead.CustomerEmail != "" {
		history, err := s.invoiceRepo.PaymentHistoryByEmail(ctx, req.OwnerID, req.Lead.CustomerEmail)
		if err != nil {
			return ec, fmt.Errorf("failed to load payment history: %w", err)
		}
		ec.PaidInvoiceCount = history.PaidInvoiceCount
	}

	return ec, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
