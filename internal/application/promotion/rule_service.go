package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountRuleService manages the lifecycle of discount rules. Usage
// counts are out of its reach on purpose; they only move through the
// application flow.
type DiscountRuleService struct {
	ruleRepo promotion.DiscountRuleRepository
}

// NewDiscountRuleService creates a new DiscountRuleService
func NewDiscountRuleService(ruleRepo promotion.DiscountRuleRepository) *DiscountRuleService {
	return &DiscountRuleService{ruleRepo: ruleRepo}
}

// CreateRuleRequest represents a request to create a discount rule
type CreateRuleRequest struct {
	OwnerID       uuid.UUID
	Name          string
	RuleType      promotion.RuleType
	DiscountType  promotion.DiscountType
	DiscountValue decimal.Decimal
	Conditions    promotion.Conditions
	MaxUsage      *int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

// CreateRule creates and persists a new discount rule
func (s *DiscountRuleService) CreateRule(ctx context.Context, req CreateRuleRequest) (*promotion.DiscountRule, error) {
	rule, err := promotion.NewDiscountRule(
		req.OwnerID, req.Name, req.RuleType, req.DiscountType,
		req.DiscountValue, req.Conditions, req.MaxUsage,
		req.ValidFrom, req.ValidUntil,
	)
	if err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	return rule, nil
}

// UpdateRuleRequest represents a request to update a discount rule
type UpdateRuleRequest struct {
	OwnerID       uuid.UUID
	RuleID        uuid.UUID
	Name          string
	DiscountValue decimal.Decimal
	Conditions    promotion.Conditions
	MaxUsage      *int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

// UpdateRule updates an existing discount rule
func (s *DiscountRuleService) UpdateRule(ctx context.Context, req UpdateRuleRequest) (*promotion.DiscountRule, error) {
	rule, err := s.ruleRepo.FindByIDForOwner(ctx, req.OwnerID, req.RuleID)
	if err != nil {
		return nil, err
	}

	if err := rule.Update(req.Name, req.DiscountValue, req.Conditions); err != nil {
		return nil, err
	}
	if err := rule.SetMaxUsage(req.MaxUsage); err != nil {
		return nil, err
	}
	if err := rule.SetValidityWindow(req.ValidFrom, req.ValidUntil); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	return rule, nil
}

// ActivateRule enables a rule for evaluation
func (s *DiscountRuleService) ActivateRule(ctx context.Context, ownerID, ruleID uuid.UUID) (*promotion.DiscountRule, error) {
	rule, err := s.ruleRepo.FindByIDForOwner(ctx, ownerID, ruleID)
	if err != nil {
		return nil, err
	}

	rule.Activate()

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}
	return rule, nil
}

// DeactivateRule removes a rule from evaluation
func (s *DiscountRuleService) DeactivateRule(ctx context.Context, ownerID, ruleID uuid.UUID) (*promotion.DiscountRule, error) {
	rule, err := s.ruleRepo.FindByIDForOwner(ctx, ownerID, ruleID)
	if err != nil {
		return nil, err
	}

	rule.Deactivate()

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}
	return rule, nil
}

// GetRule returns one rule by ID within an owner account
func (s *DiscountRuleService) GetRule(ctx context.Context, ownerID, ruleID uuid.UUID) (*promotion.DiscountRule, error) {
	return s.ruleRepo.FindByIDForOwner(ctx, ownerID, ruleID)
}

// ListRules returns the owner's rules as a paginated result
func (s *DiscountRuleService) ListRules(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (*shared.Paginated[promotion.DiscountRule], error) {
	rules, err := s.ruleRepo.FindAllForOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	total, err := s.ruleRepo.CountForOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count rules: %w", err)
	}

	page := shared.NewPaginated(rules, total, filter.Page, filter.PageSize)
	return &page, nil
}
