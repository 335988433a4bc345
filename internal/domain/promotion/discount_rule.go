package promotion

import (
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleType represents the kind of condition a discount rule evaluates
type RuleType string

const (
	RuleTypeReferral     RuleType = "referral"      // Lead arrived through a referral code
	RuleTypeRepeatClient RuleType = "repeat_client" // Lead has enough paid invoices
	RuleTypeVolume       RuleType = "volume"        // Invoice amount reaches a threshold
	RuleTypeSeasonal     RuleType = "seasonal"      // Current time is within the validity window
	RuleTypeCustom       RuleType = "custom"        // Owner-defined minimum amount rule
)

// IsValid checks if the rule type is a valid RuleType
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeReferral, RuleTypeRepeatClient, RuleTypeVolume, RuleTypeSeasonal, RuleTypeCustom:
		return true
	}
	return false
}

// String returns the string representation of RuleType
func (t RuleType) String() string {
	return string(t)
}

// DiscountType represents how the discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"   // Value is a percentage of the invoice amount
	DiscountTypeFixedAmount DiscountType = "fixed_amount" // Value is an absolute amount
)

// IsValid checks if the discount type is valid
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixedAmount
}

// String returns the string representation of DiscountType
func (t DiscountType) String() string {
	return string(t)
}

// EligibilityContext carries the facts about a lead and an invoice that
// rule predicates evaluate against
type EligibilityContext struct {
	InvoiceAmount    decimal.Decimal
	HasReferralCode  bool
	PaidInvoiceCount int
	Now              time.Time
}

// DiscountRule represents a discount rule aggregate root.
// A rule belongs to one owner, carries a typed condition set matching its
// RuleType and an optional usage cap. UsageCount is only ever advanced by
// the persistence layer through a conditional increment, never assigned
// from application code.
type DiscountRule struct {
	shared.OwnerAggregateRoot
	Name          string          `json:"name"`
	RuleType      RuleType        `json:"rule_type"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Conditions    Conditions      `json:"conditions"`
	MaxUsage      *int            `json:"max_usage"`
	UsageCount    int             `json:"usage_count"`
	IsActive      bool            `json:"is_active"`
	ValidFrom     *time.Time      `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until"`
}

// NewDiscountRule creates a new discount rule
func NewDiscountRule(
	ownerID uuid.UUID,
	name string,
	ruleType RuleType,
	discountType DiscountType,
	discountValue decimal.Decimal,
	conditions Conditions,
	maxUsage *int,
	validFrom *time.Time,
	validUntil *time.Time,
) (*DiscountRule, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_RULE_NAME", "Rule name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_RULE_NAME", "Rule name cannot exceed 100 characters")
	}
	if !ruleType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE_TYPE", fmt.Sprintf("Unknown rule type: %s", ruleType))
	}
	if !discountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_TYPE", fmt.Sprintf("Unknown discount type: %s", discountType))
	}
	if discountValue.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Discount value must be positive")
	}
	if discountType == DiscountTypePercentage && discountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Percentage discount cannot exceed 100")
	}
	if err := conditions.Validate(ruleType); err != nil {
		return nil, err
	}
	if maxUsage != nil && *maxUsage <= 0 {
		return nil, shared.NewDomainError("INVALID_MAX_USAGE", "Max usage must be positive when set")
	}
	if validFrom != nil && validUntil != nil && validUntil.Before(*validFrom) {
		return nil, shared.NewDomainError("INVALID_VALIDITY_WINDOW", "Validity window end cannot be before its start")
	}

	rule := &DiscountRule{
		OwnerAggregateRoot: shared.NewOwnerAggregateRoot(ownerID),
		Name:               name,
		RuleType:           ruleType,
		DiscountType:       discountType,
		DiscountValue:      discountValue,
		Conditions:         conditions,
		MaxUsage:           maxUsage,
		UsageCount:         0,
		IsActive:           true,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
	}

	rule.AddDomainEvent(NewDiscountRuleCreatedEvent(rule))

	return rule, nil
}

// EligibleFor evaluates the rule's type-specific predicate against the
// given context. Usage headroom is checked separately because the final
// word on usage limits belongs to the conditional increment at commit time.
func (r *DiscountRule) EligibleFor(ec EligibilityContext) bool {
	if !r.IsActive {
		return false
	}
	if ec.InvoiceAmount.LessThan(r.minAmount()) {
		return false
	}

	switch r.RuleType {
	case RuleTypeReferral:
		return ec.HasReferralCode
	case RuleTypeRepeatClient:
		return ec.PaidInvoiceCount >= r.Conditions.RepeatClient.MinOrders()
	case RuleTypeVolume:
		return true
	case RuleTypeSeasonal:
		return r.InValidityWindow(ec.Now)
	case RuleTypeCustom:
		return true
	}
	return false
}

// minAmount resolves the minimum invoice amount for this rule's type,
// falling back to the type default when the condition is unset
func (r *DiscountRule) minAmount() decimal.Decimal {
	switch r.RuleType {
	case RuleTypeReferral:
		return r.Conditions.Referral.MinAmountOrZero()
	case RuleTypeRepeatClient:
		return r.Conditions.RepeatClient.MinAmountOrZero()
	case RuleTypeVolume:
		return r.Conditions.Volume.MinAmountOrDefault()
	case RuleTypeSeasonal:
		return r.Conditions.Seasonal.MinAmountOrZero()
	case RuleTypeCustom:
		return r.Conditions.Custom.MinAmountOrZero()
	}
	return decimal.Zero
}

// InValidityWindow returns true if the given time falls within the rule's
// validity window. Both bounds are inclusive; an absent bound leaves that
// side of the window open.
func (r *DiscountRule) InValidityWindow(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

// HasUsageHeadroom returns true if the rule has not yet exhausted its
// usage cap. This is advisory; concurrent applications are arbitrated by
// the conditional usage increment in the repository.
func (r *DiscountRule) HasUsageHeadroom() bool {
	return r.MaxUsage == nil || r.UsageCount < *r.MaxUsage
}

// Calculate returns the discount amount for the given invoice amount.
// Percentage discounts are proportional; fixed discounts are clamped to the
// invoice amount so the remaining total never goes negative.
func (r *DiscountRule) Calculate(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	switch r.DiscountType {
	case DiscountTypePercentage:
		return amount.Mul(r.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountTypeFixedAmount:
		if r.DiscountValue.GreaterThan(amount) {
			return amount
		}
		return r.DiscountValue
	}
	return decimal.Zero
}

// Update changes the rule's name, discount value and conditions
func (r *DiscountRule) Update(name string, discountValue decimal.Decimal, conditions Conditions) error {
	if name == "" {
		return shared.NewDomainError("INVALID_RULE_NAME", "Rule name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_RULE_NAME", "Rule name cannot exceed 100 characters")
	}
	if discountValue.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Discount value must be positive")
	}
	if r.DiscountType == DiscountTypePercentage && discountValue.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Percentage discount cannot exceed 100")
	}
	if err := conditions.Validate(r.RuleType); err != nil {
		return err
	}

	r.Name = name
	r.DiscountValue = discountValue
	r.Conditions = conditions
	r.Touch()
	r.IncrementVersion()

	r.AddDomainEvent(NewDiscountRuleUpdatedEvent(r))

	return nil
}

// SetMaxUsage changes the usage cap. A nil cap means unlimited usage.
func (r *DiscountRule) SetMaxUsage(maxUsage *int) error {
	if maxUsage != nil && *maxUsage <= 0 {
		return shared.NewDomainError("INVALID_MAX_USAGE", "Max usage must be positive when set")
	}
	r.MaxUsage = maxUsage
	r.Touch()
	r.IncrementVersion()
	return nil
}

// SetValidityWindow changes the validity window. A nil bound leaves that
// side of the window open.
func (r *DiscountRule) SetValidityWindow(from, until *time.Time) error {
	if from != nil && until != nil && until.Before(*from) {
		return shared.NewDomainError("INVALID_VALIDITY_WINDOW", "Validity window end cannot be before its start")
	}
	r.ValidFrom = from
	r.ValidUntil = until
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Activate enables the rule for evaluation
func (r *DiscountRule) Activate() {
	if r.IsActive {
		return
	}
	r.IsActive = true
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewDiscountRuleActivatedEvent(r))
}

// Deactivate removes the rule from evaluation without deleting its history
func (r *DiscountRule) Deactivate() {
	if !r.IsActive {
		return
	}
	r.IsActive = false
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewDiscountRuleDeactivatedEvent(r))
}
