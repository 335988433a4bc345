package promotion

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type eligibilityFixture struct {
	ownerID     uuid.UUID
	ruleRepo    *MockDiscountRuleRepository
	invoiceRepo *MockInvoiceRepository
	svc         *EligibilityService
}

func newEligibilityFixture() *eligibilityFixture {
	f := &eligibilityFixture{
		ownerID:     uuid.New(),
		ruleRepo:    new(MockDiscountRuleRepository),
		invoiceRepo: new(MockInvoiceRepository),
	}
	f.svc = NewEligibilityService(f.ruleRepo, f.invoiceRepo)
	return f
}

func (f *eligibilityFixture) customRule(t *testing.T, name string, value int64, maxUsage *int) *promotion.DiscountRule {
	t.Helper()
	rule, err := promotion.NewDiscountRule(f.ownerID, name, promotion.RuleTypeCustom,
		promotion.DiscountTypePercentage, decimal.NewFromInt(value), promotion.Conditions{}, maxUsage, nil, nil)
	require.NoError(t, err)
	return rule
}

func TestEvaluatePicksHighestValueRule(t *testing.T) {
	f := newEligibilityFixture()
	twenty := f.customRule(t, "Custom 20%", 20, nil)
	ten := f.customRule(t, "Custom 10%", 10, nil)

	// Active rules arrive ordered by discount value descending
	f.ruleRepo.On("FindActiveForOwner", mock.Anything, f.ownerID).
		Return([]promotion.DiscountRule{*twenty, *ten}, nil)

	rule, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
		OwnerID:       f.ownerID,
		InvoiceAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, twenty.ID, rule.ID)
}

func TestEvaluateSkipsRulesWithoutHeadroom(t *testing.T) {
	f := newEligibilityFixture()
	one := 1
	exhausted := f.customRule(t, "Custom 20%", 20, &one)
	exhausted.UsageCount = 1
	fallback := f.customRule(t, "Custom 10%", 10, nil)

	f.ruleRepo.On("FindActiveForOwner", mock.Anything, f.ownerID).
		Return([]promotion.DiscountRule{*exhausted, *fallback}, nil)

	rule, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
		OwnerID:       f.ownerID,
		InvoiceAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, fallback.ID, rule.ID)
}

func TestEvaluateHonorsExclusions(t *testing.T) {
	f := newEligibilityFixture()
	first := f.customRule(t, "Custom 20%", 20, nil)
	second := f.customRule(t, "Custom 10%", 10, nil)

	f.ruleRepo.On("FindActiveForOwner", mock.Anything, f.ownerID).
		Return([]promotion.DiscountRule{*first, *second}, nil)

	rule, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
		OwnerID:       f.ownerID,
		InvoiceAmount: decimal.NewFromInt(1000),
		Exclude:       []uuid.UUID{first.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, second.ID, rule.ID)
}

func TestEvaluateReturnsNilWhenNothingMatches(t *testing.T) {
	f := newEligibilityFixture()
	referral, err := promotion.NewDiscountRule(f.ownerID, "Referral 10%", promotion.RuleTypeReferral,
		promotion.DiscountTypePercentage, decimal.NewFromInt(10), promotion.Conditions{}, nil, nil, nil)
	require.NoError(t, err)

	f.ruleRepo.On("FindActiveForOwner", mock.Anything, f.ownerID).
		Return([]promotion.DiscountRule{*referral}, nil)

	// No lead, so the referral predicate cannot pass
	rule, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
		OwnerID:       f.ownerID,
		InvoiceAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Nil(t, rule)

	f.invoiceRepo.AssertNotCalled(t, "PaymentHistoryByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateExplicitRule(t *testing.T) {
	t.Run("eligible rule is returned", func(t *testing.T) {
		f := newEligibilityFixture()
		rule := f.customRule(t, "Custom 15%", 15, nil)
		f.ruleRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, rule.ID).Return(rule, nil)

		got, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
			OwnerID:       f.ownerID,
			InvoiceAmount: decimal.NewFromInt(1000),
			RuleID:        &rule.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rule.ID, got.ID)
	})

	t.Run("unknown rule fails silently", func(t *testing.T) {
		f := newEligibilityFixture()
		ruleID := uuid.New()
		f.ruleRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, ruleID).
			Return(nil, shared.ErrNotFound)

		got, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
			OwnerID:       f.ownerID,
			InvoiceAmount: decimal.NewFromInt(1000),
			RuleID:        &ruleID,
		})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("inactive rule fails silently", func(t *testing.T) {
		f := newEligibilityFixture()
		rule := f.customRule(t, "Custom 15%", 15, nil)
		rule.Deactivate()
		f.ruleRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, rule.ID).Return(rule, nil)

		got, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
			OwnerID:       f.ownerID,
			InvoiceAmount: decimal.NewFromInt(1000),
			RuleID:        &rule.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("failing predicate fails silently", func(t *testing.T) {
		f := newEligibilityFixture()
		min := decimal.NewFromInt(2000)
		rule, err := promotion.NewDiscountRule(f.ownerID, "Custom 15%", promotion.RuleTypeCustom,
			promotion.DiscountTypePercentage, decimal.NewFromInt(15),
			promotion.Conditions{Custom: &promotion.CustomConditions{MinAmount: &min}}, nil, nil, nil)
		require.NoError(t, err)
		f.ruleRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, rule.ID).Return(rule, nil)

		got, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
			OwnerID:       f.ownerID,
			InvoiceAmount: decimal.NewFromInt(1000),
			RuleID:        &rule.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("exhausted rule fails silently", func(t *testing.T) {
		f := newEligibilityFixture()
		one := 1
		rule := f.customRule(t, "Custom 15%", 15, &one)
		rule.UsageCount = 1
		f.ruleRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, rule.ID).Return(rule, nil)

		got, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
			OwnerID:       f.ownerID,
			InvoiceAmount: decimal.NewFromInt(1000),
			RuleID:        &rule.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestEvaluateUsesPaymentHistory(t *testing.T) {
	f := newEligibilityFixture()
	lead, err := partner.NewLead(f.ownerID, "Jane Doe", "jane@example.com", "", nil)
	require.NoError(t, err)

	repeat, err := promotion.NewDiscountRule(f.ownerID, "Loyal Client 10%", promotion.RuleTypeRepeatClient,
		promotion.DiscountTypePercentage, decimal.NewFromInt(10), promotion.Conditions{}, nil, nil, nil)
	require.NoError(t, err)

	f.ruleRepo.On("FindActiveForOwner", mock.Anything, f.ownerID).
		Return([]promotion.DiscountRule{*repeat}, nil)
	f.invoiceRepo.On("PaymentHistoryByEmail", mock.Anything, f.ownerID, "jane@example.com").
		Return(billing.PaymentHistory{PaidInvoiceCount: 3, PaidTotal: decimal.NewFromInt(2400)}, nil)

	rule, err := f.svc.Evaluate(context.Background(), EvaluateRequest{
		OwnerID:       f.ownerID,
		Lead:          lead,
		InvoiceAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, repeat.ID, rule.ID)
}
