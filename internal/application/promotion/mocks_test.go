package promotion

import (
	"context"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDiscountRuleRepository is a mock implementation of promotion.DiscountRuleRepository
type MockDiscountRuleRepository struct {
	mock.Mock
}

func (m *MockDiscountRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.DiscountRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.DiscountRule), args.Error(1)
}

func (m *MockDiscountRuleRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*promotion.DiscountRule, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.DiscountRule), args.Error(1)
}

func (m *MockDiscountRuleRepository) FindActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]promotion.DiscountRule, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]promotion.DiscountRule), args.Error(1)
}

func (m *MockDiscountRuleRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]promotion.DiscountRule, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]promotion.DiscountRule), args.Error(1)
}

func (m *MockDiscountRuleRepository) Save(ctx context.Context, rule *promotion.DiscountRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockDiscountRuleRepository) TryIncrementUsage(ctx context.Context, ruleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ruleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDiscountRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDiscountRuleRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockDiscountApplicationRepository is a mock implementation of promotion.DiscountApplicationRepository
type MockDiscountApplicationRepository struct {
	mock.Mock
}

func (m *MockDiscountApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.DiscountApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.DiscountApplication), args.Error(1)
}

func (m *MockDiscountApplicationRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*promotion.DiscountApplication, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.DiscountApplication), args.Error(1)
}

func (m *MockDiscountApplicationRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*promotion.DiscountApplication, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.DiscountApplication), args.Error(1)
}

func (m *MockDiscountApplicationRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]promotion.DiscountApplication, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]promotion.DiscountApplication), args.Error(1)
}

func (m *MockDiscountApplicationRepository) Record(ctx context.Context, app *promotion.DiscountApplication, invoice *billing.Invoice) error {
	args := m.Called(ctx, app, invoice)
	return args.Error(0)
}

func (m *MockDiscountApplicationRepository) UpdateDeliveryStatus(ctx context.Context, app *promotion.DiscountApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) PaymentHistoryByEmail(ctx context.Context, ownerID uuid.UUID, email string) (billing.PaymentHistory, error) {
	args := m.Called(ctx, ownerID, email)
	return args.Get(0).(billing.PaymentHistory), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLeadRepository is a mock implementation of partner.LeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*partner.Lead, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByEmail(ctx context.Context, ownerID uuid.UUID, email string) (*partner.Lead, error) {
	args := m.Called(ctx, ownerID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]partner.Lead, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Lead), args.Error(1)
}

func (m *MockLeadRepository) Save(ctx context.Context, lead *partner.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProviderGateway is a mock implementation of ProviderGateway
type MockProviderGateway struct {
	mock.Mock
}

func (m *MockProviderGateway) UpdateInvoiceAmount(ctx context.Context, ownerID uuid.UUID, invoice *billing.Invoice) error {
	args := m.Called(ctx, ownerID, invoice)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDiscount(ctx context.Context, n DiscountNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockAnalyticsRecorder is a mock implementation of AnalyticsRecorder
type MockAnalyticsRecorder struct {
	mock.Mock
}

func (m *MockAnalyticsRecorder) RecordDiscountApplied(ctx context.Context, entry AnalyticsEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
