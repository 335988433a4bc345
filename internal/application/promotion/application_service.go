package promotion

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountApplicationService coordinates the full discount application
// flow: idempotency gate, eligibility, calculation, the atomic core
// transaction, and the best-effort side effects that follow it.
type DiscountApplicationService struct {
	invoiceRepo billing.InvoiceRepository
	leadRepo    partner.LeadRepository
	appRepo     promotion.DiscountApplicationRepository
	eligibility *EligibilityService
	provider    ProviderGateway
	notifier    Notifier
	analytics   AnalyticsRecorder
	retryer     Retryer
	events      shared.EventPublisher
	log         *zap.Logger
}

// NewDiscountApplicationService creates a new DiscountApplicationService.
// The provider gateway, notifier, analytics recorder and event publisher
// are optional; a nil dependency turns the corresponding step into a no-op.
func NewDiscountApplicationService(
	invoiceRepo billing.InvoiceRepository,
	leadRepo partner.LeadRepository,
	appRepo promotion.DiscountApplicationRepository,
	eligibility *EligibilityService,
	provider ProviderGateway,
	notifier Notifier,
	analytics AnalyticsRecorder,
	retryer Retryer,
	events shared.EventPublisher,
	log *zap.Logger,
) *DiscountApplicationService {
	if retryer == nil {
		retryer = passthroughRetryer{}
	}
	return &DiscountApplicationService{
		invoiceRepo: invoiceRepo,
		leadRepo:    leadRepo,
		appRepo:     appRepo,
		eligibility: eligibility,
		provider:    provider,
		notifier:    notifier,
		analytics:   analytics,
		retryer:     retryer,
		events:      events,
		log:         log,
	}
}

// ApplyDiscountRequest represents a request to apply a discount to an invoice
type ApplyDiscountRequest struct {
	OwnerID             uuid.UUID
	InvoiceID           uuid.UUID
	RuleID              *uuid.UUID // explicit rule, optional
	LeadID              *uuid.UUID // overrides the invoice's lead, optional
	ClientName          string
	ClientEmail         string
	ClientPhone         string
	NotificationChannel promotion.NotificationChannel // defaults to email
}

// AppliedRule describes the rule that produced the discount
type AppliedRule struct {
	ID    uuid.UUID          `json:"id"`
	Name  string             `json:"name"`
	Type  promotion.RuleType `json:"type"`
	Value decimal.Decimal    `json:"value"`
}

// ApplyDiscountResult represents the outcome of a discount application.
// Applied=false with a reason is a normal business outcome, not an error.
type ApplyDiscountResult struct {
	Applied          bool            `json:"applied"`
	Reason           string          `json:"reason,omitempty"`
	ApplicationID    uuid.UUID       `json:"application_id,omitempty"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	Savings          decimal.Decimal `json:"savings"`
	Rule             *AppliedRule    `json:"rule,omitempty"`
	ProviderUpdated  bool            `json:"provider_updated"`
	NotificationSent bool            `json:"notification_sent"`
}

// passthroughRetryer runs the operation exactly once
type passthroughRetryer struct{}

func (passthroughRetryer) Do(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// Apply runs the discount application flow for one invoice.
//
// The core write (application row, discounted invoice amount, usage cap
// consumption) happens in one transaction inside the repository. When the
// chosen rule's cap turns out to be exhausted at commit time the rule is
// dropped from the candidate set and evaluation runs again. Everything
// after the committed transaction is best-effort: provider sync, client
// notification and analytics may fail without affecting the discount.
func (s *DiscountApplicationService) Apply(ctx context.Context, req ApplyDiscountRequest) (*ApplyDiscountResult, error) {
	if req.OwnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if req.InvoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	channel := req.NotificationChannel
	if channel == "" {
		channel = promotion.NotificationChannelEmail
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown notification channel: %s", req.NotificationChannel))
	}

	invoice, err := s.invoiceRepo.FindByIDForOwner(ctx, req.OwnerID, req.InvoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	// Idempotency gate. The unique constraint on invoice_id is the real
	// arbiter under concurrency; this check just answers repeats cheaply.
	existing, err := s.appRepo.FindByInvoiceID(ctx, req.InvoiceID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if existing != nil || invoice.DiscountApplied {
		return nil, shared.ErrAlreadyApplied
	}

	lead, err := s.resolveLead(ctx, req, invoice)
	if err != nil {
		return nil, err
	}

	app, rule, err := s.applyFirstEligible(ctx, req, invoice, lead, channel)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return &ApplyDiscountResult{
			Applied:        false,
			Reason:         "no eligible rule",
			OriginalAmount: invoice.Amount,
			FinalAmount:    invoice.Amount,
		}, nil
	}

	s.publishEvents(ctx, app)

	result := &ApplyDiscountResult{
		Applied:        true,
		ApplicationID:  app.ID,
		OriginalAmount: app.OriginalAmount,
		DiscountAmount: app.DiscountAmount,
		FinalAmount:    app.FinalAmount,
		Savings:        app.Savings(),
		Rule: &AppliedRule{
			ID:    rule.ID,
			Name:  rule.Name,
			Type:  rule.RuleType,
			Value: rule.DiscountValue,
		},
	}

	// Best-effort tail. The discount is committed; failures here only
	// degrade the result flags.
	result.ProviderUpdated = s.syncProvider(ctx, req.OwnerID, invoice, app)
	result.NotificationSent = s.notifyClient(ctx, req, invoice, lead, app, rule)
	s.recordAnalytics(ctx, app, rule)

	if err := s.appRepo.UpdateDeliveryStatus(ctx, app); err != nil {
		s.log.Warn("failed to persist delivery status",
			zap.String("application_id", app.ID.String()),
			zap.Error(err))
	}

	return result, nil
}

// applyFirstEligible evaluates and commits against the first rule whose
// usage cap can actually be consumed. A rule that looks eligible but loses
// the race on its last usage slot is excluded and evaluation repeats.
func (s *DiscountApplicationService) applyFirstEligible(
	ctx context.Context,
	req ApplyDiscountRequest,
	invoice *billing.Invoice,
	lead *partner.Lead,
	channel promotion.NotificationChannel,
) (*promotion.DiscountApplication, *promotion.DiscountRule, error) {
	var exclude []uuid.UUID

	for {
		rule, err := s.eligibility.Evaluate(ctx, EvaluateRequest{
			OwnerID:       req.OwnerID,
			Lead:          lead,
			InvoiceAmount: invoice.Amount,
			RuleID:        req.RuleID,
			Exclude:       exclude,
		})
		if err != nil {
			return nil, nil, err
		}
		if rule == nil {
			return nil, nil, nil
		}

		discount := rule.Calculate(invoice.Amount)

		leadID := invoice.LeadID
		if lead != nil {
			leadID = lead.ID
		}
		app, err := promotion.NewDiscountApplication(
			req.OwnerID, invoice.ID, rule.ID, leadID,
			invoice.Amount, discount, channel,
		)
		if err != nil {
			return nil, nil, err
		}

		// Work on a copy so a usage-cap retry starts from the undiscounted
		// invoice
		attempt := *invoice
		if err := attempt.ApplyDiscount(discount); err != nil {
			return nil, nil, err
		}

		err = s.appRepo.Record(ctx, app, &attempt)
		switch {
		case err == nil:
			*invoice = attempt
			return app, rule, nil
		case errors.Is(err, shared.ErrUsageLimitReached):
			s.log.Info("rule usage cap exhausted, re-evaluating",
				zap.String("rule_id", rule.ID.String()),
				zap.String("invoice_id", invoice.ID.String()))
			exclude = append(exclude, rule.ID)
		case errors.Is(err, shared.ErrAlreadyApplied), errors.Is(err, shared.ErrAlreadyExists):
			return nil, nil, shared.ErrAlreadyApplied
		default:
			return nil, nil, fmt.Errorf("failed to record discount application: %w", err)
		}
	}
}

func (s *DiscountApplicationService) resolveLead(ctx context.Context, req ApplyDiscountRequest, invoice *billing.Invoice) (*partner.Lead, error) {
	leadID := invoice.LeadID
	if req.LeadID != nil {
		leadID = *req.LeadID
	}
	if leadID == uuid.Nil {
		return nil, nil
	}

	lead, err := s.leadRepo.FindByIDForOwner(ctx, req.OwnerID, leadID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Evaluation degrades gracefully without a lead: referral and
			// repeat-client predicates simply fail
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	return lead, nil
}

func (s *DiscountApplicationService) syncProvider(ctx context.Context, ownerID uuid.UUID, invoice *billing.Invoice, app *promotion.DiscountApplication) bool {
	if s.provider == nil {
		return false
	}

	err := s.retryer.Do(ctx, "provider_sync", func(ctx context.Context) error {
		return s.provider.UpdateInvoiceAmount(ctx, ownerID, invoice)
	})
	if err != nil {
		s.log.Warn("payment provider sync failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
		return false
	}

	app.MarkProviderSynced()
	return true
}

func (s *DiscountApplicationService) notifyClient(
	ctx context.Context,
	req ApplyDiscountRequest,
	invoice *billing.Invoice,
	lead *partner.Lead,
	app *promotion.DiscountApplication,
	rule *promotion.DiscountRule,
) bool {
	if s.notifier == nil {
		return false
	}

	name, email, phone := req.ClientName, req.ClientEmail, req.ClientPhone
	if lead != nil {
		if name == "" {
			name = lead.CustomerName
		}
		if email == "" {
			email = lead.CustomerEmail
		}
		if phone == "" {
			phone = lead.CustomerPhone
		}
	}

	// Nothing to deliver to
	if app.NotificationChannel.IncludesEmail() && email == "" && !app.NotificationChannel.IncludesWhatsApp() {
		return false
	}
	if app.NotificationChannel.IncludesWhatsApp() && phone == "" && !app.NotificationChannel.IncludesEmail() {
		return false
	}
	if email == "" && phone == "" {
		return false
	}

	savings, _ := valueobject.NewMoney(app.Savings(), invoice.Currency)
	final, _ := valueobject.NewMoney(app.FinalAmount, invoice.Currency)

	err := s.retryer.Do(ctx, "client_notification", func(ctx context.Context) error {
		return s.notifier.NotifyDiscount(ctx, DiscountNotification{
			OwnerID:       req.OwnerID,
			Channel:       app.NotificationChannel,
			ClientName:    name,
			ClientEmail:   email,
			ClientPhone:   phone,
			RuleName:      rule.Name,
			Savings:       savings,
			FinalAmount:   final,
			InvoiceNumber: invoice.InvoiceNumber,
		})
	})
	if err != nil {
		s.log.Warn("client notification failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("channel", app.NotificationChannel.String()),
			zap.Error(err))
		app.MarkNotificationFailed()
		return false
	}

	app.MarkNotificationSent()
	return true
}

func (s *DiscountApplicationService) recordAnalytics(ctx context.Context, app *promotion.DiscountApplication, rule *promotion.DiscountRule) {
	if s.analytics == nil {
		return
	}

	err := s.retryer.Do(ctx, "analytics_log", func(ctx context.Context) error {
		return s.analytics.RecordDiscountApplied(ctx, AnalyticsEntry{
			OwnerID:        app.OwnerID,
			ApplicationID:  app.ID,
			InvoiceID:      app.InvoiceID,
			RuleID:         rule.ID,
			RuleType:       rule.RuleType,
			OriginalAmount: app.OriginalAmount,
			DiscountAmount: app.DiscountAmount,
			FinalAmount:    app.FinalAmount,
			SavingsPercent: app.SavingsPercent(),
		})
	})
	if err != nil {
		s.log.Warn("analytics recording failed",
			zap.String("application_id", app.ID.String()),
			zap.Error(err))
	}
}

func (s *DiscountApplicationService) publishEvents(ctx context.Context, app *promotion.DiscountApplication) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, app.GetDomainEvents()...); err != nil {
		s.log.Warn("failed to publish domain events",
			zap.String("application_id", app.ID.String()),
			zap.Error(err))
	}
	app.ClearDomainEvents()
}

// GetApplication returns one application by ID within an owner account
func (s *DiscountApplicationService) GetApplication(ctx context.Context, ownerID, id uuid.UUID) (*promotion.DiscountApplication, error) {
	return s.appRepo.FindByIDForOwner(ctx, ownerID, id)
}

// GetApplicationByInvoice returns the application recorded for an invoice
func (s *DiscountApplicationService) GetApplicationByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) (*promotion.DiscountApplication, error) {
	app, err := s.appRepo.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	return app, nil
}
