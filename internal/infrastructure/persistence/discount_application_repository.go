package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDiscountApplicationRepository implements DiscountApplicationRepository using GORM
type GormDiscountApplicationRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormDiscountApplicationRepository creates a new GormDiscountApplicationRepository
func NewGormDiscountApplicationRepository(db *gorm.DB) *GormDiscountApplicationRepository {
	return &GormDiscountApplicationRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormDiscountApplicationRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a discount application by its ID
func (r *GormDiscountApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.DiscountApplication, error) {
	var model models.DiscountApplicationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds a discount application by ID within an owner account
func (r *GormDiscountApplicationRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*promotion.DiscountApplication, error) {
	var model models.DiscountApplicationModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceID finds the discount application recorded for an invoice
func (r *GormDiscountApplicationRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*promotion.DiscountApplication, error) {
	var model models.DiscountApplicationModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner finds all discount applications for an owner account
func (r *GormDiscountApplicationRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]promotion.DiscountApplication, error) {
	var appModels []models.DiscountApplicationModel
	query := r.db.WithContext(ctx).
		Model(&models.DiscountApplicationModel{}).
		Where("owner_id = ?", ownerID)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, DiscountApplicationSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if err := query.Find(&appModels).Error; err != nil {
		return nil, err
	}

	apps := make([]promotion.DiscountApplication, len(appModels))
	for i := range appModels {
		apps[i] = *appModels[i].ToDomain()
	}
	return apps, nil
}

// Record commits the core of a discount application in one transaction:
// the application row, the discounted invoice, and one usage slot of the
// rule. The unique index on invoice_id turns a concurrent double apply
// into ErrAlreadyApplied; a lost race on the rule's last usage slot
// surfaces as ErrUsageLimitReached with nothing written.
func (r *GormDiscountApplicationRepository) Record(ctx context.Context, app *promotion.DiscountApplication, invoice *billing.Invoice) error {
	events := app.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := tryIncrementUsage(tx, app.DiscountRuleID)
		if err != nil {
			return err
		}
		if !consumed {
			return shared.ErrUsageLimitReached
		}

		appModel := models.DiscountApplicationModelFromDomain(app)
		if err := tx.Create(appModel).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrAlreadyApplied
			}
			return err
		}

		invoiceModel := models.InvoiceModelFromDomain(invoice)
		if err := tx.Save(invoiceModel).Error; err != nil {
			return err
		}

		// Save events to the outbox within the same transaction
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Once events sit in the outbox, the processor owns delivery; clearing
	// them keeps the caller's direct publish from sending duplicates.
	if r.outboxSaver != nil {
		app.ClearDomainEvents()
	}
	return nil
}

// UpdateDeliveryStatus persists the post-commit delivery flags: provider
// sync and client notification state.
func (r *GormDiscountApplicationRepository) UpdateDeliveryStatus(ctx context.Context, app *promotion.DiscountApplication) error {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountApplicationModel{}).
		Where("id = ?", app.ID).
		Updates(map[string]interface{}{
			"notification_status": app.NotificationStatus,
			"client_notified_at":  app.ClientNotifiedAt,
			"provider_synced":     app.ProviderSynced,
			"updated_at":          app.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether the error comes from a violated unique
// constraint. Matches both the postgres and sqlite drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// Ensure GormDiscountApplicationRepository implements DiscountApplicationRepository
var _ promotion.DiscountApplicationRepository = (*GormDiscountApplicationRepository)(nil)
