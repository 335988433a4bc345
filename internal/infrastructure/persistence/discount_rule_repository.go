package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDiscountRuleRepository implements DiscountRuleRepository using GORM
type GormDiscountRuleRepository struct {
	db *gorm.DB
}

// NewGormDiscountRuleRepository creates a new GormDiscountRuleRepository
func NewGormDiscountRuleRepository(db *gorm.DB) *GormDiscountRuleRepository {
	return &GormDiscountRuleRepository{db: db}
}

// FindByID finds a discount rule by its ID
func (r *GormDiscountRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.DiscountRule, error) {
	var model models.DiscountRuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds a discount rule by ID within an owner account
func (r *GormDiscountRuleRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*promotion.DiscountRule, error) {
	var model models.DiscountRuleModel
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

// FindActiveForOwner returns the owner's active rules ordered for evaluation:
// highest discount value first, ties broken by creation time.
func (r *GormDiscountRuleRepository) FindActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]promotion.DiscountRule, error) {
	var ruleModels []models.DiscountRuleModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("discount_value DESC, created_at ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]promotion.DiscountRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	return rules, nil
}

// FindAllForOwner finds all discount rules for an owner account
func (r *GormDiscountRuleRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]promotion.DiscountRule, error) {
	var ruleModels []models.DiscountRuleModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.DiscountRuleModel{}).Where("owner_id = ?", ownerID),
		filter,
	)

	if err := query.Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]promotion.DiscountRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	return rules, nil
}

// Save creates or updates a discount rule. The usage count column is never
// written here; it only moves through TryIncrementUsage so concurrent
// applications cannot be overwritten by stale rule edits.
func (r *GormDiscountRuleRepository) Save(ctx context.Context, rule *promotion.DiscountRule) error {
	model := models.DiscountRuleModelFromDomain(rule)
	return r.db.WithContext(ctx).Omit("usage_count").Save(model).Error
}

// TryIncrementUsage atomically consumes one usage slot of the rule. It
// reports false when the rule's cap is already exhausted, the rule is
// inactive, or the rule does not exist.
func (r *GormDiscountRuleRepository) TryIncrementUsage(ctx context.Context, ruleID uuid.UUID) (bool, error) {
	return tryIncrementUsage(r.db.WithContext(ctx), ruleID)
}

// tryIncrementUsage runs the conditional increment on the given handle so the
// same statement can participate in an enclosing transaction.
func tryIncrementUsage(db *gorm.DB, ruleID uuid.UUID) (bool, error) {
	result := db.Model(&models.DiscountRuleModel{}).
		Where("id = ? AND is_active = ? AND (max_usage IS NULL OR usage_count < max_usage)", ruleID, true).
		Update("usage_count", gorm.Expr("usage_count + 1"))

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete deletes a discount rule
func (r *GormDiscountRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DiscountRuleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForOwner counts discount rules for an owner account
func (r *GormDiscountRuleRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.DiscountRuleModel{}).Where("owner_id = ?", ownerID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormDiscountRuleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, DiscountRuleSortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))
	} else {
		query = query.Order("discount_value DESC, created_at ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormDiscountRuleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "rule_type":
			query = query.Where("rule_type = ?", value)
		case "discount_type":
			query = query.Where("discount_type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}

	return query
}

// Ensure GormDiscountRuleRepository implements DiscountRuleRepository
var _ promotion.DiscountRuleRepository = (*GormDiscountRuleRepository)(nil)
