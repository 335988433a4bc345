package analytics

import (
	"context"
	"time"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecorder appends discount analytics rows to the database. Entries are
// append-only; nothing in the application path ever reads them back.
type GormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder creates a new GormRecorder
func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

// RecordDiscountApplied appends one analytics entry for an applied discount
func (r *GormRecorder) RecordDiscountApplied(ctx context.Context, entry apppromotion.AnalyticsEntry) error {
	model := &models.DiscountAnalyticsModel{
		ID:             uuid.New(),
		OwnerID:        entry.OwnerID,
		ApplicationID:  entry.ApplicationID,
		InvoiceID:      entry.InvoiceID,
		RuleID:         entry.RuleID,
		RuleType:       entry.RuleType,
		OriginalAmount: entry.OriginalAmount,
		DiscountAmount: entry.DiscountAmount,
		FinalAmount:    entry.FinalAmount,
		SavingsPercent: entry.SavingsPercent,
		RecordedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// Ensure GormRecorder implements AnalyticsRecorder
var _ apppromotion.AnalyticsRecorder = (*GormRecorder)(nil)
