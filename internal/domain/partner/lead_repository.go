package partner

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadRepository defines the interface for lead persistence
type LeadRepository interface {
	// FindByID finds a lead by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)

	// FindByIDForOwner finds a lead by ID within an owner account
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Lead, error)

	// FindByEmail finds a lead by customer email within an owner account
	FindByEmail(ctx context.Context, ownerID uuid.UUID, email string) (*Lead, error)

	// FindAllForOwner finds all leads for an owner
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Lead, error)

	// Save creates or updates a lead
	Save(ctx context.Context, lead *Lead) error

	// Delete deletes a lead
	Delete(ctx context.Context, id uuid.UUID) error
}
