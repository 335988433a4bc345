package persistence

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormLeadRepository_SaveAndFind(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewGormLeadRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()

	code := uuid.New()
	lead, err := partner.NewLead(ownerID, "Jane Doe", "Jane@Example.com", "+1-555-0100", &code)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, lead))

	t.Run("finds by ID for owner", func(t *testing.T) {
		found, err := repo.FindByIDForOwner(ctx, ownerID, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", found.CustomerName)
		assert.True(t, found.HasReferralCode())
	})

	t.Run("finds by normalized email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, ownerID, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, lead.ID, found.ID)
	})

	t.Run("owner scoping hides foreign leads", func(t *testing.T) {
		_, err := repo.FindByIDForOwner(ctx, uuid.New(), lead.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists for owner", func(t *testing.T) {
		leads, err := repo.FindAllForOwner(ctx, ownerID, shared.Filter{})
		require.NoError(t, err)
		assert.Len(t, leads, 1)
	})
}
