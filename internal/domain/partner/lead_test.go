package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLead(t *testing.T) {
	ownerID := uuid.New()

	t.Run("creates lead and normalizes email", func(t *testing.T) {
		lead, err := NewLead(ownerID, "Jane Doe", "  Jane@Example.COM ", "+1-555-0100", nil)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", lead.CustomerEmail)
		assert.Equal(t, LeadStatusNew, lead.Status)
		assert.False(t, lead.HasReferralCode())
	})

	t.Run("lead with referral code", func(t *testing.T) {
		code := uuid.New()
		lead, err := NewLead(ownerID, "Jane Doe", "jane@example.com", "", &code)
		require.NoError(t, err)
		assert.True(t, lead.HasReferralCode())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewLead(ownerID, "", "jane@example.com", "", nil)
		assert.Error(t, err)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewLead(ownerID, "Jane Doe", "not-an-email", "", nil)
		assert.Error(t, err)
	})

	t.Run("email is optional", func(t *testing.T) {
		lead, err := NewLead(ownerID, "Jane Doe", "", "+1-555-0100", nil)
		require.NoError(t, err)
		assert.Empty(t, lead.CustomerEmail)
	})
}

func TestLeadUpdateContact(t *testing.T) {
	lead, err := NewLead(uuid.New(), "Jane Doe", "jane@example.com", "", nil)
	require.NoError(t, err)
	version := lead.GetVersion()

	require.NoError(t, lead.UpdateContact("Jane Smith", "JANE.SMITH@example.com", "+1-555-0101"))
	assert.Equal(t, "Jane Smith", lead.CustomerName)
	assert.Equal(t, "jane.smith@example.com", lead.CustomerEmail)
	assert.Equal(t, version+1, lead.GetVersion())

	assert.Error(t, lead.UpdateContact("", "", ""))
}

func TestLeadSetStatus(t *testing.T) {
	lead, err := NewLead(uuid.New(), "Jane Doe", "jane@example.com", "", nil)
	require.NoError(t, err)

	require.NoError(t, lead.SetStatus(LeadStatusConverted))
	assert.Equal(t, LeadStatusConverted, lead.Status)

	assert.Error(t, lead.SetStatus(LeadStatus("ON_FIRE")))
}
