package promotion

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Default condition values applied when the owner leaves a field unset
var (
	defaultMinPreviousOrders = 2
	defaultVolumeMinAmount   = decimal.NewFromInt(5000)
)

// ReferralConditions gates referral rules
type ReferralConditions struct {
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
}

// MinAmountOrZero returns the minimum invoice amount, zero when unset
func (c *ReferralConditions) MinAmountOrZero() decimal.Decimal {
	if c == nil || c.MinAmount == nil {
		return decimal.Zero
	}
	return *c.MinAmount
}

// RepeatClientConditions gates repeat-client rules
type RepeatClientConditions struct {
	MinAmount         *decimal.Decimal `json:"min_amount,omitempty"`
	MinPreviousOrders *int             `json:"min_previous_orders,omitempty"`
}

// MinAmountOrZero returns the minimum invoice amount, zero when unset
func (c *RepeatClientConditions) MinAmountOrZero() decimal.Decimal {
	if c == nil || c.MinAmount == nil {
		return decimal.Zero
	}
	return *c.MinAmount
}

// MinOrders returns the required number of previously paid invoices
func (c *RepeatClientConditions) MinOrders() int {
	if c == nil || c.MinPreviousOrders == nil {
		return defaultMinPreviousOrders
	}
	return *c.MinPreviousOrders
}

// VolumeConditions gates volume rules
type VolumeConditions struct {
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
}

// MinAmountOrDefault returns the volume threshold, falling back to the
// system default when unset
func (c *VolumeConditions) MinAmountOrDefault() decimal.Decimal {
	if c == nil || c.MinAmount == nil {
		return defaultVolumeMinAmount
	}
	return *c.MinAmount
}

// SeasonalConditions gates seasonal rules. The validity window itself lives
// on the rule; conditions only carry the optional amount floor.
type SeasonalConditions struct {
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
}

// MinAmountOrZero returns the minimum invoice amount, zero when unset
func (c *SeasonalConditions) MinAmountOrZero() decimal.Decimal {
	if c == nil || c.MinAmount == nil {
		return decimal.Zero
	}
	return *c.MinAmount
}

// CustomConditions gates custom rules
type CustomConditions struct {
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
}

// MinAmountOrZero returns the minimum invoice amount, zero when unset
func (c *CustomConditions) MinAmountOrZero() decimal.Decimal {
	if c == nil || c.MinAmount == nil {
		return decimal.Zero
	}
	return *c.MinAmount
}

// Conditions is a tagged union of per-type condition sets. At most the
// variant matching the rule's type may be populated; every variant is
// optional because each field has a default. Stored as JSONB.
type Conditions struct {
	Referral     *ReferralConditions     `json:"referral,omitempty"`
	RepeatClient *RepeatClientConditions `json:"repeat_client,omitempty"`
	Volume       *VolumeConditions       `json:"volume,omitempty"`
	Seasonal     *SeasonalConditions     `json:"seasonal,omitempty"`
	Custom       *CustomConditions       `json:"custom,omitempty"`
}

// Validate checks that only the variant matching the rule type is set and
// that the set fields are sensible
func (c Conditions) Validate(ruleType RuleType) error {
	variants := map[RuleType]bool{
		RuleTypeReferral:     c.Referral != nil,
		RuleTypeRepeatClient: c.RepeatClient != nil,
		RuleTypeVolume:       c.Volume != nil,
		RuleTypeSeasonal:     c.Seasonal != nil,
		RuleTypeCustom:       c.Custom != nil,
	}
	for t, set := range variants {
		if set && t != ruleType {
			return shared.NewDomainError("INVALID_CONDITIONS", fmt.Sprintf("Conditions for %s do not match rule type %s", t, ruleType))
		}
	}

	if min := c.minAmountField(ruleType); min != nil && min.IsNegative() {
		return shared.NewDomainError("INVALID_CONDITIONS", "Minimum amount cannot be negative")
	}
	if c.RepeatClient != nil && c.RepeatClient.MinPreviousOrders != nil && *c.RepeatClient.MinPreviousOrders < 0 {
		return shared.NewDomainError("INVALID_CONDITIONS", "Minimum previous orders cannot be negative")
	}

	return nil
}

func (c Conditions) minAmountField(ruleType RuleType) *decimal.Decimal {
	switch ruleType {
	case RuleTypeReferral:
		if c.Referral != nil {
			return c.Referral.MinAmount
		}
	case RuleTypeRepeatClient:
		if c.RepeatClient != nil {
			return c.RepeatClient.MinAmount
		}
	case RuleTypeVolume:
		if c.Volume != nil {
			return c.Volume.MinAmount
		}
	case RuleTypeSeasonal:
		if c.Seasonal != nil {
			return c.Seasonal.MinAmount
		}
	case RuleTypeCustom:
		if c.Custom != nil {
			return c.Custom.MinAmount
		}
	}
	return nil
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c Conditions) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *Conditions) Scan(value interface{}) error {
	if value == nil {
		*c = Conditions{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Conditions: unsupported type")
	}

	if len(bytes) == 0 {
		*c = Conditions{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}
