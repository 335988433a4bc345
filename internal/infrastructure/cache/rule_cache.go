package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/promotion"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const activeRuleKeyPrefix = "promotion:rules:active:"

// CachedDiscountRuleRepository is a read-through cache over a rule
// repository. Only the active-rule list used by eligibility evaluation is
// cached; cached usage counts are advisory, the conditional increment in
// the database remains the authority on the cap.
type CachedDiscountRuleRepository struct {
	inner  promotion.DiscountRuleRepository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewCachedDiscountRuleRepository creates a new CachedDiscountRuleRepository
func NewCachedDiscountRuleRepository(
	inner promotion.DiscountRuleRepository,
	client *redis.Client,
	ttl time.Duration,
	log *zap.Logger,
) *CachedDiscountRuleRepository {
	return &CachedDiscountRuleRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// FindByID finds a discount rule by its ID
func (r *CachedDiscountRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.DiscountRule, error) {
	return r.inner.FindByID(ctx, id)
}

// FindByIDForOwner finds a discount rule by ID within an owner account
func (r *CachedDiscountRuleRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*promotion.DiscountRule, error) {
	return r.inner.FindByIDForOwner(ctx, ownerID, id)
}

// FindActiveForOwner returns the owner's active rules, served from the
// cache when possible. Cache failures degrade to the database.
func (r *CachedDiscountRuleRepository) FindActiveForOwner(ctx context.Context, ownerID uuid.UUID) ([]promotion.DiscountRule, error) {
	key := activeRuleKey(ownerID)

	payload, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var rules []promotion.DiscountRule
		if jsonErr := json.Unmarshal(payload, &rules); jsonErr == nil {
			return rules, nil
		}
		// Corrupt entry; fall through and rebuild it
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		r.log.Warn("rule cache read failed", zap.String("key", key), zap.Error(err))
	}

	rules, err := r.inner.FindActiveForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(rules); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.log.Warn("rule cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}

	return rules, nil
}

// FindAllForOwner finds all discount rules for an owner account
func (r *CachedDiscountRuleRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]promotion.DiscountRule, error) {
	return r.inner.FindAllForOwner(ctx, ownerID, filter)
}

// Save creates or updates a discount rule and invalidates the owner's
// cached rule list
func (r *CachedDiscountRuleRepository) Save(ctx context.Context, rule *promotion.DiscountRule) error {
	if err := r.inner.Save(ctx, rule); err != nil {
		return err
	}
	r.invalidate(ctx, rule.OwnerID)
	return nil
}

// TryIncrementUsage consumes one usage slot and invalidates the owner's
// cached rule list so headroom checks see the new count soon
func (r *CachedDiscountRuleRepository) TryIncrementUsage(ctx context.Context, ruleID uuid.UUID) (bool, error) {
	ok, err := r.inner.TryIncrementUsage(ctx, ruleID)
	if err != nil || !ok {
		return ok, err
	}
	if rule, findErr := r.inner.FindByID(ctx, ruleID); findErr == nil {
		r.invalidate(ctx, rule.OwnerID)
	}
	return ok, nil
}

// Delete deletes a discount rule and invalidates the owner's cached rule list
func (r *CachedDiscountRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	rule, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, rule.OwnerID)
	return nil
}

// CountForOwner counts discount rules for an owner account
func (r *CachedDiscountRuleRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	return r.inner.CountForOwner(ctx, ownerID, filter)
}

func (r *CachedDiscountRuleRepository) invalidate(ctx context.Context, ownerID uuid.UUID) {
	key := activeRuleKey(ownerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Warn("rule cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func activeRuleKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("%s%s", activeRuleKeyPrefix, ownerID)
}

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Ensure CachedDiscountRuleRepository implements DiscountRuleRepository
var _ promotion.DiscountRuleRepository = (*CachedDiscountRuleRepository)(nil)
