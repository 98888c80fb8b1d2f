package cache

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	vo "chatfleet/internal/domain/subscription/valueobjects"
	"chatfleet/internal/shared/logger"
)

const (
	limitsKeyPrefix = "company:limits:"

	fieldChatbots      = "max_chatbots"
	fieldConversations = "max_conversations"
	fieldMessages      = "max_messages"
	fieldAPICalls      = "max_api_calls"
	fieldStorageMB     = "max_storage_mb"
)

// RedisQuotaCache caches per-company plan limits in a Redis hash. TTL is
// jittered to avoid a stampede when many keys expire together.
type RedisQuotaCache struct {
	client    *redis.Client
	baseTTL   time.Duration
	ttlJitter time.Duration
	logger    logger.Interface
}

func NewRedisQuotaCache(client *redis.Client, ttl time.Duration, logger logger.Interface) *RedisQuotaCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisQuotaCache{
		client:    client,
		baseTTL:   ttl,
		ttlJitter: ttl / 3,
		logger:    logger,
	}
}

func (c *RedisQuotaCache) key(companyID uint) string {
	return fmt.Sprintf("%s%d", limitsKeyPrefix, companyID)
}

func (c *RedisQuotaCache) ttl() time.Duration {
	if c.ttlJitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + rand.N(c.ttlJitter)
}

// GetLimits retrieves the company's cached plan limits. The second return is
// false on a cache miss.
func (c *RedisQuotaCache) GetLimits(ctx context.Context, companyID uint) (*vo.PlanLimits, bool, error) {
	result, err := c.client.HGetAll(ctx, c.key(companyID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get limits from cache: %w", err)
	}
	if len(result) == 0 {
		return nil, false, nil
	}

	parse := func(field string) int64 {
		v, _ := strconv.ParseInt(result[field], 10, 64)
		return v
	}

	limits := &vo.PlanLimits{
		MaxChatbots:              parse(fieldChatbots),
		MaxConversationsPerMonth: parse(fieldConversations),
		MaxMessagesPerMonth:      parse(fieldMessages),
		MaxAPICallsPerMonth:      parse(fieldAPICalls),
		MaxStorageMB:             parse(fieldStorageMB),
	}
	return limits, true, nil
}

// SetLimits stores the company's plan limits with a jittered TTL.
func (c *RedisQuotaCache) SetLimits(ctx context.Context, companyID uint, limits vo.PlanLimits) error {
	key := c.key(companyID)

	fields := map[string]interface{}{
		fieldChatbots:      limits.MaxChatbots,
		fieldConversations: limits.MaxConversationsPerMonth,
		fieldMessages:      limits.MaxMessagesPerMonth,
		fieldAPICalls:      limits.MaxAPICallsPerMonth,
		fieldStorageMB:     limits.MaxStorageMB,
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, c.ttl())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set limits in cache: %w", err)
	}

	c.logger.Debugw("plan limits cached", "company_id", companyID)
	return nil
}

// Invalidate drops the cached limits after a plan or subscription change.
func (c *RedisQuotaCache) Invalidate(ctx context.Context, companyID uint) error {
	if err := c.client.Del(ctx, c.key(companyID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate limits cache: %w", err)
	}
	c.logger.Debugw("plan limits cache invalidated", "company_id", companyID)
	return nil
}
