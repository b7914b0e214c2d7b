package cache

import (
	"context"
	"strconv"
	"time"

	"agritrack_backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const unreadKeyPrefix = "notifications:unread:"

// UnreadCache is a per-recipient unread-count cache in front of the indexed
// DB count. unreadCount is polled by every client on an interval, so even a
// short TTL takes most of that load off Postgres.
//
// All methods are safe on a nil receiver: with no Redis configured the
// service simply falls through to the DB count.
type UnreadCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUnreadCache(addr, password string, db int, ttl time.Duration) *UnreadCache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &UnreadCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached count and whether it was present.
func (c *UnreadCache) Get(recipientID string) (int64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	ctx, cancel := c.opCtx()
	defer cancel()

	val, err := c.rdb.Get(ctx, unreadKeyPrefix+recipientID).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("unread cache get failed", "recipient_id", recipientID, "error", err.Error())
		}
		return 0, false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *UnreadCache) Set(recipientID string, count int64) {
	if c == nil || c.rdb == nil {
		return
	}
	ctx, cancel := c.opCtx()
	defer cancel()

	if err := c.rdb.Set(ctx, unreadKeyPrefix+recipientID, count, c.ttl).Err(); err != nil {
		logger.Warn("unread cache set failed", "recipient_id", recipientID, "error", err.Error())
	}
}

// Invalidate drops the cached count after any mutation that can change it.
func (c *UnreadCache) Invalidate(recipientIDs ...string) {
	if c == nil || c.rdb == nil || len(recipientIDs) == 0 {
		return
	}
	ctx, cancel := c.opCtx()
	defer cancel()

	keys := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		keys = append(keys, unreadKeyPrefix+id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("unread cache invalidate failed", "error", err.Error())
	}
}

func (c *UnreadCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Cache operations must never stall a request on a slow Redis.
func (c *UnreadCache) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 100*time.Millisecond)
}
