package lyrics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BonusQuota gates the once-a-day anthem. Allow reports whether the user may
// take today's use and, when true, marks it as spent.
type BonusQuota interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// RedisQuota implements BonusQuota with a SET NX key that expires at the next
// UTC midnight, so the day boundary is the same for every user.
type RedisQuota struct {
	Client *redis.Client
	Now    func() time.Time
}

func NewRedisQuota(client *redis.Client) *RedisQuota {
	return &RedisQuota{Client: client, Now: time.Now}
}

func (q *RedisQuota) Allow(ctx context.Context, userID string) (bool, error) {
	now := q.Now().UTC()
	key := fmt.Sprintf("bonus:anthem:%s:%s", userID, now.Format("2006-01-02"))
	midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)

	ok, err := q.Client.SetNX(ctx, key, "1", midnight.Sub(now)).Result()
	if err != nil {
		return false, fmt.Errorf("bonus quota setnx: %w", err)
	}
	return ok, nil
}
