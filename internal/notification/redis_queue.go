package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue keeps events on a Redis list: LPUSH on publish, BRPOP on consume, so
// ordering is FIFO and queued events outlive an API restart.
type RedisQueue struct {
	client *redis.Client
	key    string
	wait   time.Duration
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, wait: 5 * time.Second}
}

func (q *RedisQueue) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]any, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		values = append(values, b)
	}
	if err := q.client.LPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}

func (q *RedisQueue) Transactional() bool { return false }

func (q *RedisQueue) Next(ctx context.Context) (Event, error) {
	for {
		res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			return Event{}, fmt.Errorf("brpop %s: %w", q.key, err)
		}

		// res is [key, value]
		var ev Event
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
			return Event{}, fmt.Errorf("decode event: %w", err)
		}
		return ev, nil
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
