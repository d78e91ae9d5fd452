package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "dhruva:cleanup:tasks"

// RedisQueue shares the queue across replicas with a Redis list: producers
// LPUSH, the worker BRPOPs.
type RedisQueue struct {
	client redis.Cmdable
	key    string
}

func NewRedisQueue(client redis.Cmdable, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal cleanup task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue cleanup task: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (Task, bool, error) {
	var raw string
	if wait <= 0 {
		v, err := q.client.RPop(ctx, q.key).Result()
		if errors.Is(err, redis.Nil) {
			return Task{}, false, nil
		}
		if err != nil {
			return Task{}, false, fmt.Errorf("dequeue cleanup task: %w", err)
		}
		raw = v
	} else {
		// BRPOP returns [key, value].
		v, err := q.client.BRPop(ctx, wait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			return Task{}, false, nil
		}
		if err != nil {
			return Task{}, false, fmt.Errorf("dequeue cleanup task: %w", err)
		}
		if len(v) != 2 {
			return Task{}, false, fmt.Errorf("unexpected BRPOP reply of length %d", len(v))
		}
		raw = v[1]
	}

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return Task{}, false, fmt.Errorf("decode cleanup task: %w", err)
	}
	return task, true, nil
}
