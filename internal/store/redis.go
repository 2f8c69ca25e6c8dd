package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rvallejo/pinboard/internal/task"
)

// tasksKey is the well-known storage name for the persisted task collection.
const tasksKey = "pinboard:tasks"

// RedisBackend persists the task collection as a Redis hash keyed by task id,
// written through on every mutation.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(addr string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) Load(ctx context.Context) ([]task.Task, error) {
	taskMap, err := b.client.HGetAll(ctx, tasksKey).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]task.Task, 0, len(taskMap))
	for _, taskJSON := range taskMap {
		t, err := task.FromJSON(taskJSON)
		if err != nil {
			continue
		}
		tasks = append(tasks, *t)
	}

	return tasks, nil
}

func (b *RedisBackend) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if err := b.set(ctx, t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (b *RedisBackend) Update(ctx context.Context, t task.Task) (task.Task, error) {
	if err := b.set(ctx, t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.client.HDel(ctx, tasksKey, id).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) set(ctx context.Context, t task.Task) error {
	taskJSON, err := t.ToJSON()
	if err != nil {
		return err
	}
	return b.client.HSet(ctx, tasksKey, t.ID, taskJSON).Err()
}
