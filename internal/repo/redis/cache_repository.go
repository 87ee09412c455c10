package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "todo:tasks:filter:"

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// CacheRepository кэширует списки задач по фильтрам поверх другого хранилища.
// Любая запись сбрасывает все списки. Окна фильтров сдвигаются со временем,
// поэтому TTL должен быть коротким. Ошибки Redis не ломают запрос: хранилище отвечает напрямую.
type CacheRepository struct {
	next   usecase.TaskRepository
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCacheRepository(next usecase.TaskRepository, client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Log,
	}
}

func (c *CacheRepository) Create(ctx context.Context, task *entity.Task) error {
	if err := c.next.Create(ctx, task); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CacheRepository) Update(ctx context.Context, task *entity.Task) error {
	if err := c.next.Update(ctx, task); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CacheRepository) Delete(ctx context.Context, task *entity.Task) error {
	if err := c.next.Delete(ctx, task); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CacheRepository) GetOne(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return c.next.GetOne(ctx, id)
}

func (c *CacheRepository) GetOneReadonly(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return c.next.GetOneReadonly(ctx, id)
}

func (c *CacheRepository) GetManyFiltered(ctx context.Context, filter entity.Filter) ([]*entity.Task, error) {
	if tasks, ok := c.getTasks(ctx, filter); ok {
		return tasks, nil
	}

	tasks, err := c.next.GetManyFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.setTasks(ctx, filter, tasks)
	return tasks, nil
}

// Ping проверяет подключение к Redis
func (c *CacheRepository) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func cacheKey(filter entity.Filter) string {
	return keyPrefix + filter.String()
}

func (c *CacheRepository) getTasks(ctx context.Context, filter entity.Filter) ([]*entity.Task, bool) {
	data, err := c.client.Get(ctx, cacheKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	} else if err != nil {
		c.warn("GetManyFiltered", filter, err, "Failed to read tasks from cache")
		return nil, false
	}

	var states []entity.TaskState
	if err := json.Unmarshal(data, &states); err != nil {
		c.warn("GetManyFiltered", filter, err, "Failed to decode cached tasks")
		return nil, false
	}

	tasks := make([]*entity.Task, 0, len(states))
	for _, s := range states {
		tasks = append(tasks, entity.RestoreTask(s))
	}
	return tasks, true
}

func (c *CacheRepository) setTasks(ctx context.Context, filter entity.Filter, tasks []*entity.Task) {
	states := make([]entity.TaskState, 0, len(tasks))
	for _, t := range tasks {
		states = append(states, t.State())
	}

	data, err := json.Marshal(states)
	if err != nil {
		c.warn("GetManyFiltered", filter, err, "Failed to encode tasks for cache")
		return
	}
	if err := c.client.Set(ctx, cacheKey(filter), data, c.ttl).Err(); err != nil {
		c.warn("GetManyFiltered", filter, err, "Failed to set tasks in cache")
	}
}

func (c *CacheRepository) invalidate(ctx context.Context) {
	filters := entity.Filters()
	keys := make([]string, 0, len(filters))
	for _, f := range filters {
		keys = append(keys, cacheKey(f))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithField("method", "invalidate").WithError(err).Error("Failed to invalidate cache")
	}
}

func (c *CacheRepository) warn(method string, filter entity.Filter, err error, msg string) {
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"filter": filter.String(),
	}).WithError(err).Warn(msg)
}
