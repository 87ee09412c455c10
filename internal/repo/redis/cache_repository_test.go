package redis

import (
	"context"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Требуется Redis на localhost:6379, иначе тесты пропускаются.
const testRedisAddr = "localhost:6379"

// countingRepository считает обращения к списку.
type countingRepository struct {
	*memory.TaskRepository
	lists int
}

func (r *countingRepository) GetManyFiltered(ctx context.Context, filter entity.Filter) ([]*entity.Task, error) {
	r.lists++
	return r.TaskRepository.GetManyFiltered(ctx, filter)
}

func setupTestCache(t *testing.T) (*CacheRepository, *countingRepository) {
	t.Helper()

	client := NewClient(testRedisAddr, "", 0)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cleanupKeys(ctx, client)
	t.Cleanup(func() {
		cleanupKeys(ctx, client)
		client.Close()
	})

	next := &countingRepository{TaskRepository: memory.NewTaskRepository()}
	return NewCacheRepository(next, client, time.Minute), next
}

func cleanupKeys(ctx context.Context, client *redis.Client) {
	for _, f := range entity.Filters() {
		client.Del(ctx, cacheKey(f))
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "todo:tasks:filter:OnlyToday", cacheKey(entity.FilterOnlyToday))
	assert.Equal(t, "todo:tasks:filter:All", cacheKey(entity.FilterAll))
}

func TestCacheRepository_ListIsCached(t *testing.T) {
	cache, next := setupTestCache(t)
	ctx := context.Background()

	task := entity.NewTask(time.Now().Add(time.Hour), "cached", nil)
	require.NoError(t, cache.Create(ctx, task))

	first, err := cache.GetManyFiltered(ctx, entity.FilterAll)
	require.NoError(t, err)
	second, err := cache.GetManyFiltered(ctx, entity.FilterAll)
	require.NoError(t, err)

	assert.Equal(t, 1, next.lists)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID(), second[0].ID())
	assert.True(t, first[0].CreatedAt().Equal(second[0].CreatedAt()))
}

func TestCacheRepository_WriteInvalidates(t *testing.T) {
	cache, next := setupTestCache(t)
	ctx := context.Background()

	task := entity.NewTask(time.Now().Add(time.Hour), "task", nil)
	require.NoError(t, cache.Create(ctx, task))
	_, err := cache.GetManyFiltered(ctx, entity.FilterAll)
	require.NoError(t, err)

	task.MarkAsDone()
	require.NoError(t, cache.Update(ctx, task))

	tasks, err := cache.GetManyFiltered(ctx, entity.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, 2, next.lists)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].IsDone())

	require.NoError(t, cache.Delete(ctx, task))
	tasks, err = cache.GetManyFiltered(ctx, entity.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCacheRepository_FailedWriteKeepsCache(t *testing.T) {
	cache, next := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.GetManyFiltered(ctx, entity.FilterOnlyToday)
	require.NoError(t, err)

	missing := entity.NewTask(time.Now(), "missing", nil)
	assert.ErrorIs(t, cache.Update(ctx, missing), entity.ErrTaskNotFound)

	_, err = cache.GetManyFiltered(ctx, entity.FilterOnlyToday)
	require.NoError(t, err)
	assert.Equal(t, 1, next.lists)
}

func TestCacheRepository_RedisDownFallsBackToStore(t *testing.T) {
	// На этом порту никто не слушает.
	client := NewClient("127.0.0.1:1", "", 0)
	t.Cleanup(func() { client.Close() })

	next := &countingRepository{TaskRepository: memory.NewTaskRepository()}
	cache := NewCacheRepository(next, client, time.Minute)
	ctx := context.Background()

	require.Error(t, cache.Ping(ctx))

	task := entity.NewTask(time.Now().Add(time.Hour), "no redis", nil)
	require.NoError(t, cache.Create(ctx, task))

	for i := 0; i < 2; i++ {
		tasks, err := cache.GetManyFiltered(ctx, entity.FilterAll)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID(), tasks[0].ID())
	}
	assert.Equal(t, 2, next.lists)

	task.MarkAsDone()
	require.NoError(t, cache.Update(ctx, task))
	require.NoError(t, cache.Delete(ctx, task))
	assert.Equal(t, 0, next.Count())
}
