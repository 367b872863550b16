package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"todo-api/internal/cache"
	"todo-api/internal/models"

	"github.com/gofrs/uuid"
)

// CachedTaskService adds a Redis read-through cache for single tasks and
// statistics. Cache failures never fail a request.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
	taskTTL     time.Duration
	statsTTL    time.Duration
	log         *slog.Logger
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache, taskTTL, statsTTL time.Duration) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		taskTTL:     taskTTL,
		statsTTL:    statsTTL,
		log:         slog.Default().With("component", "task_cache"),
	}
}

func taskCacheKey(ownerID, taskID uuid.UUID) string {
	return fmt.Sprintf("task:%s:%s", ownerID, taskID)
}

func statsCacheKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("stats:%s", ownerID)
}

func (s *CachedTaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	task, err := s.taskService.Create(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, statsCacheKey(ownerID))
	return task, nil
}

func (s *CachedTaskService) List(ctx context.Context, ownerID uuid.UUID, query ListTasksQuery) ([]models.Task, *models.PageInfo, error) {
	return s.taskService.List(ctx, ownerID, query)
}

func (s *CachedTaskService) GetByID(ctx context.Context, taskID, ownerID uuid.UUID) (*models.Task, error) {
	key := taskCacheKey(ownerID, taskID)

	var cached models.Task
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache read failed", "key", key, "error", err)
	}

	task, err := s.taskService.GetByID(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, task, s.taskTTL)
	return task, nil
}

func (s *CachedTaskService) Update(ctx context.Context, taskID, ownerID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskService.Update(ctx, taskID, ownerID, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, taskCacheKey(ownerID, taskID), statsCacheKey(ownerID))
	return task, nil
}

func (s *CachedTaskService) Delete(ctx context.Context, taskID, ownerID uuid.UUID) error {
	if err := s.taskService.Delete(ctx, taskID, ownerID); err != nil {
		return err
	}

	s.invalidate(ctx, taskCacheKey(ownerID, taskID), statsCacheKey(ownerID))
	return nil
}

func (s *CachedTaskService) Statistics(ctx context.Context, ownerID uuid.UUID) (*models.TaskStatistics, error) {
	key := statsCacheKey(ownerID)

	var cached models.TaskStatistics
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache read failed", "key", key, "error", err)
	}

	stats, err := s.taskService.Statistics(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, stats, s.statsTTL)
	return stats, nil
}

func (s *CachedTaskService) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *CachedTaskService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func (s *CachedTaskService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}
