package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/repository/memory"
	"github.com/secmon-lab/reactask/pkg/usecase"
)

func TestDuplicateFilter(t *testing.T) {
	ctx := context.Background()
	key := model.Fingerprint{Channel: "C1", MessageTS: "111.1", Reaction: "fire", Actor: "U1"}.Key()

	t.Run("miss then commit then hit", func(t *testing.T) {
		repo := memory.New()
		filter := usecase.NewDuplicateFilter(repo.ProcessedEvent(), nil)

		_, found, err := filter.Lookup(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, found).False()

		gt.NoError(t, filter.Commit(ctx, &model.ProcessedEvent{
			Key: key, OwnerUserID: testOwnerID, TaskID: "task-1", ProcessedAt: time.Now(),
		})).Required()

		taskID, found, err := filter.Lookup(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, found).True()
		gt.Value(t, taskID).Equal(model.TaskID("task-1"))
	})

	t.Run("second commit reports ErrAlreadyExists", func(t *testing.T) {
		repo := memory.New()
		filter := usecase.NewDuplicateFilter(repo.ProcessedEvent(), nil)

		gt.NoError(t, filter.Commit(ctx, &model.ProcessedEvent{Key: key, TaskID: "task-1"})).Required()
		err := filter.Commit(ctx, &model.ProcessedEvent{Key: key, TaskID: "task-2"})
		gt.Error(t, err).Is(interfaces.ErrAlreadyExists)

		taskID, _, err := filter.Lookup(ctx, key)
		gt.NoError(t, err).Required()
		gt.Value(t, taskID).Equal(model.TaskID("task-1"))
	})

	t.Run("cache hit short-circuits the primary store", func(t *testing.T) {
		repo := memory.New()
		cache := newMockFingerprintCache()
		gt.NoError(t, cache.Set(ctx, key, "cached-task")).Required()
		filter := usecase.NewDuplicateFilter(repo.ProcessedEvent(), cache)

		taskID, found, err := filter.Lookup(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, found).True()
		gt.Value(t, taskID).Equal(model.TaskID("cached-task"))
	})

	t.Run("cache error falls through to the primary store", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.ProcessedEvent().Create(ctx, &model.ProcessedEvent{Key: key, TaskID: "primary-task"})).Required()
		cache := newMockFingerprintCache()
		cache.getErr = errors.New("connection refused")
		filter := usecase.NewDuplicateFilter(repo.ProcessedEvent(), cache)

		taskID, found, err := filter.Lookup(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, found).True()
		gt.Value(t, taskID).Equal(model.TaskID("primary-task"))
	})

	t.Run("primary hit backfills the cache", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.ProcessedEvent().Create(ctx, &model.ProcessedEvent{Key: key, TaskID: "primary-task"})).Required()
		cache := newMockFingerprintCache()
		filter := usecase.NewDuplicateFilter(repo.ProcessedEvent(), cache)

		_, found, err := filter.Lookup(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, found).True()

		cached, ok, err := cache.Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
		gt.Value(t, cached).Equal(model.TaskID("primary-task"))
	})

	t.Run("commit populates the cache", func(t *testing.T) {
		repo := memory.New()
		cache := newMockFingerprintCache()
		filter := usecase.NewDuplicateFilter(repo.ProcessedEvent(), cache)

		gt.NoError(t, filter.Commit(ctx, &model.ProcessedEvent{Key: key, TaskID: "task-1"})).Required()

		cached, ok, err := cache.Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
		gt.Value(t, cached).Equal(model.TaskID("task-1"))
	})
}
