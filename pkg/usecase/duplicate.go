package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

// DuplicateFilter tracks fingerprints that already produced a task.
//
// The fingerprint is committed only after the task is stored, so two concurrent
// deliveries of the same reaction can both pass Lookup. Claim keeps that to one
// enrichment per key inside this process; across processes at most one delivery
// wins Commit and the others leave an extra task behind.
type DuplicateFilter struct {
	events   interfaces.ProcessedEventRepository
	cache    interfaces.FingerprintCache
	inflight sync.Map
}

// NewDuplicateFilter creates a filter over the primary store. cache may be nil.
func NewDuplicateFilter(events interfaces.ProcessedEventRepository, cache interfaces.FingerprintCache) *DuplicateFilter {
	return &DuplicateFilter{
		events: events,
		cache:  cache,
	}
}

// Lookup returns the task id recorded for key, if any
func (f *DuplicateFilter) Lookup(ctx context.Context, key model.FingerprintKey) (model.TaskID, bool, error) {
	if f.cache != nil {
		taskID, ok, err := f.cache.Get(ctx, key)
		switch {
		case err != nil:
			logging.From(ctx).Warn("fingerprint cache lookup failed, using primary store",
				"error", err, FingerprintKey, key)
		case ok:
			return taskID, true, nil
		}
	}

	event, err := f.events.Get(ctx, key)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to look up processed event", goerr.V(FingerprintKey, key))
	}

	f.remember(ctx, key, event.TaskID)
	return event.TaskID, true, nil
}

// Commit records that event.Key produced event.TaskID. interfaces.ErrAlreadyExists
// is returned when another delivery committed first.
func (f *DuplicateFilter) Commit(ctx context.Context, event *model.ProcessedEvent) error {
	if err := f.events.Create(ctx, event); err != nil {
		return goerr.Wrap(err, "failed to commit fingerprint",
			goerr.V(FingerprintKey, event.Key), goerr.V("task_id", event.TaskID))
	}

	f.remember(ctx, event.Key, event.TaskID)
	return nil
}

func (f *DuplicateFilter) remember(ctx context.Context, key model.FingerprintKey, taskID model.TaskID) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, key, taskID); err != nil {
		logging.From(ctx).Warn("failed to update fingerprint cache", "error", err, FingerprintKey, key)
	}
}

// Claim marks key as being enriched by this process. It returns false when
// another delivery of the same key already holds the claim.
func (f *DuplicateFilter) Claim(key model.FingerprintKey) bool {
	_, loaded := f.inflight.LoadOrStore(key, struct{}{})
	return !loaded
}

// Release drops the claim on key. Releasing an unclaimed key is a no-op.
func (f *DuplicateFilter) Release(key model.FingerprintKey) {
	f.inflight.Delete(key)
}
