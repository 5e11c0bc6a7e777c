package interfaces

import (
	"context"

	"github.com/secmon-lab/reactask/pkg/domain/model"
)

// ProcessedEventRepository persists committed fingerprints
type ProcessedEventRepository interface {
	// Get returns ErrNotFound when the key has never been committed
	Get(ctx context.Context, key model.FingerprintKey) (*model.ProcessedEvent, error)

	// Create inserts the record. Returns ErrAlreadyExists and keeps the stored record
	// when the key is already present.
	Create(ctx context.Context, event *model.ProcessedEvent) error
}

// TaskRepository persists tasks
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id model.TaskID) (*model.Task, error)

	// ListByOwner returns the owner's tasks, newest first
	ListByOwner(ctx context.Context, ownerID model.UserID) ([]*model.Task, error)
}

// DeadLetterRepository persists failed enrichment jobs for replay
type DeadLetterRepository interface {
	Put(ctx context.Context, dl *model.DeadLetter) error

	// List returns up to limit dead letters, oldest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*model.DeadLetter, error)

	Delete(ctx context.Context, id model.DeadLetterID) error
}

// FingerprintCache is an optional secondary lookup path in front of ProcessedEventRepository.
// A miss or an error must always fall through to the primary repository.
type FingerprintCache interface {
	Get(ctx context.Context, key model.FingerprintKey) (model.TaskID, bool, error)
	Set(ctx context.Context, key model.FingerprintKey, taskID model.TaskID) error
}
