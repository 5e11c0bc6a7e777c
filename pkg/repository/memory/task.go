package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
)

type processedEventRepository struct {
	mu     sync.RWMutex
	events map[model.FingerprintKey]model.ProcessedEvent
}

var _ interfaces.ProcessedEventRepository = &processedEventRepository{}

func newProcessedEventRepository() *processedEventRepository {
	return &processedEventRepository{
		events: make(map[model.FingerprintKey]model.ProcessedEvent),
	}
}

func (r *processedEventRepository) Get(ctx context.Context, key model.FingerprintKey) (*model.ProcessedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[key]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "processed event not found", goerr.V("key", key))
	}
	return &e, nil
}

func (r *processedEventRepository) Create(ctx context.Context, event *model.ProcessedEvent) error {
	if event == nil || event.Key == "" {
		return goerr.New("processed event key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.events[event.Key]; ok {
		return goerr.Wrap(ErrAlreadyExists, "processed event already exists",
			goerr.V("key", event.Key),
			goerr.V("existing_task_id", existing.TaskID),
		)
	}
	r.events[event.Key] = *event
	return nil
}

type taskRepository struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]*model.Task
}

var _ interfaces.TaskRepository = &taskRepository{}

func newTaskRepository() *taskRepository {
	return &taskRepository{
		tasks: make(map[model.TaskID]*model.Task),
	}
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return &c
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if task == nil || task.ID == "" {
		return goerr.New("task id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; ok {
		return goerr.Wrap(ErrAlreadyExists, "task already exists", goerr.V("id", task.ID))
	}
	r.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id model.TaskID) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("id", id))
	}
	return copyTask(t), nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID model.UserID) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Task
	for _, t := range r.tasks {
		if t.OwnerUserID == ownerID {
			result = append(result, copyTask(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

type deadLetterRepository struct {
	mu      sync.RWMutex
	letters map[model.DeadLetterID]*model.DeadLetter
}

var _ interfaces.DeadLetterRepository = &deadLetterRepository{}

func newDeadLetterRepository() *deadLetterRepository {
	return &deadLetterRepository{
		letters: make(map[model.DeadLetterID]*model.DeadLetter),
	}
}

func (r *deadLetterRepository) Put(ctx context.Context, dl *model.DeadLetter) error {
	if dl == nil || dl.ID == "" {
		return goerr.New("dead letter id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := *dl
	r.letters[dl.ID] = &c
	return nil
}

func (r *deadLetterRepository) List(ctx context.Context, limit int) ([]*model.DeadLetter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.DeadLetter, 0, len(r.letters))
	for _, dl := range r.letters {
		c := *dl
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *deadLetterRepository) Delete(ctx context.Context, id model.DeadLetterID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.letters[id]; !ok {
		return goerr.Wrap(ErrNotFound, "dead letter not found", goerr.V("id", id))
	}
	delete(r.letters, id)
	return nil
}
