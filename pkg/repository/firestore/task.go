package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type processedEventRepository struct {
	cols *collections
}

var _ interfaces.ProcessedEventRepository = &processedEventRepository{}

type processedEventDoc struct {
	Key         string    `firestore:"key"`
	OwnerUserID string    `firestore:"owner_user_id"`
	TaskID      string    `firestore:"task_id"`
	ProcessedAt time.Time `firestore:"processed_at"`
}

// processedEventDocID hashes the key so that Slack timestamps and channel ids
// never collide with Firestore document id restrictions
func processedEventDocID(key model.FingerprintKey) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r *processedEventRepository) collection() *firestore.CollectionRef {
	return r.cols.get(processedEventsCollection)
}

func (r *processedEventRepository) Get(ctx context.Context, key model.FingerprintKey) (*model.ProcessedEvent, error) {
	doc, err := r.collection().Doc(processedEventDocID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "processed event not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get processed event", goerr.V("key", key))
	}

	var d processedEventDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal processed event", goerr.V("key", key))
	}

	return &model.ProcessedEvent{
		Key:         model.FingerprintKey(d.Key),
		OwnerUserID: model.UserID(d.OwnerUserID),
		TaskID:      model.TaskID(d.TaskID),
		ProcessedAt: d.ProcessedAt,
	}, nil
}

func (r *processedEventRepository) Create(ctx context.Context, event *model.ProcessedEvent) error {
	if event == nil || event.Key == "" {
		return goerr.New("processed event key is required")
	}

	d := &processedEventDoc{
		Key:         string(event.Key),
		OwnerUserID: string(event.OwnerUserID),
		TaskID:      string(event.TaskID),
		ProcessedAt: event.ProcessedAt,
	}
	if _, err := r.collection().Doc(processedEventDocID(event.Key)).Create(ctx, d); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(ErrAlreadyExists, "processed event already exists", goerr.V("key", event.Key))
		}
		return goerr.Wrap(err, "failed to create processed event", goerr.V("key", event.Key))
	}
	return nil
}

type taskRepository struct {
	cols *collections
}

var _ interfaces.TaskRepository = &taskRepository{}

type taskDoc struct {
	ID             string     `firestore:"id"`
	OwnerUserID    string     `firestore:"owner_user_id"`
	Title          string     `firestore:"title"`
	Body           string     `firestore:"body"`
	Deadline       *time.Time `firestore:"deadline"`
	Status         string     `firestore:"status"`
	Urgency        string     `firestore:"urgency"`
	ImportanceSeed int        `firestore:"importance_seed"`
	SourceChannel  string     `firestore:"source_channel"`
	SourceTS       string     `firestore:"source_ts"`
	CreatedAt      time.Time  `firestore:"created_at"`
}

func taskToDoc(t *model.Task) *taskDoc {
	return &taskDoc{
		ID:             string(t.ID),
		OwnerUserID:    string(t.OwnerUserID),
		Title:          t.Title,
		Body:           t.Body,
		Deadline:       t.Deadline,
		Status:         t.Status.String(),
		Urgency:        t.Urgency.String(),
		ImportanceSeed: t.ImportanceSeed,
		SourceChannel:  t.SourceChannel,
		SourceTS:       t.SourceTS,
		CreatedAt:      t.CreatedAt,
	}
}

func taskFromDoc(d *taskDoc) *model.Task {
	return &model.Task{
		ID:             model.TaskID(d.ID),
		OwnerUserID:    model.UserID(d.OwnerUserID),
		Title:          d.Title,
		Body:           d.Body,
		Deadline:       d.Deadline,
		Status:         types.TaskStatus(d.Status).Normalize(),
		Urgency:        types.Urgency(d.Urgency).Normalize(),
		ImportanceSeed: d.ImportanceSeed,
		SourceChannel:  d.SourceChannel,
		SourceTS:       d.SourceTS,
		CreatedAt:      d.CreatedAt,
	}
}

func (r *taskRepository) collection() *firestore.CollectionRef {
	return r.cols.get(tasksCollection)
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if task == nil || task.ID == "" {
		return goerr.New("task id is required")
	}

	if _, err := r.collection().Doc(string(task.ID)).Create(ctx, taskToDoc(task)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(ErrAlreadyExists, "task already exists", goerr.V("id", task.ID))
		}
		return goerr.Wrap(err, "failed to create task", goerr.V("id", task.ID))
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id model.TaskID) (*model.Task, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", id))
	}

	var d taskDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal task", goerr.V("id", id))
	}
	return taskFromDoc(&d), nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID model.UserID) ([]*model.Task, error) {
	iter := r.collection().
		Where("owner_user_id", "==", string(ownerID)).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var tasks []*model.Task
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tasks", goerr.V("owner_user_id", ownerID))
		}

		var d taskDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal task", goerr.V("doc_id", doc.Ref.ID))
		}
		tasks = append(tasks, taskFromDoc(&d))
	}

	return tasks, nil
}

type deadLetterRepository struct {
	cols *collections
}

var _ interfaces.DeadLetterRepository = &deadLetterRepository{}

type deadLetterDoc struct {
	ID                    string     `firestore:"id"`
	WebhookID             string     `firestore:"webhook_id"`
	OwnerUserID           string     `firestore:"owner_user_id"`
	WorkspaceConnectionID string     `firestore:"workspace_connection_id"`
	Channel               string     `firestore:"channel"`
	MessageTS             string     `firestore:"message_ts"`
	Reaction              string     `firestore:"reaction"`
	Actor                 string     `firestore:"actor"`
	Urgency               string     `firestore:"urgency"`
	Deadline              *time.Time `firestore:"deadline"`
	ImportanceSeed        int        `firestore:"importance_seed"`
	AcceptedAt            time.Time  `firestore:"accepted_at"`
	Stage                 string     `firestore:"stage"`
	Error                 string     `firestore:"error"`
	CreatedAt             time.Time  `firestore:"created_at"`
}

func (r *deadLetterRepository) collection() *firestore.CollectionRef {
	return r.cols.get(deadLettersCollection)
}

func (r *deadLetterRepository) Put(ctx context.Context, dl *model.DeadLetter) error {
	if dl == nil || dl.ID == "" {
		return goerr.New("dead letter id is required")
	}

	job := dl.Job
	d := &deadLetterDoc{
		ID:                    string(dl.ID),
		WebhookID:             string(job.WebhookID),
		OwnerUserID:           string(job.OwnerUserID),
		WorkspaceConnectionID: string(job.WorkspaceConnectionID),
		Channel:               job.Fingerprint.Channel,
		MessageTS:             job.Fingerprint.MessageTS,
		Reaction:              job.Fingerprint.Reaction,
		Actor:                 job.Fingerprint.Actor,
		Urgency:               job.Urgency.String(),
		Deadline:              job.Deadline,
		ImportanceSeed:        job.ImportanceSeed,
		AcceptedAt:            job.AcceptedAt,
		Stage:                 dl.Stage.String(),
		Error:                 dl.Error,
		CreatedAt:             dl.CreatedAt,
	}
	if _, err := r.collection().Doc(string(dl.ID)).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to put dead letter", goerr.V("id", dl.ID))
	}
	return nil
}

func (r *deadLetterRepository) List(ctx context.Context, limit int) ([]*model.DeadLetter, error) {
	q := r.collection().OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var letters []*model.DeadLetter
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate dead letters")
		}

		var d deadLetterDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal dead letter", goerr.V("doc_id", doc.Ref.ID))
		}

		letters = append(letters, &model.DeadLetter{
			ID: model.DeadLetterID(d.ID),
			Job: model.EnrichmentJob{
				WebhookID:             model.WebhookID(d.WebhookID),
				OwnerUserID:           model.UserID(d.OwnerUserID),
				WorkspaceConnectionID: model.WorkspaceConnectionID(d.WorkspaceConnectionID),
				Fingerprint: model.Fingerprint{
					Channel:   d.Channel,
					MessageTS: d.MessageTS,
					Reaction:  d.Reaction,
					Actor:     d.Actor,
				},
				Urgency:        types.Urgency(d.Urgency).Normalize(),
				Deadline:       d.Deadline,
				ImportanceSeed: d.ImportanceSeed,
				AcceptedAt:     d.AcceptedAt,
			},
			Stage:     types.EnrichmentStage(d.Stage),
			Error:     d.Error,
			CreatedAt: d.CreatedAt,
		})
	}

	return letters, nil
}

func (r *deadLetterRepository) Delete(ctx context.Context, id model.DeadLetterID) error {
	ref := r.collection().Doc(string(id))
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "dead letter not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get dead letter", goerr.V("id", id))
	}
	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete dead letter", goerr.V("id", id))
	}
	return nil
}
