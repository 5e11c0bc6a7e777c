package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/domain/types"
)

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type processedEventRepository struct {
	db *sqlx.DB
}

var _ interfaces.ProcessedEventRepository = &processedEventRepository{}

type processedEventRow struct {
	Key         string    `db:"key"`
	OwnerUserID string    `db:"owner_user_id"`
	TaskID      string    `db:"task_id"`
	ProcessedAt time.Time `db:"processed_at"`
}

func (r *processedEventRepository) Get(ctx context.Context, key model.FingerprintKey) (*model.ProcessedEvent, error) {
	var row processedEventRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM processed_events WHERE key = ?", string(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "processed event not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get processed event", goerr.V("key", key))
	}

	return &model.ProcessedEvent{
		Key:         model.FingerprintKey(row.Key),
		OwnerUserID: model.UserID(row.OwnerUserID),
		TaskID:      model.TaskID(row.TaskID),
		ProcessedAt: row.ProcessedAt,
	}, nil
}

func (r *processedEventRepository) Create(ctx context.Context, event *model.ProcessedEvent) error {
	if event == nil || event.Key == "" {
		return goerr.New("processed event key is required")
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_events (key, owner_user_id, task_id, processed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		string(event.Key), string(event.OwnerUserID), string(event.TaskID), event.ProcessedAt.UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create processed event", goerr.V("key", event.Key))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check affected rows", goerr.V("key", event.Key))
	}
	if n == 0 {
		return goerr.Wrap(ErrAlreadyExists, "processed event already exists", goerr.V("key", event.Key))
	}
	return nil
}

type taskRepository struct {
	db *sqlx.DB
}

var _ interfaces.TaskRepository = &taskRepository{}

type taskRow struct {
	ID             string     `db:"id"`
	OwnerUserID    string     `db:"owner_user_id"`
	Title          string     `db:"title"`
	Body           string     `db:"body"`
	Deadline       *time.Time `db:"deadline"`
	Status         string     `db:"status"`
	Urgency        string     `db:"urgency"`
	ImportanceSeed int        `db:"importance_seed"`
	SourceChannel  string     `db:"source_channel"`
	SourceTS       string     `db:"source_ts"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (row *taskRow) toModel() *model.Task {
	return &model.Task{
		ID:             model.TaskID(row.ID),
		OwnerUserID:    model.UserID(row.OwnerUserID),
		Title:          row.Title,
		Body:           row.Body,
		Deadline:       row.Deadline,
		Status:         types.TaskStatus(row.Status).Normalize(),
		Urgency:        types.Urgency(row.Urgency).Normalize(),
		ImportanceSeed: row.ImportanceSeed,
		SourceChannel:  row.SourceChannel,
		SourceTS:       row.SourceTS,
		CreatedAt:      row.CreatedAt,
	}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if task == nil || task.ID == "" {
		return goerr.New("task id is required")
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, owner_user_id, title, body, deadline, status, urgency,
			importance_seed, source_channel, source_ts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		string(task.ID), string(task.OwnerUserID), task.Title, task.Body, utcPtr(task.Deadline),
		task.Status.Normalize().String(), task.Urgency.String(),
		task.ImportanceSeed, task.SourceChannel, task.SourceTS, task.CreatedAt.UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create task", goerr.V("id", task.ID))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check affected rows", goerr.V("id", task.ID))
	}
	if n == 0 {
		return goerr.Wrap(ErrAlreadyExists, "task already exists", goerr.V("id", task.ID))
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id model.TaskID) (*model.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM tasks WHERE id = ?", string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", id))
	}
	return row.toModel(), nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID model.UserID) ([]*model.Task, error) {
	var rows []taskRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM tasks WHERE owner_user_id = ? ORDER BY created_at DESC, id DESC",
		string(ownerID),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks", goerr.V("owner_user_id", ownerID))
	}

	tasks := make([]*model.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toModel())
	}
	return tasks, nil
}

type deadLetterRepository struct {
	db *sqlx.DB
}

var _ interfaces.DeadLetterRepository = &deadLetterRepository{}

type deadLetterRow struct {
	ID                    string     `db:"id"`
	WebhookID             string     `db:"webhook_id"`
	OwnerUserID           string     `db:"owner_user_id"`
	WorkspaceConnectionID string     `db:"workspace_connection_id"`
	Channel               string     `db:"channel"`
	MessageTS             string     `db:"message_ts"`
	Reaction              string     `db:"reaction"`
	Actor                 string     `db:"actor"`
	Urgency               string     `db:"urgency"`
	Deadline              *time.Time `db:"deadline"`
	ImportanceSeed        int        `db:"importance_seed"`
	AcceptedAt            time.Time  `db:"accepted_at"`
	Stage                 string     `db:"stage"`
	Error                 string     `db:"error"`
	CreatedAt             time.Time  `db:"created_at"`
}

func (r *deadLetterRepository) Put(ctx context.Context, dl *model.DeadLetter) error {
	if dl == nil || dl.ID == "" {
		return goerr.New("dead letter id is required")
	}

	job := dl.Job
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dead_letters (
			id, webhook_id, owner_user_id, workspace_connection_id,
			channel, message_ts, reaction, actor,
			urgency, deadline, importance_seed, accepted_at,
			stage, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(dl.ID), string(job.WebhookID), string(job.OwnerUserID), string(job.WorkspaceConnectionID),
		job.Fingerprint.Channel, job.Fingerprint.MessageTS, job.Fingerprint.Reaction, job.Fingerprint.Actor,
		job.Urgency.String(), utcPtr(job.Deadline), job.ImportanceSeed, job.AcceptedAt.UTC(),
		dl.Stage.String(), dl.Error, dl.CreatedAt.UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put dead letter", goerr.V("id", dl.ID))
	}
	return nil
}

func (r *deadLetterRepository) List(ctx context.Context, limit int) ([]*model.DeadLetter, error) {
	query := "SELECT * FROM dead_letters ORDER BY created_at ASC, id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []deadLetterRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, goerr.Wrap(err, "failed to list dead letters")
	}

	letters := make([]*model.DeadLetter, 0, len(rows))
	for _, row := range rows {
		letters = append(letters, &model.DeadLetter{
			ID: model.DeadLetterID(row.ID),
			Job: model.EnrichmentJob{
				WebhookID:             model.WebhookID(row.WebhookID),
				OwnerUserID:           model.UserID(row.OwnerUserID),
				WorkspaceConnectionID: model.WorkspaceConnectionID(row.WorkspaceConnectionID),
				Fingerprint: model.Fingerprint{
					Channel:   row.Channel,
					MessageTS: row.MessageTS,
					Reaction:  row.Reaction,
					Actor:     row.Actor,
				},
				Urgency:        types.Urgency(row.Urgency).Normalize(),
				Deadline:       row.Deadline,
				ImportanceSeed: row.ImportanceSeed,
				AcceptedAt:     row.AcceptedAt,
			},
			Stage:     types.EnrichmentStage(row.Stage),
			Error:     row.Error,
			CreatedAt: row.CreatedAt,
		})
	}
	return letters, nil
}

func (r *deadLetterRepository) Delete(ctx context.Context, id model.DeadLetterID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM dead_letters WHERE id = ?", string(id))
	if err != nil {
		return goerr.Wrap(err, "failed to delete dead letter", goerr.V("id", id))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check affected rows", goerr.V("id", id))
	}
	if n == 0 {
		return goerr.Wrap(ErrNotFound, "dead letter not found", goerr.V("id", id))
	}
	return nil
}
