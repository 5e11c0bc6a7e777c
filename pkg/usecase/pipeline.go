package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/domain/types"
	slacksvc "github.com/secmon-lab/reactask/pkg/service/slack"
	"github.com/secmon-lab/reactask/pkg/service/title"
	"github.com/secmon-lab/reactask/pkg/utils/errutil"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

// EnrichmentPipeline turns an accepted reaction into a stored task:
// fetch message, synthesize title, persist task, commit fingerprint, record usage.
type EnrichmentPipeline struct {
	repo   interfaces.Repository
	slack  slacksvc.Service
	title  title.Service
	filter *DuplicateFilter
	now    func() time.Time
}

func NewEnrichmentPipeline(repo interfaces.Repository, slack slacksvc.Service, titleSvc title.Service, filter *DuplicateFilter, now func() time.Time) *EnrichmentPipeline {
	if now == nil {
		now = time.Now
	}
	return &EnrichmentPipeline{
		repo:   repo,
		slack:  slack,
		title:  titleSvc,
		filter: filter,
		now:    now,
	}
}

// Handle adapts Run to the worker pool handler signature
func (p *EnrichmentPipeline) Handle(ctx context.Context, job model.EnrichmentJob) error {
	_, err := p.Run(ctx, job)
	return err
}

// Run executes the pipeline once and releases any in-flight claim on the
// fingerprint when it returns. Fetch and persist failures abort the run and
// are returned tagged with their stage. Fingerprint and usage counter failures
// are logged only; the task is kept.
func (p *EnrichmentPipeline) Run(ctx context.Context, job model.EnrichmentJob) (*model.Task, error) {
	fp := job.Fingerprint
	key := fp.Key()
	logger := logging.From(ctx)
	defer p.filter.Release(key)

	msg, err := p.slack.FetchMessage(ctx, job.AccessToken, fp.Channel, fp.MessageTS)
	if err != nil {
		return nil, model.NewStageError(types.EnrichmentStageFetch,
			goerr.Wrap(err, "failed to fetch reacted message", goerr.V(FingerprintKey, key)))
	}
	body := strings.TrimSpace(msg.Text)
	if body == "" {
		return nil, model.NewStageError(types.EnrichmentStageFetch,
			goerr.Wrap(slacksvc.ErrMessageNotFound, "reacted message has no text", goerr.V(FingerprintKey, key)))
	}

	taskTitle := p.title.Generate(ctx, title.Input{
		MessageText: body,
		Reaction:    fp.Reaction,
	})

	now := p.now()
	task := &model.Task{
		ID:             model.NewTaskID(),
		OwnerUserID:    job.OwnerUserID,
		Title:          taskTitle,
		Body:           body,
		Deadline:       job.Deadline,
		Status:         types.TaskStatusOpen,
		Urgency:        job.Urgency.Normalize(),
		ImportanceSeed: job.ImportanceSeed,
		SourceChannel:  fp.Channel,
		SourceTS:       fp.MessageTS,
		CreatedAt:      now,
	}
	if err := p.repo.Task().Create(ctx, task); err != nil {
		return nil, model.NewStageError(types.EnrichmentStagePersist,
			goerr.Wrap(err, "failed to persist task", goerr.V(FingerprintKey, key)))
	}

	err = p.filter.Commit(ctx, &model.ProcessedEvent{
		Key:         key,
		OwnerUserID: job.OwnerUserID,
		TaskID:      task.ID,
		ProcessedAt: now,
	})
	switch {
	case errors.Is(err, interfaces.ErrAlreadyExists):
		logger.Warn("fingerprint committed by a concurrent delivery, task may be duplicated",
			FingerprintKey, key, "task_id", task.ID)
	case err != nil:
		errutil.Handle(ctx, model.NewStageError(types.EnrichmentStageCommit, err),
			"failed to commit fingerprint, a redelivery may create a duplicate task")
	}

	if err := p.repo.Webhook().RecordEvent(ctx, job.WebhookID, now); err != nil {
		logger.Warn("failed to record webhook event", "error", err, WebhookIDKey, job.WebhookID)
	}

	logger.Info("task created from reaction",
		"task_id", task.ID,
		"urgency", task.Urgency,
		"importance_seed", task.ImportanceSeed,
		"latency", now.Sub(job.AcceptedAt).String(),
	)
	return task, nil
}
