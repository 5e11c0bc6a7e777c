package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/utils/errutil"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

// ReplayResult summarizes one replay run
type ReplayResult struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
}

// ReplayUseCase re-runs dead-lettered enrichment jobs
type ReplayUseCase struct {
	repo     interfaces.Repository
	filter   *DuplicateFilter
	pipeline *EnrichmentPipeline
	timeout  time.Duration
}

func NewReplayUseCase(repo interfaces.Repository, filter *DuplicateFilter, pipeline *EnrichmentPipeline, timeout time.Duration) *ReplayUseCase {
	return &ReplayUseCase{
		repo:     repo,
		filter:   filter,
		pipeline: pipeline,
		timeout:  timeout,
	}
}

// Replay processes up to limit dead letters, oldest first. A dead letter is
// deleted when its fingerprint is already committed or when the rerun succeeds.
// Failed reruns keep their dead letter.
func (uc *ReplayUseCase) Replay(ctx context.Context, limit int) (*ReplayResult, error) {
	letters, err := uc.repo.DeadLetter().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list dead letters")
	}

	result := &ReplayResult{Total: len(letters)}
	for _, dl := range letters {
		dlCtx := logging.WithAttrs(ctx,
			"dead_letter_id", dl.ID,
			FingerprintKey, dl.Job.Fingerprint.Key(),
		)

		skipped, err := uc.replayOne(dlCtx, dl)
		if err != nil {
			errutil.Handle(dlCtx, err, "dead letter replay failed")
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Succeeded++
		}

		if err := uc.repo.DeadLetter().Delete(ctx, dl.ID); err != nil {
			errutil.Handle(dlCtx, err, "failed to delete replayed dead letter")
		}
	}

	logging.From(ctx).Info("dead letter replay finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (uc *ReplayUseCase) replayOne(ctx context.Context, dl *model.DeadLetter) (bool, error) {
	job := dl.Job

	taskID, found, err := uc.filter.Lookup(ctx, job.Fingerprint.Key())
	if err != nil {
		return false, err
	}
	if found {
		logging.From(ctx).Info("fingerprint already committed, dropping dead letter", "task_id", taskID)
		return true, nil
	}

	binding, err := uc.repo.Webhook().Get(ctx, job.WebhookID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to get webhook binding", goerr.V(WebhookIDKey, job.WebhookID))
	}
	if !binding.IsActive {
		return false, goerr.Wrap(ErrWebhookNotFound, "webhook binding is inactive", goerr.V(WebhookIDKey, job.WebhookID))
	}

	conn, err := uc.repo.Workspace().Get(ctx, job.WorkspaceConnectionID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to resolve workspace credentials",
			goerr.V("workspace_connection_id", job.WorkspaceConnectionID))
	}
	job.AccessToken = conn.AccessToken

	// Run releases the claim
	if !uc.filter.Claim(job.Fingerprint.Key()) {
		return false, goerr.New("fingerprint is being enriched by a live delivery")
	}

	runCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	task, err := uc.pipeline.Run(runCtx, job)
	if err != nil {
		return false, err
	}

	logging.From(ctx).Info("dead letter replayed", "task_id", task.ID)
	return false, nil
}
