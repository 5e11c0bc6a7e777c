package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/utils/async"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

// JobRunner accepts enrichment jobs. Submit must not block; Process runs a job
// to completion on the caller's goroutine.
type JobRunner interface {
	Submit(job model.EnrichmentJob) error
	Process(ctx context.Context, job model.EnrichmentJob)
}

// ReactionEvent is a reaction_added event addressed to a webhook
type ReactionEvent struct {
	WebhookID model.WebhookID
	Actor     string
	Reaction  string
	Channel   string
	MessageTS string
}

// Fingerprint returns the duplicate suppression key parts of the event
func (e ReactionEvent) Fingerprint() model.Fingerprint {
	return model.Fingerprint{
		Channel:   e.Channel,
		MessageTS: e.MessageTS,
		Reaction:  model.NormalizeEmoji(e.Reaction),
		Actor:     e.Actor,
	}
}

// ReactionOutcome is a non-error terminal state of HandleReaction
type ReactionOutcome int

const (
	ReactionQueued ReactionOutcome = iota
	ReactionDuplicate
	ReactionNotOwner
	ReactionNotConfigured
	ReactionInFlight
)

func (o ReactionOutcome) String() string {
	switch o {
	case ReactionQueued:
		return "queued"
	case ReactionDuplicate:
		return "duplicate"
	case ReactionNotOwner:
		return "not_owner"
	case ReactionNotConfigured:
		return "not_configured"
	case ReactionInFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

type ReactionResult struct {
	Outcome        ReactionOutcome
	ExistingTaskID model.TaskID
	Fingerprint    model.FingerprintKey
}

// ReactionUseCase decides what to do with an authenticated reaction event and
// hands accepted ones to the enrichment runner without waiting for them.
type ReactionUseCase struct {
	directory  *WebhookDirectory
	filter     *DuplicateFilter
	classifier *UrgencyClassifier
	runner     JobRunner
	now        func() time.Time
}

func NewReactionUseCase(directory *WebhookDirectory, filter *DuplicateFilter, classifier *UrgencyClassifier, runner JobRunner, now func() time.Time) *ReactionUseCase {
	if now == nil {
		now = time.Now
	}
	return &ReactionUseCase{
		directory:  directory,
		filter:     filter,
		classifier: classifier,
		runner:     runner,
		now:        now,
	}
}

// HandleReaction returns ErrWebhookNotFound, ErrOwnerSlackIDUnset, or an
// unexpected error; everything else is reported through ReactionResult.
func (uc *ReactionUseCase) HandleReaction(ctx context.Context, ev ReactionEvent) (*ReactionResult, error) {
	resolved, err := uc.directory.Resolve(ctx, ev.WebhookID)
	if err != nil {
		return nil, err
	}

	switch CheckOwnership(resolved.Owner, ev.Actor) {
	case OwnershipUnset:
		return nil, goerr.Wrap(ErrOwnerSlackIDUnset, "webhook owner has no Slack user id",
			goerr.V(WebhookIDKey, ev.WebhookID), goerr.V("owner_user_id", resolved.Owner.ID))
	case OwnershipMismatch:
		logging.From(ctx).Info("reaction ignored, actor is not the webhook owner",
			WebhookIDKey, ev.WebhookID, "actor", ev.Actor)
		return &ReactionResult{Outcome: ReactionNotOwner}, nil
	}

	fp := ev.Fingerprint()
	key := fp.Key()
	ctx = logging.WithAttrs(ctx, FingerprintKey, key)

	taskID, found, err := uc.filter.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		logging.From(ctx).Info("reaction already processed", "task_id", taskID)
		return &ReactionResult{Outcome: ReactionDuplicate, ExistingTaskID: taskID, Fingerprint: key}, nil
	}

	cls, ok := uc.classifier.Classify(fp.Reaction, resolved.Emoji)
	if !ok {
		logging.From(ctx).Debug("reaction is not a configured emoji", "reaction", fp.Reaction)
		return &ReactionResult{Outcome: ReactionNotConfigured, Fingerprint: key}, nil
	}

	if !uc.filter.Claim(key) {
		logging.From(ctx).Info("reaction is already being enriched")
		return &ReactionResult{Outcome: ReactionInFlight, Fingerprint: key}, nil
	}

	job := model.EnrichmentJob{
		WebhookID:             resolved.Binding.ID,
		OwnerUserID:           resolved.Binding.OwnerUserID,
		WorkspaceConnectionID: resolved.Binding.WorkspaceConnectionID,
		AccessToken:           resolved.Connection.AccessToken,
		Fingerprint:           fp,
		Urgency:               cls.Urgency,
		Deadline:              cls.Deadline,
		ImportanceSeed:        cls.ImportanceSeed,
		AcceptedAt:            uc.now(),
	}

	if err := uc.runner.Submit(job); err != nil {
		logging.From(ctx).Warn("enrichment pool rejected job, running detached", "error", err)
		async.Dispatch(ctx, func(ctx context.Context) error {
			uc.runner.Process(ctx, job)
			return nil
		})
	}

	logging.From(ctx).Info("reaction queued for enrichment", "urgency", cls.Urgency)
	return &ReactionResult{Outcome: ReactionQueued, Fingerprint: key}, nil
}
