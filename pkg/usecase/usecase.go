package usecase

import (
	"time"

	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	slacksvc "github.com/secmon-lab/reactask/pkg/service/slack"
	"github.com/secmon-lab/reactask/pkg/service/title"
	"github.com/secmon-lab/reactask/pkg/service/worker"
)

type UseCases struct {
	repo          interfaces.Repository
	slack         slacksvc.Service
	title         title.Service
	cache         interfaces.FingerprintCache
	emojiDefaults model.EmojiPreference
	seeds         ImportanceSeeds
	location      *time.Location
	now           func() time.Time
	intN          func(n int) int
	poolOpts      []worker.PoolOption
	replayTimeout time.Duration

	Directory  *WebhookDirectory
	Filter     *DuplicateFilter
	Classifier *UrgencyClassifier
	Pipeline   *EnrichmentPipeline
	Pool       *worker.EnrichmentPool
	Reaction   *ReactionUseCase
	Replay     *ReplayUseCase
}

type Option func(*UseCases)

func WithSlackService(svc slacksvc.Service) Option {
	return func(uc *UseCases) {
		uc.slack = svc
	}
}

func WithTitleService(svc title.Service) Option {
	return func(uc *UseCases) {
		uc.title = svc
	}
}

// WithFingerprintCache enables the secondary duplicate lookup path
func WithFingerprintCache(cache interfaces.FingerprintCache) Option {
	return func(uc *UseCases) {
		uc.cache = cache
	}
}

func WithEmojiDefaults(pref model.EmojiPreference) Option {
	return func(uc *UseCases) {
		uc.emojiDefaults = pref
	}
}

func WithImportanceSeeds(seeds ImportanceSeeds) Option {
	return func(uc *UseCases) {
		uc.seeds = seeds
	}
}

// WithDeadlineLocation sets the timezone whose calendar days deadlines follow
func WithDeadlineLocation(loc *time.Location) Option {
	return func(uc *UseCases) {
		uc.location = loc
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// WithRandom replaces the source of later-urgency seed jitter
func WithRandom(intN func(n int) int) Option {
	return func(uc *UseCases) {
		uc.intN = intN
	}
}

func WithPoolOptions(opts ...worker.PoolOption) Option {
	return func(uc *UseCases) {
		uc.poolOpts = append(uc.poolOpts, opts...)
	}
}

func WithReplayTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.replayTimeout = d
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:          repo,
		emojiDefaults: model.DefaultEmojiPreference(),
		seeds:         DefaultImportanceSeeds(),
		location:      time.UTC,
		now:           time.Now,
		replayTimeout: worker.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.slack == nil {
		uc.slack = slacksvc.New()
	}
	if uc.title == nil {
		uc.title = title.New(nil)
	}

	uc.Directory = NewWebhookDirectory(repo, uc.emojiDefaults)
	uc.Filter = NewDuplicateFilter(repo.ProcessedEvent(), uc.cache)
	uc.Classifier = NewUrgencyClassifier(uc.now, uc.location, uc.intN, uc.seeds)
	uc.Pipeline = NewEnrichmentPipeline(repo, uc.slack, uc.title, uc.Filter, uc.now)

	poolOpts := append([]worker.PoolOption{worker.WithClock(uc.now)}, uc.poolOpts...)
	uc.Pool = worker.NewEnrichmentPool(uc.Pipeline.Handle, repo.DeadLetter(), poolOpts...)

	uc.Reaction = NewReactionUseCase(uc.Directory, uc.Filter, uc.Classifier, uc.Pool, uc.now)
	uc.Replay = NewReplayUseCase(repo, uc.Filter, uc.Pipeline, uc.replayTimeout)

	return uc
}
