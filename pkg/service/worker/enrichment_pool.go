package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
	"github.com/secmon-lab/reactask/pkg/domain/types"
	"github.com/secmon-lab/reactask/pkg/utils/errutil"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPoolFull    = errors.New("enrichment pool queue is full")
	ErrPoolStopped = errors.New("enrichment pool is stopped")
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
	DefaultTimeout   = 60 * time.Second
)

// Handler runs one enrichment job. Returned errors should be tagged with
// model.NewStageError so dead letters record where the job failed.
type Handler func(ctx context.Context, job model.EnrichmentJob) error

// EnrichmentPool runs enrichment jobs on a fixed set of workers.
//
// Jobs are detached from the HTTP request that accepted them: each one gets its
// own timeout on top of a context that keeps the logger but not the caller's
// cancellation. A job that fails or panics is stored as a dead letter.
type EnrichmentPool struct {
	handler     Handler
	deadLetters interfaces.DeadLetterRepository
	workers     int
	timeout     time.Duration
	now         func() time.Time

	mu      sync.RWMutex
	jobs    chan model.EnrichmentJob
	started bool
	stopped bool
	group   errgroup.Group
}

type PoolOption func(*EnrichmentPool)

func WithWorkers(n int) PoolOption {
	return func(p *EnrichmentPool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) PoolOption {
	return func(p *EnrichmentPool) {
		if n >= 0 {
			p.jobs = make(chan model.EnrichmentJob, n)
		}
	}
}

// WithJobTimeout bounds a single job run
func WithJobTimeout(d time.Duration) PoolOption {
	return func(p *EnrichmentPool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithClock(now func() time.Time) PoolOption {
	return func(p *EnrichmentPool) {
		p.now = now
	}
}

func NewEnrichmentPool(handler Handler, deadLetters interfaces.DeadLetterRepository, opts ...PoolOption) *EnrichmentPool {
	p := &EnrichmentPool{
		handler:     handler,
		deadLetters: deadLetters,
		workers:     DefaultWorkers,
		timeout:     DefaultTimeout,
		now:         time.Now,
		jobs:        make(chan model.EnrichmentJob, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. ctx supplies the logger for job contexts; its
// cancellation does not stop running jobs, Stop does.
func (p *EnrichmentPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	baseCtx := context.WithoutCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			for job := range p.jobs {
				p.Process(baseCtx, job)
			}
			return nil
		})
	}

	logging.From(ctx).Info("enrichment pool started",
		"workers", p.workers,
		"queue_size", cap(p.jobs),
		"job_timeout", p.timeout.String(),
	)
}

// Submit enqueues job without blocking
func (p *EnrichmentPool) Submit(job model.EnrichmentJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return goerr.Wrap(ErrPoolFull, "enrichment queue capacity reached", goerr.V("capacity", cap(p.jobs)))
	}
}

// Stop rejects new jobs, lets the workers drain the queue and waits for them
func (p *EnrichmentPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	started := p.started
	p.mu.Unlock()

	if started {
		_ = p.group.Wait()
	}
	logging.Default().Info("enrichment pool stopped")
}

// Process runs one job synchronously with the pool's timeout, panic recovery
// and dead-lettering. Workers call it; callers that cannot enqueue may too.
func (p *EnrichmentPool) Process(ctx context.Context, job model.EnrichmentJob) {
	ctx = logging.WithAttrs(ctx,
		"webhook_id", job.WebhookID,
		"fingerprint", job.Fingerprint.Key(),
	)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.run(ctx, job)
	if err == nil {
		return
	}

	stage := model.StageOf(err)
	errutil.Handle(ctx, err, "enrichment job failed")

	dl := model.NewDeadLetter(job, stage, err, p.now())
	// the job context may already be expired, so the write gets its own budget
	putCtx, putCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer putCancel()
	if putErr := p.deadLetters.Put(putCtx, dl); putErr != nil {
		errutil.Handle(ctx, goerr.Wrap(putErr, "failed to store dead letter",
			goerr.V("dead_letter_id", dl.ID),
			goerr.V("stage", stage),
		), "enrichment job lost")
		return
	}

	logging.From(ctx).Warn("enrichment job dead-lettered",
		"dead_letter_id", dl.ID,
		"stage", stage,
	)
}

func (p *EnrichmentPool) run(ctx context.Context, job model.EnrichmentJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = model.NewStageError(types.EnrichmentStagePanic,
				goerr.New("panic in enrichment job", goerr.V("panic", r)))
		}
	}()

	return p.handler(ctx, job)
}
