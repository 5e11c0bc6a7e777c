package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/service/worker"
	"github.com/secmon-lab/reactask/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Pipeline holds the enrichment worker pool settings
type Pipeline struct {
	workers       int
	queueSize     int
	timeout       time.Duration
	replayTimeout time.Duration
}

func (x *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "pipeline-workers",
			Usage:       "Number of enrichment workers",
			Category:    "Pipeline",
			Value:       worker.DefaultWorkers,
			Sources:     cli.EnvVars("REACTASK_PIPELINE_WORKERS"),
			Destination: &x.workers,
		},
		&cli.IntFlag{
			Name:        "pipeline-queue-size",
			Usage:       "Capacity of the enrichment queue",
			Category:    "Pipeline",
			Value:       worker.DefaultQueueSize,
			Sources:     cli.EnvVars("REACTASK_PIPELINE_QUEUE_SIZE"),
			Destination: &x.queueSize,
		},
		&cli.DurationFlag{
			Name:        "pipeline-timeout",
			Usage:       "Time budget of one enrichment job",
			Category:    "Pipeline",
			Value:       worker.DefaultTimeout,
			Sources:     cli.EnvVars("REACTASK_PIPELINE_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.DurationFlag{
			Name:        "replay-timeout",
			Usage:       "Time budget of one dead letter replay",
			Category:    "Pipeline",
			Value:       worker.DefaultTimeout,
			Sources:     cli.EnvVars("REACTASK_REPLAY_TIMEOUT"),
			Destination: &x.replayTimeout,
		},
	}
}

func (x Pipeline) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("workers", x.workers),
		slog.Int("queue_size", x.queueSize),
		slog.String("timeout", x.timeout.String()),
		slog.String("replay_timeout", x.replayTimeout.String()),
	)
}

// Options validates the settings and converts them to use case options
func (x *Pipeline) Options() ([]usecase.Option, error) {
	if x.workers < 1 {
		return nil, goerr.Wrap(ErrInvalidConfig, "pipeline-workers must be positive", goerr.V("workers", x.workers))
	}
	if x.queueSize < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "pipeline-queue-size must not be negative", goerr.V("queue_size", x.queueSize))
	}
	if x.timeout <= 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "pipeline-timeout must be positive", goerr.V("timeout", x.timeout))
	}

	return []usecase.Option{
		usecase.WithPoolOptions(
			worker.WithWorkers(x.workers),
			worker.WithQueueSize(x.queueSize),
			worker.WithJobTimeout(x.timeout),
		),
		usecase.WithReplayTimeout(x.replayTimeout),
	}, nil
}
