package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdReplay() *cli.Command {
	var limit int
	var shared sharedConfig

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of dead letters to replay (0 means all)",
			Value:       100,
			Sources:     cli.EnvVars("REACTASK_REPLAY_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, shared.Flags()...)

	return &cli.Command{
		Name:  "replay",
		Usage: "Re-run dead-lettered enrichment jobs",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			comps, err := shared.build(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			result, err := comps.uc.Replay.Replay(ctx, limit)
			if err != nil {
				return goerr.Wrap(err, "failed to replay dead letters")
			}

			logging.Default().Info("Replay completed",
				"total", result.Total,
				"succeeded", result.Succeeded,
				"skipped", result.Skipped,
				"failed", result.Failed,
			)
			return nil
		},
	}
}
