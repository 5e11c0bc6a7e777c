package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/cli/config"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var path string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Usage:       "Path to the fixtures TOML file",
			Required:    true,
			Sources:     cli.EnvVars("REACTASK_SEED_FILE"),
			Destination: &path,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load users, workspaces, webhooks and emoji preferences from a fixtures file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			fixtures, err := config.LoadSeedFixtures(path)
			if err != nil {
				return goerr.Wrap(err, "failed to load fixtures")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err)
				}
			}()

			return applySeed(ctx, repo, fixtures.ToModels(time.Now().UTC()))
		},
	}
}

func applySeed(ctx context.Context, repo interfaces.Repository, models *config.SeedModels) error {
	logger := logging.From(ctx)

	for _, u := range models.Users {
		if err := repo.User().Put(ctx, u); err != nil {
			return goerr.Wrap(err, "failed to save user", goerr.V("user_id", u.ID))
		}
	}
	for _, w := range models.Workspaces {
		if err := repo.Workspace().Put(ctx, w); err != nil {
			return goerr.Wrap(err, "failed to save workspace connection", goerr.V("connection_id", w.ID))
		}
	}
	for _, p := range models.EmojiPreferences {
		if err := repo.EmojiPreference().Put(ctx, p); err != nil {
			return goerr.Wrap(err, "failed to save emoji preference", goerr.V("owner_user_id", p.OwnerUserID))
		}
	}
	for _, h := range models.Webhooks {
		if err := repo.Webhook().Put(ctx, h); err != nil {
			return goerr.Wrap(err, "failed to save webhook", goerr.V("webhook_id", h.ID))
		}
		logger.Info("Webhook registered",
			"webhook_id", h.ID,
			"owner_user_id", h.OwnerUserID,
			"active", h.IsActive,
			"path", "/webhook/"+string(h.ID),
		)
	}

	logger.Info("Seed completed",
		"users", len(models.Users),
		"workspaces", len(models.Workspaces),
		"webhooks", len(models.Webhooks),
		"emoji_preferences", len(models.EmojiPreferences),
	)
	return nil
}
