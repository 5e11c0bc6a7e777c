package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/reactask/pkg/cli/config"
	httpctrl "github.com/secmon-lab/reactask/pkg/controller/http"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/usecase"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

// components bundles everything built from the shared flags. close releases
// them in reverse order of construction.
type components struct {
	repo interfaces.Repository
	uc   *usecase.UseCases
	stop []func()
}

func (c *components) close() {
	for i := len(c.stop) - 1; i >= 0; i-- {
		c.stop[i]()
	}
}

type sharedConfig struct {
	app      config.App
	repo     config.Repository
	slack    config.Slack
	llm      config.LLM
	pipeline config.Pipeline
}

func (x *sharedConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.app.Flags()...)
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.llm.Flags()...)
	flags = append(flags, x.pipeline.Flags()...)
	return flags
}

func (x *sharedConfig) build(ctx context.Context) (*components, error) {
	appCfg, err := x.app.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load app configuration")
	}
	ucOpts, err := appCfg.UseCaseOptions()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build app options")
	}

	pipelineOpts, err := x.pipeline.Options()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build pipeline options")
	}
	ucOpts = append(ucOpts, pipelineOpts...)

	c := &components{}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	c.repo = repo
	c.stop = append(c.stop, func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err)
		}
	})

	cache, closeCache, err := x.repo.ConfigureCache(ctx)
	if err != nil {
		c.close()
		return nil, goerr.Wrap(err, "failed to initialize fingerprint cache")
	}
	c.stop = append(c.stop, closeCache)
	if cache != nil {
		ucOpts = append(ucOpts, usecase.WithFingerprintCache(cache))
	}

	titleSvc, err := x.llm.ConfigureTitle(ctx)
	if err != nil {
		c.close()
		return nil, goerr.Wrap(err, "failed to initialize title service")
	}

	ucOpts = append(ucOpts,
		usecase.WithSlackService(x.slack.Configure()),
		usecase.WithTitleService(titleSvc),
	)

	c.uc = usecase.New(repo, ucOpts...)
	return c, nil
}

func cmdServe() *cli.Command {
	var addr string
	var shared sharedConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("REACTASK_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, shared.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving Slack reaction events",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !shared.slack.IsWebhookConfigured() {
				return goerr.Wrap(config.ErrMissingField, "slack-signing-secret is required to serve webhooks")
			}

			comps, err := shared.build(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			logging.Default().Info("Configuration loaded",
				"repository", shared.repo,
				"slack", shared.slack,
				"llm", shared.llm,
				"pipeline", shared.pipeline,
			)

			// Stopped after the HTTP server so accepted jobs can drain
			comps.uc.Pool.Start(ctx)

			verifier := httpctrl.NewSignatureVerifier(shared.slack.SigningSecret())
			handler := httpctrl.NewReactionWebhookHandler(comps.uc.Reaction, verifier)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpctrl.WithReactionWebhook(handler)),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				comps.uc.Pool.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					comps.uc.Pool.Stop()
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				comps.uc.Pool.Stop()
				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
