package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/reactask/pkg/service/title"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the title synthesis model
type LLM struct {
	provider       string
	model          string
	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	claudeAPIKey   string
	timeout        time.Duration
}

// Flags returns CLI flags for LLM configuration
func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider for task titles [gemini|openai|claude]. Empty disables titles from LLM",
			Category:    "LLM",
			Sources:     cli.EnvVars("REACTASK_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Usage:       "Model name (provider default when empty)",
			Category:    "LLM",
			Sources:     cli.EnvVars("REACTASK_LLM_MODEL"),
			Destination: &x.model,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("REACTASK_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("REACTASK_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("REACTASK_OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-api-key",
			Usage:       "Anthropic API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("REACTASK_CLAUDE_API_KEY"),
			Destination: &x.claudeAPIKey,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Usage:       "Timeout of one title synthesis call",
			Category:    "LLM",
			Value:       title.DefaultTimeout,
			Sources:     cli.EnvVars("REACTASK_LLM_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("model", x.model),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.Int("openai-api-key.len", len(x.openaiAPIKey)),
		slog.Int("claude-api-key.len", len(x.claudeAPIKey)),
		slog.String("timeout", x.timeout.String()),
	)
}

// Configure creates the LLM client. Returns nil when no provider is configured,
// in which case titles always use the fallback template.
func (x *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch x.provider {
	case "":
		return nil, nil

	case "gemini":
		if x.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingField, "gemini-project is required for gemini provider")
		}
		var opts []gemini.Option
		if x.model != "" {
			opts = append(opts, gemini.WithModel(x.model))
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "openai":
		if x.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingField, "openai-api-key is required for openai provider")
		}
		var opts []openai.Option
		if x.model != "" {
			opts = append(opts, openai.WithModel(x.model))
		}
		client, err := openai.New(ctx, x.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	case "claude":
		if x.claudeAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingField, "claude-api-key is required for claude provider")
		}
		var opts []claude.Option
		if x.model != "" {
			opts = append(opts, claude.WithModel(x.model))
		}
		client, err := claude.New(ctx, x.claudeAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Claude client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrUnsupportedOption, "invalid llm provider", goerr.V("provider", x.provider))
	}
}

// ConfigureTitle creates the title service on top of the configured LLM client
func (x *LLM) ConfigureTitle(ctx context.Context) (title.Service, error) {
	client, err := x.Configure(ctx)
	if err != nil {
		return nil, err
	}
	return title.New(client, title.WithTimeout(x.timeout)), nil
}
