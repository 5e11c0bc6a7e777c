package config

import (
	"log/slog"
	"time"

	slacksvc "github.com/secmon-lab/reactask/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	signingSecret string
	timeout       time.Duration
	apiURL        string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("REACTASK_SLACK_SIGNING_SECRET"),
		},
		&cli.DurationFlag{
			Name:        "slack-timeout",
			Usage:       "Timeout of each Slack Web API call",
			Category:    "Slack",
			Value:       slacksvc.DefaultTimeout,
			Destination: &x.timeout,
			Sources:     cli.EnvVars("REACTASK_SLACK_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Slack Web API base URL (testing only)",
			Category:    "Slack",
			Hidden:      true,
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("REACTASK_SLACK_API_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("timeout", x.timeout.String()),
	)
}

// Configure creates the message fetcher
func (x *Slack) Configure() slacksvc.Service {
	opts := []slacksvc.Option{slacksvc.WithTimeout(x.timeout)}
	if x.apiURL != "" {
		opts = append(opts, slacksvc.WithAPIURL(x.apiURL))
	}
	return slacksvc.New(opts...)
}

// IsWebhookConfigured checks if Slack webhook is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}
