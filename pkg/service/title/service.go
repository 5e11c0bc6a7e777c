package title

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

const (
	// MaxRunes caps the title length
	MaxRunes = 80

	// DefaultTimeout bounds one title synthesis call
	DefaultTimeout = 15 * time.Second

	// maxPromptRunes keeps very long messages out of the prompt
	maxPromptRunes = 4000
)

// client implements Service
type client struct {
	llmClient gollem.LLMClient
	timeout   time.Duration
}

// Option is a functional option for client configuration
type Option func(*client)

// WithTimeout sets the deadline for a single LLM call
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// New creates a title service. A nil llmClient is allowed and makes every
// title the fallback.
func New(llmClient gollem.LLMClient, opts ...Option) Service {
	c := &client{
		llmClient: llmClient,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fallback is the templated title used when synthesis is unavailable
func Fallback(reaction string) string {
	return Truncate("Slack reaction: " + reaction)
}

// Truncate cuts s to MaxRunes runes
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxRunes {
		return s
	}
	return string([]rune(s)[:MaxRunes])
}

func (c *client) Generate(ctx context.Context, input Input) string {
	if c.llmClient == nil {
		return Fallback(input.Reaction)
	}

	title, err := c.generate(ctx, input)
	if err != nil {
		logging.From(ctx).Warn("title synthesis failed, using fallback",
			"error", err,
			"reaction", input.Reaction,
		)
		return Fallback(input.Reaction)
	}
	return title
}

func (c *client) generate(ctx context.Context, input Input) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(input)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("empty LLM response")
	}

	var llmResp llmResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &llmResp); err != nil {
		return "", goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}

	title := cleanTitle(llmResp.Title)
	if title == "" {
		return "", goerr.New("LLM returned an empty title", goerr.V("response", resp.Texts[0]))
	}
	return title, nil
}

// cleanTitle keeps the first non-empty line, strips wrapping quotes and truncates
func cleanTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`“”")
		line = strings.TrimSpace(line)
		if line != "" {
			return Truncate(line)
		}
	}
	return ""
}

const systemPrompt = `You turn a Slack message into a to-do item title.

## Instructions:

1. Write a single imperative task title describing what the reader has to do.
2. Use the same language as the message.
3. Keep it under 80 characters. No trailing punctuation, no quotes, no emoji.
4. Return JSON with a single "title" field.
`

func buildUserPrompt(input Input) string {
	text := input.MessageText
	if utf8.RuneCountInString(text) > maxPromptRunes {
		text = string([]rune(text)[:maxPromptRunes])
	}

	var sb strings.Builder
	sb.WriteString("## Reaction:\n\n")
	sb.WriteString(input.Reaction)
	sb.WriteString("\n\n## Message:\n\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}

func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "TaskTitle",
		Description: "A short task title synthesized from a Slack message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"title": {
				Type:        gollem.TypeString,
				Description: "Imperative task title, at most 80 characters",
				Required:    true,
			},
		},
	}
}
