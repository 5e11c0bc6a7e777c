package title

import "context"

// Service turns a Slack message into a short task title.
// Generate never fails: any LLM problem yields Fallback(input.Reaction).
type Service interface {
	Generate(ctx context.Context, input Input) string
}

// Input is the message a title is synthesized from
type Input struct {
	MessageText string
	Reaction    string
}

// llmResponse is the structured output from the LLM
type llmResponse struct {
	Title string `json:"title"`
}
