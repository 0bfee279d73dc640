package llm

import "context"

// Message is one chat message sent to the text generator.
type Message struct {
	Role    string
	Content string
}

// Response is the generator's reply. Token counts are carried for usage logging.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client abstracts the generative-text dependency so the analysis pipeline can
// be exercised against a fake in tests.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
