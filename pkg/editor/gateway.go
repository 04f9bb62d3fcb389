package editor

import "context"

// Gateway completes an AI prompt and returns HTML.
type Gateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Suggester proposes follow-up actions for the current document text.
type Suggester interface {
	Suggest(ctx context.Context, text string) ([]Suggestion, error)
}

// Observer is told about every exchange that reaches a final status. It is
// called on the editor loop and must not block.
type Observer interface {
	ExchangeResolved(x Exchange)
}
