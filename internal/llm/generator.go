package llm

import "context"

// Generator produces a natural-language completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
