package gemini

import (
	"context"

	"google.golang.org/genai"

	"reliefcheck/internal/ports"
)

// Generate implements ports.TextGenerator.
func (c *Client) Generate(ctx context.Context, p ports.Prompt) (string, error) {
	return c.generate(ctx, p.System, []*genai.Part{genai.NewPartFromText(p.User)}, p.MaxTokens)
}
