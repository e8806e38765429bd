package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Client calls generateContent for one model through the Gen AI SDK.
type Client struct {
	models     *genai.Models
	model      string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint overrides the Gemini API base URL.
func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSuffix(u, "/") + "/" }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	c := &Client{
		model:      model,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.endpoint != "" {
		cfg.HTTPOptions.BaseURL = c.endpoint
	}
	// With an API key the SDK does no I/O while constructing the client.
	gc, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	c.models = gc.Models
	return c, nil
}

func (c *Client) Name() string { return "gemini" }

// generate sends one user turn and returns the text of the first candidate.
func (c *Client) generate(ctx context.Context, system string, parts []*genai.Part, maxTokens int) (string, error) {
	var cfg genai.GenerateContentConfig
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	c.logger.DebugContext(ctx, "generateContent", "model", c.model, "parts", len(parts))
	resp, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, &cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}
