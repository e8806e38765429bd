package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// visionMaxTokens bounds the flyer description.
const visionMaxTokens = 500

const visionPrompt = `Analyze this disaster relief help flyer. Extract:
1. All contact information (phone, email, website)
2. Organization name
3. Purpose/type of help offered
4. Any suspicious indicators
5. Overall description of the flyer`

// Client talks to the chat completions API with one model.
type Client struct {
	api   *goopenai.Client
	model string
}

type Option func(*goopenai.ClientConfig)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *goopenai.ClientConfig) { c.HTTPClient = hc }
}

func WithBaseURL(u string) Option {
	return func(c *goopenai.ClientConfig) { c.BaseURL = strings.TrimSuffix(u, "/") }
}

func New(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) Name() string { return "openai" }

// Generate implements ports.TextGenerator.
func (c *Client) Generate(ctx context.Context, p ports.Prompt) (string, error) {
	var msgs []goopenai.ChatCompletionMessage
	if p.System != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: p.System})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: p.User})
	return c.complete(ctx, goopenai.ChatCompletionRequest{Model: c.model, Messages: msgs, MaxTokens: p.MaxTokens})
}

// Vision describes flyers with a vision-capable model. It returns only a
// free-text description.
type Vision struct {
	*Client
}

// Analyze implements ports.VisionAnalyzer.
func (v Vision) Analyze(ctx context.Context, img domain.Image) (ports.VisionResult, error) {
	mime := img.ContentType
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(img.Data)
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	desc, err := v.complete(ctx, goopenai.ChatCompletionRequest{
		Model:     v.model,
		MaxTokens: visionMaxTokens,
		Messages: []goopenai.ChatCompletionMessage{{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: visionPrompt},
				{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL, Detail: goopenai.ImageURLDetailAuto}},
			},
		}},
	})
	if err != nil {
		return ports.VisionResult{}, err
	}
	return ports.VisionResult{Description: desc}, nil
}

func (c *Client) complete(ctx context.Context, req goopenai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty response")
	}
	return text, nil
}
