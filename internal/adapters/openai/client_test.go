package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

func completion(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": text}, "finish_reason": "stop"}},
	})
	return string(b)
}

func newTestClient(t *testing.T, model string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New("sk-test", model, WithBaseURL(srv.URL+"/v1"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	var req goopenai.ChatCompletionRequest
	c := newTestClient(t, "gpt-test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(" The flyer looks legitimate. ")))
	})

	text, err := c.Generate(context.Background(), ports.Prompt{System: "sys", User: "usr", MaxTokens: 250})
	require.NoError(t, err)
	assert.Equal(t, "The flyer looks legitimate.", text)
	assert.Equal(t, "gpt-test", req.Model)
	assert.Equal(t, 250, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, req.Messages[0].Role)
}

func TestVision_SendsDataURL(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, "gpt-vision", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("A flyer from Relief Org asking for donations.")))
	})

	res, err := Vision{c}.Analyze(context.Background(), domain.Image{Data: []byte("png-bytes"), ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "A flyer from Relief Org asking for donations.", res.Description)
	assert.Empty(t, res.FullText)

	raw, _ := json.Marshal(body["messages"])
	assert.True(t, strings.Contains(string(raw), "data:image/png;base64,"))
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(t, "gpt-test", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	})

	_, err := c.Generate(context.Background(), ports.Prompt{User: "x"})
	var apiErr *goopenai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
}
