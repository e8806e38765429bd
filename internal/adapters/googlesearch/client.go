package googlesearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"

	"reliefcheck/internal/domain"
)

// maxResults is the largest page the API returns.
const maxResults = 10

// Client queries a Programmable Search Engine.
type Client struct {
	cse        *customsearch.CseService
	engineID   string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint points the client at another base URL.
func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSuffix(u, "/") + "/" }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the given API key and engine id.
func New(apiKey, engineID string, opts ...Option) (*Client, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("googlesearch: api key and engine id are required")
	}
	c := &Client{
		engineID:   engineID,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	// option.WithAPIKey is ignored next to a caller-supplied client, so the
	// key rides on the transport instead.
	hc := &http.Client{
		Transport:     &transport.APIKey{Key: apiKey, Transport: c.httpClient.Transport},
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}
	svcOpts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(c.endpoint))
	}
	svc, err := customsearch.NewService(context.Background(), svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("googlesearch: new service: %w", err)
	}
	c.cse = svc.Cse
	return c, nil
}

// Search returns at most max results for query. API failures come back
// wrapping *googleapi.Error.
func (c *Client) Search(ctx context.Context, query string, max int) ([]domain.SearchResult, error) {
	if max < 1 || max > maxResults {
		max = maxResults
	}
	c.logger.DebugContext(ctx, "search request", "query", query, "num", max)

	res, err := c.cse.List().Cx(c.engineID).Q(query).Num(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]domain.SearchResult, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, domain.SearchResult{Title: it.Title, Link: it.Link, Snippet: it.Snippet, DisplayLink: it.DisplayLink})
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}
