package checkers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"reliefcheck/internal/ports"
)

// ErrSessionClosed is returned by checks issued after Close.
var ErrSessionClosed = errors.New("checker session closed")

// Config describes what a session can reach. Search and QueryGenerator
// build their clients on the session's HTTP client; either may be nil.
type Config struct {
	HTTPTimeout     time.Duration
	ScamDatabaseURL string
	RegistryURL     string
	// RDAPServer skips RDAP bootstrap when set.
	RDAPServer     *url.URL
	Search         func(*http.Client) ports.WebSearcher
	QueryGenerator func(*http.Client) ports.TextGenerator
	Now            func() time.Time
	Logger         *slog.Logger
}

// Pool opens one checker session per investigation. Sessions share
// nothing but configuration.
type Pool struct {
	cfg  Config
	base *http.Transport
}

func NewPool(cfg Config) *Pool {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pool{cfg: cfg, base: http.DefaultTransport.(*http.Transport)}
}

// Open implements ports.CheckerPool.
func (p *Pool) Open(_ context.Context) (ports.CheckerSession, error) {
	tr := p.base.Clone()
	hc := &http.Client{Transport: tr, Timeout: p.cfg.HTTPTimeout}
	s := &Session{
		cfg:       p.cfg,
		http:      hc,
		transport: tr,
		log:       p.cfg.Logger,
	}
	if p.cfg.Search != nil {
		s.search = p.cfg.Search(hc)
	}
	if p.cfg.QueryGenerator != nil {
		s.queries = p.cfg.QueryGenerator(hc)
	}
	return s, nil
}

// Session runs checks over one HTTP client. Close releases its
// connections; checks issued afterwards fail with ErrSessionClosed.
type Session struct {
	cfg       Config
	http      *http.Client
	transport *http.Transport
	search    ports.WebSearcher
	queries   ports.TextGenerator
	log       *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.transport.CloseIdleConnections()
	return nil
}

func (s *Session) live() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}
