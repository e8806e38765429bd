// Package app wires configuration into the investigation pipeline and its
// adapters. Both binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"reliefcheck/internal/adapters/checkers"
	"reliefcheck/internal/adapters/filestore"
	"reliefcheck/internal/adapters/gemini"
	"reliefcheck/internal/adapters/googlesearch"
	"reliefcheck/internal/adapters/kafka"
	"reliefcheck/internal/adapters/memory"
	"reliefcheck/internal/adapters/openai"
	pg "reliefcheck/internal/adapters/postgres"
	"reliefcheck/internal/adapters/qr"
	"reliefcheck/internal/config"
	"reliefcheck/internal/logging"
	"reliefcheck/internal/metrics"
	"reliefcheck/internal/ports"
	"reliefcheck/internal/services/aggregator"
	"reliefcheck/internal/services/caserecord"
	"reliefcheck/internal/services/extraction"
	"reliefcheck/internal/services/intake"
	"reliefcheck/internal/services/investigation"
	"reliefcheck/internal/services/narrative"
)

type App struct {
	Config       config.Config
	Investigator *investigation.Service
	Cases        *caserecord.Recorder
	Jobs         ports.JobRepository
	Intake       *intake.Service
	Metrics      *metrics.Metrics
	// DB is nil unless DATABASE_URL is set.
	DB *pg.DB

	publisher ports.EventPublisher
	log       *slog.Logger
}

// Build connects the configured stores and providers. Missing API keys
// disable the providers that need them; the pipeline still runs on what is
// left.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(), log: logging.New("app")}

	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.DB = db
	}

	store, err := a.caseStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cases = caserecord.New(store, nil)

	if a.DB != nil {
		a.Jobs = a.DB
	} else {
		a.Jobs = memory.NewJobQueue()
	}
	a.Intake = intake.New(a.Jobs)

	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.log.Info("publishing case events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	a.Investigator = a.investigator()
	return a, nil
}

func (a *App) caseStore() (ports.CaseRepository, error) {
	if a.Config.CaseStore == config.StorePostgres {
		if a.DB == nil {
			a.log.Warn("CASE_STORE=postgres without DATABASE_URL; using case files", "dir", a.Config.CaseDir)
		} else {
			return a.DB.Cases(), nil
		}
	}
	return filestore.New(a.Config.CaseDir)
}

func (a *App) investigator() *investigation.Service {
	cfg := a.Config
	// Long-lived clients rely on context deadlines; checker sessions get
	// their own clients with HTTP_CLIENT_TIMEOUT.
	hc := &http.Client{}

	var (
		gem *gemini.Client
		oai *openai.Client
	)
	if c, err := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, gemini.WithHTTPClient(hc), gemini.WithLogger(logging.New("gemini"))); err == nil {
		gem = c
	} else {
		a.log.Warn("gemini disabled", "reason", err)
	}
	if c, err := openai.New(cfg.OpenAIAPIKey, cfg.VisionModel, openai.WithHTTPClient(hc)); err == nil {
		oai = c
	} else {
		a.log.Warn("openai disabled", "reason", err)
	}

	var vision []ports.VisionAnalyzer
	var summaries []narrative.Provider
	if gem != nil {
		vision = append(vision, gemini.Vision{Client: gem})
		summaries = append(summaries, narrative.Provider{Generator: gem, Prompt: narrative.DetailedPrompt})
	}
	if oai != nil {
		vision = append(vision, openai.Vision{Client: oai})
		if text, err := openai.New(cfg.OpenAIAPIKey, cfg.LLMModel, openai.WithHTTPClient(hc)); err == nil {
			summaries = append(summaries, narrative.Provider{Generator: text, Prompt: narrative.BriefPrompt})
		}
	}

	pool := checkers.NewPool(a.checkerConfig())
	extract := extraction.New(qr.Decoder{}, cfg.ImageProcessing(), logging.New("extraction"), vision...)
	gather := aggregator.New(cfg.CheckConcurrency, a.Metrics, logging.New("aggregator"))
	explain := narrative.New(logging.New("narrative"), summaries...)

	return investigation.New(extract, pool, gather, explain, a.Cases, investigation.Options{
		MaxProcessing:    cfg.MaxProcessing(),
		BackgroundChecks: cfg.BackgroundChecks(),
		Publisher:        a.publisher,
		Observer:         a.Metrics,
		Logger:           logging.New("investigation"),
	})
}

func (a *App) checkerConfig() checkers.Config {
	cfg := a.Config
	cc := checkers.Config{
		HTTPTimeout:     cfg.HTTPClient(),
		ScamDatabaseURL: cfg.ScamDatabaseURL,
		RegistryURL:     cfg.GovernmentRegistryURL,
		Logger:          logging.New("checkers"),
	}
	if cfg.GoogleSearchAPIKey != "" && cfg.GoogleCSEID != "" {
		cc.Search = func(hc *http.Client) ports.WebSearcher {
			// Keys were checked above, so New cannot fail.
			c, _ := googlesearch.New(cfg.GoogleSearchAPIKey, cfg.GoogleCSEID,
				googlesearch.WithHTTPClient(hc), googlesearch.WithLogger(logging.New("search")))
			return c
		}
	} else {
		a.log.Warn("web search disabled; scam and registry checks rely on keyword and database lookups only")
	}
	if cfg.GeminiAPIKey != "" {
		cc.QueryGenerator = func(hc *http.Client) ports.TextGenerator {
			c, _ := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, gemini.WithHTTPClient(hc))
			return c
		}
	}
	return cc
}

// Migrate applies the Postgres schema. It fails without a database.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return errors.New("DATABASE_URL is not set")
	}
	return a.DB.Migrate(ctx)
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("close publisher", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
