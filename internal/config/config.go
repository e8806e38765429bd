package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Case store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	Env         string `toml:"env" yaml:"env" json:"env"`
	ListenAddr  string `toml:"listen_addr" yaml:"listen_addr" json:"listen_addr"`
	DatabaseURL string `toml:"database_url" yaml:"database_url" json:"database_url"`
	CaseStore   string `toml:"case_store" yaml:"case_store" json:"case_store"`
	CaseDir     string `toml:"case_files_dir" yaml:"case_files_dir" json:"case_files_dir"`
	Workers     int    `toml:"investigation_workers" yaml:"investigation_workers" json:"investigation_workers"`

	GeminiAPIKey string `toml:"gemini_api_key" yaml:"gemini_api_key" json:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model" yaml:"gemini_model" json:"gemini_model"`
	OpenAIAPIKey string `toml:"openai_api_key" yaml:"openai_api_key" json:"openai_api_key"`
	VisionModel  string `toml:"vision_model" yaml:"vision_model" json:"vision_model"`
	LLMModel     string `toml:"llm_model" yaml:"llm_model" json:"llm_model"`

	GoogleSearchAPIKey    string `toml:"google_search_api_key" yaml:"google_search_api_key" json:"google_search_api_key"`
	GoogleCSEID           string `toml:"google_cse_id" yaml:"google_cse_id" json:"google_cse_id"`
	ScamDatabaseURL       string `toml:"scam_database_url" yaml:"scam_database_url" json:"scam_database_url"`
	GovernmentRegistryURL string `toml:"government_registry_url" yaml:"government_registry_url" json:"government_registry_url"`

	// Timeouts in seconds.
	MaxProcessingTime      int `toml:"max_processing_time" yaml:"max_processing_time" json:"max_processing_time"`
	ImageProcessingTimeout int `toml:"image_processing_timeout" yaml:"image_processing_timeout" json:"image_processing_timeout"`
	BackgroundCheckTimeout int `toml:"background_check_timeout" yaml:"background_check_timeout" json:"background_check_timeout"`
	HTTPClientTimeout      int `toml:"http_client_timeout" yaml:"http_client_timeout" json:"http_client_timeout"`
	CheckConcurrency       int `toml:"check_concurrency" yaml:"check_concurrency" json:"check_concurrency"`

	KafkaBrokers []string `toml:"kafka_brokers" yaml:"kafka_brokers" json:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic" yaml:"kafka_topic" json:"kafka_topic"`

	LogLevel  string `toml:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format" json:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Env:                    "development",
		ListenAddr:             ":8080",
		CaseStore:              StoreFile,
		CaseDir:                "case_files",
		Workers:                0,
		GeminiModel:            "gemini-2.0-flash-exp",
		VisionModel:            "gpt-4-vision-preview",
		LLMModel:               "gpt-4-turbo-preview",
		MaxProcessingTime:      30,
		ImageProcessingTimeout: 5,
		BackgroundCheckTimeout: 20,
		HTTPClientTimeout:      10,
		CheckConcurrency:       4,
		KafkaTopic:             "reliefcheck.cases.completed",
		LogLevel:               "INFO",
		LogFormat:              "text",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load builds the configuration from defaults, an optional file named by
// RELIEFCHECK_CONFIG, a .env file and the process environment, in that
// order. The returned error is a warning; cfg is always usable.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("RELIEFCHECK_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CaseStore = getenv("CASE_STORE", cfg.CaseStore)
	cfg.CaseDir = getenv("CASE_FILES_DIR", cfg.CaseDir)
	cfg.Workers = getenvInt("INVESTIGATION_WORKERS", cfg.Workers)

	cfg.GeminiAPIKey = getenv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getenv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIAPIKey = getenv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.VisionModel = getenv("VISION_MODEL", cfg.VisionModel)
	cfg.LLMModel = getenv("LLM_MODEL", cfg.LLMModel)

	cfg.GoogleSearchAPIKey = getenv("GOOGLE_SEARCH_API_KEY", cfg.GoogleSearchAPIKey)
	cfg.GoogleCSEID = getenv("GOOGLE_CSE_ID", cfg.GoogleCSEID)
	cfg.ScamDatabaseURL = getenv("SCAM_DATABASE_URL", cfg.ScamDatabaseURL)
	cfg.GovernmentRegistryURL = getenv("GOVERNMENT_REGISTRY_URL", cfg.GovernmentRegistryURL)

	cfg.MaxProcessingTime = getenvInt("MAX_PROCESSING_TIME", cfg.MaxProcessingTime)
	cfg.ImageProcessingTimeout = getenvInt("IMAGE_PROCESSING_TIMEOUT", cfg.ImageProcessingTimeout)
	cfg.BackgroundCheckTimeout = getenvInt("BACKGROUND_CHECK_TIMEOUT", cfg.BackgroundCheckTimeout)
	cfg.HTTPClientTimeout = getenvInt("HTTP_CLIENT_TIMEOUT", cfg.HTTPClientTimeout)
	cfg.CheckConcurrency = getenvInt("CHECK_CONCURRENCY", cfg.CheckConcurrency)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	cfg.KafkaTopic = getenv("KAFKA_TOPIC", cfg.KafkaTopic)

	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)

	if cfg.CaseStore == StorePostgres && cfg.DatabaseURL == "" {
		// Not fatal for early local runs; callers fall back to the file store.
		return cfg, fmt.Errorf("CASE_STORE=postgres but DATABASE_URL not set")
	}
	return cfg, nil
}

func (c Config) MaxProcessing() time.Duration { return seconds(c.MaxProcessingTime) }
func (c Config) ImageProcessing() time.Duration {
	return seconds(c.ImageProcessingTimeout)
}
func (c Config) BackgroundChecks() time.Duration {
	return seconds(c.BackgroundCheckTimeout)
}
func (c Config) HTTPClient() time.Duration { return seconds(c.HTTPClientTimeout) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadFile overlays the file at path onto cfg, choosing the decoder from the
// file extension.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}
