// Package config provides configuration loading and structs for the VentureLens server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/venturelens/internal/models"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAPIKey     = "OPENAI_API_KEY"
	EnvModel      = "VENTURELENS_MODEL"
	EnvLLMBaseURL = "VENTURELENS_LLM_BASE_URL"
	EnvPort       = "VENTURELENS_PORT"
)

// ErrAPIKeyMissing is reported when an analysis is requested without an LLM API key.
var ErrAPIKeyMissing = errors.New("OpenAI API key not configured")

// Config holds all configuration for the application.
type Config struct {
	Debug    bool          `yaml:"debug"`
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	LLM      LLMConfig     `yaml:"llm"`
	OCR      OCRConfig     `yaml:"ocr"`
	Extract  ExtractConfig `yaml:"extract"`
	Prompt   PromptConfig  `yaml:"prompt"`
	Scoring  ScoringConfig `yaml:"scoring"`
	Storage  StorageConfig `yaml:"storage"`
	Cache    CacheConfig   `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// LLMConfig holds chat-completion settings. APIKey is normally supplied through
// OPENAI_API_KEY rather than the file.
type LLMConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Temperature       float32       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	JSONMode          *bool         `yaml:"json_mode"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	SummarizeDecks    bool          `yaml:"summarize_decks"`
}

// JSONModeOrDefault returns whether to request a JSON response format; defaults to true.
func (l *LLMConfig) JSONModeOrDefault() bool {
	if l.JSONMode != nil {
		return *l.JSONMode
	}
	return true
}

// OCRConfig holds settings for the tesseract/pdftoppm OCR fallback.
type OCRConfig struct {
	Tesseract   string        `yaml:"tesseract"`
	Pdftoppm    string        `yaml:"pdftoppm"`
	Language    string        `yaml:"language"`
	TessdataDir string        `yaml:"tessdata_dir"`
	DPI         int           `yaml:"dpi"`
	MaxPages    int           `yaml:"max_pages"`
	MaxImages   int           `yaml:"max_images"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ExtractConfig holds text extraction thresholds.
type ExtractConfig struct {
	// MinPDFTextLength is the trimmed text length below which a PDF is treated as
	// image-based and sent to OCR.
	MinPDFTextLength int `yaml:"min_pdf_text_length"`
}

// PromptConfig bounds how much user content reaches the model.
type PromptConfig struct {
	MaxIdeaChars int `yaml:"max_idea_chars"`
	MaxDeckWords int `yaml:"max_deck_words"`
}

// ScoringConfig holds the stage → default weight table.
type ScoringConfig struct {
	StageWeights map[models.Stage]models.Weights `yaml:"stage_weights"`
}

// StorageConfig holds paths for the audit log and the local saved-analysis store.
type StorageConfig struct {
	// Driver is "json" (append-only JSON array file) or "sqlite".
	Driver            string `yaml:"driver"`
	AuditLogPath      string `yaml:"audit_log_path"`
	DatabasePath      string `yaml:"database_path"`
	SavedAnalysesPath string `yaml:"saved_analyses_path"`
	LogAnalyses       bool   `yaml:"log_analyses"`
}

// CacheConfig holds in-process cache sizes.
type CacheConfig struct {
	DeckCacheSize int `yaml:"deck_cache_size"`
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.AuditLogPath = expandPath(cfg.Storage.AuditLogPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.SavedAnalysesPath = expandPath(cfg.Storage.SavedAnalysesPath, configDir)

	return &cfg, nil
}

// Default returns a config built only from environment variables and defaults.
// Used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg
}

// Save writes the config to path. The API key is never written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.LLM.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// Validate checks settings the server cannot start without. A missing API key is not
// fatal at startup; the analysis endpoint reports it per request.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q (allowed: json, sqlite)", c.Storage.Driver)
	}
	for stage, w := range c.Scoring.StageWeights {
		if _, err := models.ParseStage(string(stage)); err != nil {
			return err
		}
		if w.Tech < 0 || w.GTM < 0 || w.InvestmentMemo < 0 {
			return fmt.Errorf("stage %s: weights must be non-negative", stage)
		}
	}
	return nil
}

// HasAPIKey reports whether an LLM API key is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
