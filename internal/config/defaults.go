package config

import (
	"time"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/scoring"
)

// DefaultStageWeights returns the built-in stage → weight table.
func DefaultStageWeights() map[models.Stage]models.Weights {
	return scoring.DefaultWeightTable()
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 25
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 3 * time.Minute
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4096
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 90 * time.Second
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = 60
	}
	if cfg.OCR.Tesseract == "" {
		cfg.OCR.Tesseract = "tesseract"
	}
	if cfg.OCR.Pdftoppm == "" {
		cfg.OCR.Pdftoppm = "pdftoppm"
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = 300
	}
	if cfg.OCR.MaxPages == 0 {
		cfg.OCR.MaxPages = 30
	}
	if cfg.OCR.MaxImages == 0 {
		cfg.OCR.MaxImages = 20
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = 60 * time.Second
	}
	if cfg.Extract.MinPDFTextLength == 0 {
		cfg.Extract.MinPDFTextLength = 100
	}
	if cfg.Prompt.MaxIdeaChars == 0 {
		cfg.Prompt.MaxIdeaChars = 4000
	}
	if cfg.Prompt.MaxDeckWords == 0 {
		cfg.Prompt.MaxDeckWords = 1500
	}
	// Missing stages fall back to the built-in row; configured rows are kept as-is.
	defaults := DefaultStageWeights()
	if cfg.Scoring.StageWeights == nil {
		cfg.Scoring.StageWeights = defaults
	} else {
		for stage, w := range defaults {
			if _, ok := cfg.Scoring.StageWeights[stage]; !ok {
				cfg.Scoring.StageWeights[stage] = w
			}
		}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "json"
	}
	if cfg.Storage.AuditLogPath == "" {
		cfg.Storage.AuditLogPath = "./data/feedback.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/audit.db"
	}
	if cfg.Storage.SavedAnalysesPath == "" {
		cfg.Storage.SavedAnalysesPath = ".venturelens/saved_analyses.json"
	}
	if cfg.Cache.DeckCacheSize == 0 {
		cfg.Cache.DeckCacheSize = 64
	}
}
