// Package main is the VentureLens CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/venturelens/internal/analyzer"
	"github.com/hyperjump/venturelens/internal/cli"
	"github.com/hyperjump/venturelens/internal/config"
	"github.com/hyperjump/venturelens/internal/extract"
	"github.com/hyperjump/venturelens/internal/llm"
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/ocr"
	"github.com/hyperjump/venturelens/internal/prompt"
	"github.com/hyperjump/venturelens/internal/server"
	"github.com/hyperjump/venturelens/internal/storage"
	"github.com/hyperjump/venturelens/internal/watcher"
	"github.com/hyperjump/venturelens/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/venturelens/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists. A missing default file is not an error: the
// built-in defaults plus environment overrides are used and the returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "feedback":
		runFeedback()
	case "export":
		runExport()
	case "saved":
		runSaved()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("venturelens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLoggerWithLevel(debugMode, cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Bool("llm_configured", cfg.HasAPIKey()),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if resolvedConfigPath != "" && components.Analyzer != nil {
		watchSvc := watcher.New(
			[]string{resolvedConfigPath},
			func(path string) { reloadWeights(path, components.Analyzer, logger) },
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Warn("config watcher not started", zap.Error(err))
		} else {
			defer watchSvc.Stop()
		}
	}

	// A nil *analyzer.Analyzer must stay a nil interface so the server reports the
	// missing key.
	var an server.Analyzer
	if components.Analyzer != nil {
		an = components.Analyzer
	}
	srv := server.NewServer(an, components.Audit, &cfg.Server, logger,
		server.WithModel(cfg.LLM.Model),
		server.WithVersion(version),
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// reloadWeights re-reads the config file and swaps in its stage weight table. Other
// settings need a restart.
func reloadWeights(path string, a *analyzer.Analyzer, logger *zap.Logger) {
	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Warn("config reload failed; keeping current weights", zap.String("path", path), zap.Error(err))
		return
	}
	a.SetWeightTable(cfg.Scoring.StageWeights)
	logger.Info("stage weights reloaded", zap.String("path", path))
}

// Components holds initialized services.
type Components struct {
	Audit storage.AuditLog
	// Analyzer is nil when no API key is configured.
	Analyzer *analyzer.Analyzer
}

func (c *Components) Close() {
	if c.Audit != nil {
		_ = c.Audit.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	audit, err := storage.Open(storage.Options{
		Driver:       cfg.Storage.Driver,
		AuditLogPath: cfg.Storage.AuditLogPath,
		DatabasePath: cfg.Storage.DatabasePath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}
	c := &Components{Audit: audit}

	if !cfg.HasAPIKey() {
		logger.Warn("no LLM API key configured; analysis requests will be rejected",
			zap.String("env", config.EnvAPIKey))
		return c, nil
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		JSONMode:          cfg.LLM.JSONModeOrDefault(),
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	validator, err := llm.NewValidator()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}

	ocrEngine := ocr.New(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		Timeout:     cfg.OCR.Timeout,
	}, logger)
	extractor := extract.NewExtractor(ocrEngine, extract.Options{
		MinPDFTextLength: cfg.Extract.MinPDFTextLength,
		MaxImages:        cfg.OCR.MaxImages,
	}, logger)

	a, err := analyzer.New(analyzer.Options{
		Extractor:      extractor,
		Completer:      client,
		Validator:      validator,
		Prompts:        prompt.NewBuilder(prompt.Limits{MaxIdeaChars: cfg.Prompt.MaxIdeaChars, MaxDeckWords: cfg.Prompt.MaxDeckWords}),
		Weights:        cfg.Scoring.StageWeights,
		Audit:          audit,
		LogAnalyses:    cfg.Storage.LogAnalyses,
		SummarizeDecks: cfg.LLM.SummarizeDecks,
		DeckCacheSize:  cfg.Cache.DeckCacheSize,
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Analyzer = a
	return c, nil
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them; the flag package stops at
// the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuery joins positional args so multi-word ideas work with or without quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// parseWeightsFlag accepts either a JSON object or comma-separated key=value pairs
// (tech=0.5,gtm=0.3,memo=0.2) and returns the customWeights JSON the server expects.
func parseWeightsFlag(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	var w models.WeightOverrides
	if strings.HasPrefix(s, "{") {
		if err := json.Unmarshal([]byte(s), &w); err != nil {
			return "", fmt.Errorf("invalid weights JSON: %w", err)
		}
	} else {
		for _, pair := range strings.Split(s, ",") {
			key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return "", fmt.Errorf("invalid weight %q (want key=value)", pair)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return "", fmt.Errorf("invalid weight value %q: %w", val, err)
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "tech":
				w.Tech = &f
			case "gtm":
				w.GTM = &f
			case "memo", "investmentmemo", "investment_memo":
				w.InvestmentMemo = &f
			default:
				return "", fmt.Errorf("unknown weight %q (allowed: tech, gtm, memo)", key)
			}
		}
	}
	if w.Empty() {
		return "", nil
	}
	out, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func printAnalyzeUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: venturelens analyze [flags] <idea>\n\n")
	fmt.Fprintf(fs.Output(), "The idea is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  venturelens analyze solar kiosks for rural clinics
  venturelens analyze -stage growth -deck deck.pdf "B2B invoice factoring"
  venturelens analyze -weights tech=0.6,gtm=0.2,memo=0.2 -output json my idea
`)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for the saved-analysis store)")
	serverURL := fs.String("server", defaultServerURL, "server URL")
	market := fs.String("market", "", "target market")
	stage := fs.String("stage", "", "startup stage: early, growth or late (default early)")
	weights := fs.String("weights", "", `weight overrides: JSON or tech=0.5,gtm=0.3,memo=0.2`)
	deck := fs.String("deck", "", "pitch deck file (.pdf or .pptx)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	save := fs.Bool("save", false, "save a summary to the local saved-analysis store")
	fs.Usage = func() { printAnalyzeUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	idea := buildQuery(fs.Args())
	if idea == "" {
		printAnalyzeUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if _, err := models.ParseStage(*stage); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	customWeights, err := parseWeightsFlag(*weights)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := cli.NewClient(*serverURL, 0, nil)
	result, err := client.Analyze(context.Background(), cli.AnalyzeParams{
		Query:        idea,
		TargetMarket: *market,
		Stage:        *stage,
		Weights:      customWeights,
		DeckPath:     *deck,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnalysis(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}

	if *save {
		store, err := savedStore(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		if err := store.Add(models.NewSavedAnalysis(result, time.Now())); err != nil {
			fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Saved analysis %s\n", result.AnalysisID)
	}
}

func savedStore(configPath string) (*storage.SavedStore, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return storage.NewSavedStore(cfg.Storage.SavedAnalysesPath), nil
}

func runFeedback() {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	id := fs.String("id", "", "analysis ID")
	rating := fs.Int("rating", 0, "rating from 1 to 5")
	comments := fs.String("comments", "", "free-text comments")
	_ = fs.Parse(os.Args[2:])

	fb := &models.Feedback{AnalysisID: *id, Rating: *rating, Comments: *comments}
	if err := fb.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cli.NewClient(*serverURL, 30*time.Second, nil).SendFeedback(context.Background(), fb); err != nil {
		fmt.Fprintf(os.Stderr, "Feedback failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Feedback recorded")
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	out := fs.String("out", "feedback.xlsx", "output workbook path")
	_ = fs.Parse(os.Args[2:])

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	err = cli.NewClient(*serverURL, time.Minute, nil).ExportFeedback(context.Background(), f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(*out)
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Feedback exported to %s\n", *out)
}

func runSaved() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: venturelens saved <list|delete> [flags] [id]")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("saved "+sub, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(argsReorder(os.Args[3:]))

	store, err := savedStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	switch sub {
	case "list":
		items, err := store.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		cli.WriteSavedList(os.Stdout, items)
	case "delete":
		if fs.NArg() != 1 {
			fmt.Println("Usage: venturelens saved delete <id>")
			os.Exit(1)
		}
		removed, err := store.Delete(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		if !removed {
			fmt.Printf("No saved analysis with ID %s\n", fs.Arg(0))
			os.Exit(1)
		}
		fmt.Printf("Deleted %s\n", fs.Arg(0))
	default:
		fmt.Printf("Unknown saved command: %s\n", sub)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	status, err := cli.NewClient(*serverURL, 30*time.Second, nil).Status(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		keys := make([]string, 0, len(status))
		for k := range status {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-18s %v\n", k+":", status[k])
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`venturelens - Startup idea and pitch deck analysis

Usage:
  venturelens server [flags]             Start the HTTP server
  venturelens analyze [flags] <idea>     Analyze a startup idea
  venturelens feedback [flags]           Rate an analysis
  venturelens export [flags]             Download feedback as an Excel workbook
  venturelens saved <list|delete> [id]   Manage locally saved analyses
  venturelens status [flags]             Show server status
  venturelens version                    Show version
  venturelens help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/venturelens/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --server string    Server URL (default: http://localhost:8080)
  --market string    Target market
  --stage string     Startup stage: early, growth or late
  --weights string   Weight overrides, JSON or tech=0.5,gtm=0.3,memo=0.2
  --deck string      Pitch deck file (.pdf or .pptx)
  --output string    Output format: text or json (default: text)
  --save             Save a summary locally

Feedback Flags:
  --id string        Analysis ID
  --rating int       Rating from 1 to 5
  --comments string  Free-text comments

Environment:
  OPENAI_API_KEY             LLM API key (required for analysis)
  VENTURELENS_MODEL          Model override
  VENTURELENS_LLM_BASE_URL   OpenAI-compatible endpoint override
  VENTURELENS_PORT           Server port override

Examples:
  venturelens server
  venturelens analyze "marketplace for used lab equipment"
  venturelens analyze -stage late -deck deck.pptx -output json fintech for freelancers
  venturelens feedback -id 3f2c... -rating 4 -comments "useful"
  venturelens export -out feedback.xlsx
  venturelens saved list`)
}
