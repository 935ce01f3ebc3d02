// Package analyzer runs one idea analysis end to end: deck processing, prompting the
// model, validating its answer and computing the weighted scores.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/venturelens/internal/apperr"
	"github.com/hyperjump/venturelens/internal/deck"
	"github.com/hyperjump/venturelens/internal/extract"
	"github.com/hyperjump/venturelens/internal/llm"
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/prompt"
	"github.com/hyperjump/venturelens/internal/scoring"
	"github.com/hyperjump/venturelens/internal/storage"
	"github.com/hyperjump/venturelens/pkg/utils"
	"go.uber.org/zap"
)

// DeckExtractor turns an uploaded deck into text.
type DeckExtractor interface {
	Extract(ctx context.Context, content []byte, ext string) (extract.Result, error)
}

// Options wires the analyzer's collaborators. Completer and Validator are required.
type Options struct {
	Extractor DeckExtractor
	Completer llm.Completer
	Validator *llm.Validator
	Prompts   *prompt.Builder
	Weights   scoring.WeightTable
	// Audit receives every finished analysis when LogAnalyses is set.
	Audit       storage.AuditLog
	LogAnalyses bool
	// SummarizeDecks condenses decks longer than the prompt word cap with an extra
	// model call before the analysis call.
	SummarizeDecks bool
	DeckCacheSize  int
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Analyzer produces AnalysisResults.
type Analyzer struct {
	opts    Options
	weights atomic.Pointer[scoring.WeightTable]
	cache   *deckCache
	logger  *zap.Logger
}

// New returns an Analyzer.
func New(opts Options, logger *zap.Logger) (*Analyzer, error) {
	if opts.Completer == nil {
		return nil, apperr.New(apperr.KindConfiguration, "analyzer.New", "no model client configured")
	}
	if opts.Validator == nil {
		return nil, errors.New("analyzer: validator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Prompts == nil {
		opts.Prompts = prompt.NewBuilder(prompt.Limits{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &Analyzer{opts: opts, cache: newDeckCache(opts.DeckCacheSize), logger: logger}
	a.SetWeightTable(opts.Weights)
	return a, nil
}

// SetWeightTable replaces the stage weight table. Safe to call while analyses run.
func (a *Analyzer) SetWeightTable(t scoring.WeightTable) {
	if len(t) == 0 {
		t = scoring.DefaultWeightTable()
	}
	t = t.Clone()
	a.weights.Store(&t)
}

// WeightTable returns a copy of the current stage table.
func (a *Analyzer) WeightTable() scoring.WeightTable {
	return (*a.weights.Load()).Clone()
}

// Analyze runs the full pipeline for req.
func (a *Analyzer) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	const op = "analyzer.Analyze"
	if req == nil {
		return nil, apperr.New(apperr.KindInvalidInput, op, "empty request")
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, op, err)
	}
	weights := a.WeightTable().Resolve(req.Stage, req.CustomWeights)

	var info *models.PitchDeckInfo
	if req.Deck != nil {
		if ext := req.Deck.Ext(); !extract.Supported(ext) {
			return nil, apperr.Errorf(apperr.KindUnsupportedFormat, op, "unsupported pitch deck format %q (allowed: .pdf, .pptx)", ext)
		}
		if len(req.Deck.Content) > 0 {
			var err error
			if info, err = a.ProcessDeck(ctx, req.Deck); err != nil {
				return nil, err
			}
		}
	}

	in := prompt.Input{
		Idea:         req.Query,
		TargetMarket: req.TargetMarket,
		Stage:        req.Stage,
		Weights:      weights,
		Deck:         info,
	}
	if info != nil && a.opts.SummarizeDecks && a.opts.Prompts.NeedsSummary(info.Excerpt) {
		in.DeckSummary = a.summarize(ctx, info.Excerpt)
	}

	raw, err := a.opts.Completer.Complete(ctx, llm.Request{Prompt: a.opts.Prompts.Analysis(in), JSON: true})
	if err != nil {
		return nil, err
	}
	result, violations, err := a.opts.Validator.Validate(raw)
	if err != nil {
		a.logger.Warn("model response rejected", zap.Error(err), zap.String("response", utils.Truncate(raw, 500)))
		return nil, err
	}
	if len(violations) > 0 {
		fields := make([]string, len(violations))
		for i, v := range violations {
			fields[i] = v.String()
		}
		a.logger.Info("model response repaired", zap.Int("violations", len(violations)), zap.Strings("details", fields))
	}

	scores := scoring.Aggregate(scoring.Inputs{
		TechScore:        result.TechScore,
		GTMScore:         result.GTMScore,
		ConfidenceScore:  result.ConfidenceScore,
		DueDiligenceTech: result.DueDiligenceTech,
		DueDiligenceGTM:  result.DueDiligenceGTM,
		MemoScores:       result.InvestmentMemoScores,
		Deck:             info,
	}, weights)

	result.AnalysisID = uuid.NewString()
	result.CreatedAt = a.opts.Now().UTC()
	result.TechScore = scores.Tech
	result.GTMScore = scores.GTM
	result.ConfidenceScore = scores.Confidence
	result.GlobalScore = scores.Global
	result.StartupStage = req.Stage
	result.Weights = &scores.Weights
	result.PitchDeckProcessed = info != nil
	result.PitchDeckInfo = info

	a.logger.Info("analysis finished",
		zap.String("analysis_id", result.AnalysisID),
		zap.String("stage", string(req.Stage)),
		zap.Bool("deck", info != nil),
		zap.Float64("global_score", result.GlobalScore))

	if a.opts.LogAnalyses && a.opts.Audit != nil {
		a.logAnalysis(ctx, result)
	}
	return result, nil
}

// ProcessDeck extracts and parses an uploaded deck, serving repeats from the cache.
// Only an unsupported file format is an error; unreadable decks come back with the
// failed extraction method and placeholder text.
func (a *Analyzer) ProcessDeck(ctx context.Context, upload *models.DeckUpload) (*models.PitchDeckInfo, error) {
	const op = "analyzer.ProcessDeck"
	ext := upload.Ext()
	if !extract.Supported(ext) {
		return nil, apperr.Errorf(apperr.KindUnsupportedFormat, op, "unsupported pitch deck format %q (allowed: .pdf, .pptx)", ext)
	}
	key := deckKey(upload.Content, ext)
	if info, ok := a.cache.get(key); ok {
		a.logger.Debug("deck cache hit", zap.String("file", upload.Filename))
		return info, nil
	}
	if a.opts.Extractor == nil {
		return nil, apperr.New(apperr.KindConfiguration, op, "no deck extractor configured")
	}

	res, err := a.opts.Extractor.Extract(ctx, upload.Content, ext)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		a.logger.Warn("deck extraction", zap.String("file", upload.Filename), zap.String("warning", w))
	}

	var info *models.PitchDeckInfo
	if res.Method == models.ExtractionFailed {
		info = deck.Parse("")
		info.Excerpt = res.Text
	} else {
		info = deck.Parse(res.Text)
	}
	info.ExtractionMethod = res.Method
	a.logger.Info("deck processed",
		zap.String("file", upload.Filename),
		zap.String("method", string(res.Method)),
		zap.Int("words", info.WordCount))

	// A failed extraction may be transient (OCR timeout), so only good results are kept.
	if res.Method != models.ExtractionFailed {
		a.cache.set(key, info)
	}
	return info, nil
}

// summarize condenses long deck text. Failure falls back to the truncated excerpt.
func (a *Analyzer) summarize(ctx context.Context, text string) string {
	out, err := a.opts.Completer.Complete(ctx, llm.Request{Prompt: a.opts.Prompts.Summary(text)})
	if err != nil {
		a.logger.Warn("deck summarization failed, using excerpt", zap.Error(err))
		return ""
	}
	return out
}

func (a *Analyzer) logAnalysis(ctx context.Context, result *models.AnalysisResult) {
	data, err := json.Marshal(result)
	if err != nil {
		a.logger.Warn("encode analysis for audit log", zap.Error(err))
		return
	}
	rec := &models.AuditRecord{Analysis: data, Timestamp: result.CreatedAt}
	if err := a.opts.Audit.Append(ctx, rec); err != nil {
		a.logger.Warn("append analysis to audit log", zap.Error(err))
	}
}
