package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/venturelens/internal/apperr"
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Placeholder content for fields the model left out.
const (
	PlaceholderMemo    = "This section was not provided by the analysis. Review it manually before relying on the memo."
	PlaceholderSummary = "No summary was provided by the analysis."
	PlaceholderAverage = "Data not available"
	placeholderDDTech  = "Technical due diligence was not provided. Review the architecture, scalability, security and intellectual property manually."
	placeholderDDGTM   = "Go-to-market due diligence was not provided. Review the target segment, acquisition channels and pricing manually."
)

const (
	schemaResourceName = "analysis.json"
	pointerRoot        = ""
)

// Violation is one schema rule the model output broke.
type Violation struct {
	// Path is the JSON pointer of the offending value ("" for the root object).
	Path    string `json:"path"`
	Keyword string `json:"keyword"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	p := v.Path
	if p == pointerRoot {
		p = "/"
	}
	return fmt.Sprintf("%s: %s (%s)", p, v.Message, v.Keyword)
}

// Validator checks model output against the analysis schema and repairs it.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the analysis schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResourceName, strings.NewReader(analysisSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// analysisPayload is the part of AnalysisResult the model writes.
type analysisPayload struct {
	IdeaSummary            string                      `json:"ideaSummary"`
	SWOT                   models.SWOT                 `json:"swot"`
	CriticalQuestions      []string                    `json:"criticalQuestions"`
	ActionPlan             []string                    `json:"actionPlan"`
	TargetMarketStrategies []string                    `json:"targetMarketStrategies"`
	Competitors            []string                    `json:"competitors"`
	MarketDemandIndicators []string                    `json:"marketDemandIndicators"`
	Frameworks             []string                    `json:"frameworks"`
	InvestmentMemo         models.InvestmentMemo       `json:"investmentMemo"`
	InvestmentMemoScores   models.InvestmentMemoScores `json:"investmentMemoScores"`
	DueDiligenceTech       []models.DueDiligencePoint  `json:"dueDiligenceTech"`
	DueDiligenceGTM        []models.DueDiligencePoint  `json:"dueDiligenceGtm"`
	TechScore              float64                     `json:"techScore"`
	GTMScore               float64                     `json:"gtmScore"`
	ConfidenceScore        float64                     `json:"confidenceScore"`
	IndustryAverages       models.IndustryAverages     `json:"industryAverages"`
}

// Validate parses raw model output into an AnalysisResult. Output that is not a JSON
// object fails with KindMalformedResponse. Otherwise every schema violation is reported,
// wrongly typed values are dropped, missing fields are backfilled and scores are clamped
// to [0,100], so the returned result has no undefined field.
func (v *Validator) Validate(raw string) (*models.AnalysisResult, []Violation, error) {
	const op = "llm.Validate"
	body := stripFences(raw)
	if body == "" {
		return nil, nil, apperr.New(apperr.KindMalformedResponse, op, "empty model response")
	}
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindMalformedResponse, op, fmt.Errorf("parse model response: %w", err))
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, nil, apperr.New(apperr.KindMalformedResponse, op, "model response is not a JSON object")
	}

	var violations []Violation
	if err := v.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, nil, apperr.Wrap(apperr.KindInternal, op, err)
		}
		violations = collectViolations(ve)
		doc = repair(doc, violations)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, violations, apperr.Wrap(apperr.KindInternal, op, err)
	}
	var p analysisPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, violations, apperr.Wrap(apperr.KindMalformedResponse, op, fmt.Errorf("decode repaired response: %w", err))
	}
	backfill(&p)
	clampScores(&p)
	return p.toResult(), violations, nil
}

// stripFences removes Markdown code fences and any prose around the outermost object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") {
		start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// collectViolations flattens the error tree to its leaves. anyOf/oneOf failures are kept
// whole since their branches are alternatives, not separate problems.
func collectViolations(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		kw := lastSegment(e.KeywordLocation)
		if len(e.Causes) == 0 || kw == "anyOf" || kw == "oneOf" {
			out = append(out, Violation{Path: e.InstanceLocation, Keyword: kw, Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func lastSegment(ptr string) string {
	if i := strings.LastIndexByte(ptr, '/'); i >= 0 {
		return ptr[i+1:]
	}
	return ptr
}

// pruned marks a value to be dropped by sweep.
type pruned struct{}

// repair fixes what it can in place: numeric strings become numbers, due-diligence objects
// with a usable point are rebuilt from it, other wrongly typed values are removed.
// Missing keys and out-of-range numbers are left for backfill and clamping.
func repair(doc any, violations []Violation) any {
	for _, vi := range violations {
		switch vi.Keyword {
		case "required", "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum":
			continue
		}
		if vi.Path == pointerRoot {
			continue
		}
		tokens := splitPointer(vi.Path)
		parent, key, cur, ok := lookup(doc, tokens)
		if !ok {
			continue
		}
		replacement := any(pruned{})
		switch val := cur.(type) {
		case string:
			if n, ok := parseNumber(val); ok && vi.Keyword == "type" {
				replacement = n
			}
		case map[string]any:
			if vi.Keyword == "anyOf" {
				if item, ok := repairPoint(val); ok {
					replacement = item
				}
			}
		}
		set(parent, key, replacement)
	}
	return sweep(doc)
}

// repairPoint keeps a due-diligence object that has a usable point. Its score survives
// when it is numeric or a numeric string; range is fixed later by clamping.
func repairPoint(obj map[string]any) (map[string]any, bool) {
	pt, ok := obj["point"].(string)
	if !ok || strings.TrimSpace(pt) == "" {
		return nil, false
	}
	out := map[string]any{"point": pt}
	switch sc := obj["score"].(type) {
	case float64:
		out["score"] = sc
	case string:
		if n, ok := parseNumber(sc); ok {
			out["score"] = n
		}
	}
	return out, true
}

func splitPointer(ptr string) []string {
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return parts
}

// lookup walks tokens from doc and returns the container holding the final value.
func lookup(doc any, tokens []string) (parent any, key string, val any, ok bool) {
	cur := doc
	for i, tok := range tokens {
		parent, key = cur, tok
		switch c := cur.(type) {
		case map[string]any:
			cur, ok = c[tok]
			if !ok {
				return nil, "", nil, false
			}
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, "", nil, false
			}
			cur = c[idx]
		default:
			return nil, "", nil, false
		}
		if i == len(tokens)-1 {
			return parent, key, cur, true
		}
	}
	return nil, "", nil, false
}

func set(parent any, key string, val any) {
	switch p := parent.(type) {
	case map[string]any:
		p[key] = val
	case []any:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(p) {
			p[idx] = val
		}
	}
}

// sweep removes pruned markers from objects and arrays.
func sweep(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if _, drop := child.(pruned); drop {
				delete(t, k)
				continue
			}
			t[k] = sweep(child)
		}
		return t
	case []any:
		out := t[:0]
		for _, child := range t {
			if _, drop := child.(pruned); drop {
				continue
			}
			out = append(out, sweep(child))
		}
		return out
	default:
		return v
	}
}

// parseNumber accepts "85", "85.5" and "85%".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func backfill(p *analysisPayload) {
	if strings.TrimSpace(p.IdeaSummary) == "" {
		p.IdeaSummary = PlaceholderSummary
	}
	for _, f := range []*string{
		&p.InvestmentMemo.ExecutiveSummary, &p.InvestmentMemo.MarketOpportunity,
		&p.InvestmentMemo.BusinessModel, &p.InvestmentMemo.CompetitiveLandscape,
		&p.InvestmentMemo.TeamAssessment, &p.InvestmentMemo.InvestmentRecommendation,
	} {
		if strings.TrimSpace(*f) == "" {
			*f = PlaceholderMemo
		}
	}
	p.DueDiligenceTech = dropEmptyPoints(p.DueDiligenceTech)
	if len(p.DueDiligenceTech) == 0 {
		p.DueDiligenceTech = []models.DueDiligencePoint{{Point: placeholderDDTech}}
	}
	p.DueDiligenceGTM = dropEmptyPoints(p.DueDiligenceGTM)
	if len(p.DueDiligenceGTM) == 0 {
		p.DueDiligenceGTM = []models.DueDiligencePoint{{Point: placeholderDDGTM}}
	}
	for _, l := range []*[]string{
		&p.SWOT.Strengths, &p.SWOT.Weaknesses, &p.SWOT.Opportunities, &p.SWOT.Threats,
		&p.CriticalQuestions, &p.ActionPlan, &p.TargetMarketStrategies,
		&p.Competitors, &p.MarketDemandIndicators, &p.Frameworks,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
	for _, f := range []*string{
		&p.IndustryAverages.MarketSize, &p.IndustryAverages.GrowthRate,
		&p.IndustryAverages.CustomerAcquisitionCost, &p.IndustryAverages.LifetimeValue,
		&p.IndustryAverages.GrossMargin, &p.IndustryAverages.TimeToProfitability,
	} {
		if strings.TrimSpace(*f) == "" {
			*f = PlaceholderAverage
		}
	}
}

func dropEmptyPoints(in []models.DueDiligencePoint) []models.DueDiligencePoint {
	out := in[:0]
	for _, p := range in {
		if strings.TrimSpace(p.Point) != "" {
			out = append(out, p)
		}
	}
	return out
}

func clampScores(p *analysisPayload) {
	c := func(v *float64) { *v = utils.Clamp(utils.Finite(*v), 0, models.MaxScore) }
	c(&p.TechScore)
	c(&p.GTMScore)
	c(&p.ConfidenceScore)
	s := &p.InvestmentMemoScores
	for _, f := range []*float64{
		&s.ExecutiveSummary, &s.MarketOpportunity, &s.BusinessModel,
		&s.CompetitiveLandscape, &s.TeamAssessment, &s.InvestmentRecommendation,
	} {
		c(f)
	}
	for _, list := range [][]models.DueDiligencePoint{p.DueDiligenceTech, p.DueDiligenceGTM} {
		for i := range list {
			if list[i].Score != nil {
				v := *list[i].Score
				c(&v)
				list[i].Score = &v
			}
		}
	}
}

func (p *analysisPayload) toResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		IdeaSummary:            p.IdeaSummary,
		SWOT:                   p.SWOT,
		CriticalQuestions:      p.CriticalQuestions,
		ActionPlan:             p.ActionPlan,
		TargetMarketStrategies: p.TargetMarketStrategies,
		Competitors:            p.Competitors,
		MarketDemandIndicators: p.MarketDemandIndicators,
		Frameworks:             p.Frameworks,
		InvestmentMemo:         p.InvestmentMemo,
		InvestmentMemoScores:   p.InvestmentMemoScores,
		DueDiligenceTech:       p.DueDiligenceTech,
		DueDiligenceGTM:        p.DueDiligenceGTM,
		TechScore:              p.TechScore,
		GTMScore:               p.GTMScore,
		ConfidenceScore:        p.ConfidenceScore,
		IndustryAverages:       p.IndustryAverages,
	}
}
