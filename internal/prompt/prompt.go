// Package prompt builds the instructions sent to the language model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
)

// Default input caps.
const (
	DefaultMaxIdeaChars = 4000
	DefaultMaxDeckWords = 1500
)

// Limits bound how much user content is quoted into a prompt.
type Limits struct {
	MaxIdeaChars int
	MaxDeckWords int
}

// Input is everything the analysis prompt is built from.
type Input struct {
	Idea         string
	TargetMarket string
	Stage        models.Stage
	Weights      models.Weights
	Deck         *models.PitchDeckInfo
	// DeckSummary replaces the raw excerpt when a summarization pass ran.
	DeckSummary string
}

// Builder renders prompts.
type Builder struct {
	limits Limits
}

// NewBuilder returns a Builder. Zero limits get the defaults.
func NewBuilder(limits Limits) *Builder {
	if limits.MaxIdeaChars <= 0 {
		limits.MaxIdeaChars = DefaultMaxIdeaChars
	}
	if limits.MaxDeckWords <= 0 {
		limits.MaxDeckWords = DefaultMaxDeckWords
	}
	return &Builder{limits: limits}
}

// RequiredSections are the analysis sections the model must return, in prompt order.
var RequiredSections = []string{
	"ideaSummary: a two or three sentence summary of the idea",
	"swot: strengths, weaknesses, opportunities and threats",
	"criticalQuestions: questions a founder must answer before building",
	"actionPlan: concrete next steps",
	"targetMarketStrategies: how to reach the target market",
	"competitors: existing companies or products in the space",
	"marketDemandIndicators: signals of demand",
	"frameworks: business frameworks that apply (e.g. Lean Canvas, Porter's Five Forces)",
	"investmentMemo: executiveSummary, marketOpportunity, businessModel, competitiveLandscape, teamAssessment, investmentRecommendation",
	"investmentMemoScores: a 0-100 quality score for each of the six memo sections",
	"dueDiligenceTech and dueDiligenceGtm: evaluative points, each with a 0-100 score",
	"techScore, gtmScore, confidenceScore: numbers from 0 to 100",
	"industryAverages: marketSize, growthRate, customerAcquisitionCost, lifetimeValue, grossMargin, timeToProfitability",
}

// ResponseShape is the literal JSON layout the model is asked to follow.
const ResponseShape = `{
  "ideaSummary": "string",
  "swot": {
    "strengths": ["string"],
    "weaknesses": ["string"],
    "opportunities": ["string"],
    "threats": ["string"]
  },
  "criticalQuestions": ["string"],
  "actionPlan": ["string"],
  "targetMarketStrategies": ["string"],
  "competitors": ["string"],
  "marketDemandIndicators": ["string"],
  "frameworks": ["string"],
  "investmentMemo": {
    "executiveSummary": "string",
    "marketOpportunity": "string",
    "businessModel": "string",
    "competitiveLandscape": "string",
    "teamAssessment": "string",
    "investmentRecommendation": "string"
  },
  "investmentMemoScores": {
    "executiveSummary": 0,
    "marketOpportunity": 0,
    "businessModel": 0,
    "competitiveLandscape": 0,
    "teamAssessment": 0,
    "investmentRecommendation": 0
  },
  "dueDiligenceTech": [{"point": "string", "score": 0}],
  "dueDiligenceGtm": [{"point": "string", "score": 0}],
  "techScore": 0,
  "gtmScore": 0,
  "confidenceScore": 0,
  "industryAverages": {
    "marketSize": "string",
    "growthRate": "string",
    "customerAcquisitionCost": "string",
    "lifetimeValue": "string",
    "grossMargin": "string",
    "timeToProfitability": "string"
  }
}`

// Analysis renders the main analysis prompt.
func (b *Builder) Analysis(in Input) string {
	var sb strings.Builder

	idea, _ := utils.TruncateChars(strings.TrimSpace(in.Idea), b.limits.MaxIdeaChars)
	sb.WriteString("You are an experienced venture capital analyst. Evaluate the startup idea below ")
	sb.WriteString("and respond with a single JSON object only, no prose and no code fences.\n\n")

	sb.WriteString("## Startup idea\n")
	sb.WriteString(idea)
	sb.WriteString("\n\n")

	market := strings.TrimSpace(in.TargetMarket)
	if market == "" {
		market = models.NotSpecified
	}
	stage := in.Stage
	if stage == "" {
		stage = models.StageEarly
	}
	fmt.Fprintf(&sb, "Target market: %s\n", market)
	fmt.Fprintf(&sb, "Startup stage: %s\n", stage)
	fmt.Fprintf(&sb, "Scoring weights: tech %s, go-to-market %s, investment memo %s\n\n",
		formatWeight(in.Weights.Tech), formatWeight(in.Weights.GTM), formatWeight(in.Weights.InvestmentMemo))

	sb.WriteString("## Pitch deck\n")
	if in.Deck == nil {
		sb.WriteString("No pitch deck was provided. Base the analysis on the idea alone.\n\n")
	} else {
		writeDeck(&sb, in.Deck)
		excerpt, _ := b.DeckExcerpt(in.DeckSummary)
		label := "Pitch deck summary"
		if excerpt == "" {
			excerpt, _ = b.DeckExcerpt(in.Deck.Excerpt)
			label = "Pitch deck excerpt"
		}
		if excerpt != "" {
			fmt.Fprintf(&sb, "\n%s:\n%s\n", label, excerpt)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Required sections\n")
	for i, s := range RequiredSections {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}
	sb.WriteString("\nScore every numeric field on a 0-100 scale. Weigh the overall assessment with the ")
	sb.WriteString("scoring weights above.\n\n")
	sb.WriteString("## JSON schema\n")
	sb.WriteString(ResponseShape)
	sb.WriteString("\n")
	return sb.String()
}

// DeckExcerpt cuts deck text to the word cap. The second value reports a cut.
func (b *Builder) DeckExcerpt(text string) (string, bool) {
	return utils.TruncateWords(strings.TrimSpace(text), b.limits.MaxDeckWords)
}

// NeedsSummary reports whether text is longer than the excerpt word cap.
func (b *Builder) NeedsSummary(text string) bool {
	return utils.CountWords(text) > b.limits.MaxDeckWords
}

// Summary renders the prompt that condenses a long deck before analysis. The deck text
// is capped at four times the excerpt word limit.
func (b *Builder) Summary(text string) string {
	body, _ := utils.TruncateWords(strings.TrimSpace(text), b.limits.MaxDeckWords*4)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the following startup pitch deck in at most %d words. ", b.limits.MaxDeckWords)
	sb.WriteString("Keep every concrete figure (funding ask, market size, revenue, customers, team size), ")
	sb.WriteString("the technology, the go-to-market plan, the business model and the team. ")
	sb.WriteString("Respond with plain text only.\n\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	return sb.String()
}

func writeDeck(sb *strings.Builder, d *models.PitchDeckInfo) {
	line := func(label, v string) {
		if strings.TrimSpace(v) == "" {
			v = models.NotSpecified
		}
		fmt.Fprintf(sb, "- %s: %s\n", label, v)
	}
	list := func(label string, items []string) {
		if len(items) == 0 {
			line(label, "")
			return
		}
		line(label, strings.Join(items, "; "))
	}
	line("Funding requirement", d.FundingRequirement)
	line("Market size", d.MarketSize)
	line("Revenue projections", d.RevenueProjections)
	line("Customer base", d.CustomerBase)
	line("Team size", d.TeamSize)
	line("Team", d.TeamInfo)
	line("Business model", d.BusinessModel)
	line("Competitive advantage", d.CompetitiveAdvantage)
	list("Technology details", d.TechDetails)
	list("Go-to-market details", d.GTMDetails)
	line("Deck sentiment", fmt.Sprintf("%s (positive %.2f, negative %.2f, neutral %.2f)",
		d.Sentiment, d.SentimentScores.Positive, d.SentimentScores.Negative, d.SentimentScores.Neutral))
	line("Heuristic scores", fmt.Sprintf("tech %.2f, go-to-market %.2f, confidence %.2f (0-1 scale)",
		d.TechScore, d.GTMScore, d.ConfidenceScore))
	line("Text source", string(d.ExtractionMethod))
}

func formatWeight(w float64) string {
	return fmt.Sprintf("%.2f", w)
}
