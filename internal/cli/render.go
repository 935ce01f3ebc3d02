// Package cli holds the command-line client: an HTTP client for the VentureLens API
// and renderers for its results.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
)

// OutputFormat is the format for analysis output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the raw AnalysisResult as indented JSON.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json". Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (allowed: text, json)", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

// WriteAnalysis writes result to w in the given format.
func WriteAnalysis(w io.Writer, result *models.AnalysisResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	writeAnalysisText(w, result)
	return nil
}

func writeAnalysisText(w io.Writer, r *models.AnalysisResult) {
	fmt.Fprintf(w, "\nAnalysis %s (%s stage)\n", r.AnalysisID, r.StartupStage)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Global score: %.2f | Tech: %.2f | GTM: %.2f | Confidence: %.2f\n",
		r.GlobalScore, r.TechScore, r.GTMScore, r.ConfidenceScore)
	if r.Weights != nil {
		fmt.Fprintf(w, "Weights: tech %.2f, gtm %.2f, memo %.2f\n",
			r.Weights.Tech, r.Weights.GTM, r.Weights.InvestmentMemo)
	}
	fmt.Fprintf(w, "\n%s\n", r.IdeaSummary)

	section(w, "Strengths", r.SWOT.Strengths)
	section(w, "Weaknesses", r.SWOT.Weaknesses)
	section(w, "Opportunities", r.SWOT.Opportunities)
	section(w, "Threats", r.SWOT.Threats)
	section(w, "Critical questions", r.CriticalQuestions)
	section(w, "Action plan", r.ActionPlan)
	section(w, "Target market strategies", r.TargetMarketStrategies)
	section(w, "Competitors", r.Competitors)
	section(w, "Market demand indicators", r.MarketDemandIndicators)
	section(w, "Frameworks", r.Frameworks)

	fmt.Fprintf(w, "\nInvestment memo\n%s\n", rule)
	memo, scores := r.InvestmentMemo, r.InvestmentMemoScores
	for _, m := range []struct {
		title string
		body  string
		score float64
	}{
		{"Executive summary", memo.ExecutiveSummary, scores.ExecutiveSummary},
		{"Market opportunity", memo.MarketOpportunity, scores.MarketOpportunity},
		{"Business model", memo.BusinessModel, scores.BusinessModel},
		{"Competitive landscape", memo.CompetitiveLandscape, scores.CompetitiveLandscape},
		{"Team assessment", memo.TeamAssessment, scores.TeamAssessment},
		{"Recommendation", memo.InvestmentRecommendation, scores.InvestmentRecommendation},
	} {
		fmt.Fprintf(w, "%s (%.0f/100)\n  %s\n", m.title, m.score, m.body)
	}

	dueDiligence(w, "Technical due diligence", r.DueDiligenceTech)
	dueDiligence(w, "Go-to-market due diligence", r.DueDiligenceGTM)

	avg := r.IndustryAverages
	fmt.Fprintf(w, "\nIndustry averages\n%s\n", rule)
	fmt.Fprintf(w, "Market size: %s\nGrowth rate: %s\nCAC: %s\nLTV: %s\nGross margin: %s\nTime to profitability: %s\n",
		avg.MarketSize, avg.GrowthRate, avg.CustomerAcquisitionCost, avg.LifetimeValue, avg.GrossMargin, avg.TimeToProfitability)

	if d := r.PitchDeckInfo; r.PitchDeckProcessed && d != nil {
		fmt.Fprintf(w, "\nPitch deck (%s, %d words)\n%s\n", d.ExtractionMethod, d.WordCount, rule)
		fmt.Fprintf(w, "Funding: %s\nMarket size: %s\nRevenue: %s\nCustomers: %s\nTeam size: %s\n",
			d.FundingRequirement, d.MarketSize, d.RevenueProjections, d.CustomerBase, d.TeamSize)
		fmt.Fprintf(w, "Sentiment: %s | Deck scores: tech %.2f, gtm %.2f, confidence %.2f\n",
			d.Sentiment, d.TechScore, d.GTMScore, d.ConfidenceScore)
	}
	fmt.Fprintln(w)
}

func section(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func dueDiligence(w io.Writer, title string, points []models.DueDiligencePoint) {
	if len(points) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, p := range points {
		if p.Score != nil {
			fmt.Fprintf(w, "  - [%.0f] %s\n", *p.Score, p.Point)
		} else {
			fmt.Fprintf(w, "  - %s\n", p.Point)
		}
	}
}

// WriteSavedList writes saved analysis summaries, one per line.
func WriteSavedList(w io.Writer, items []*models.SavedAnalysis) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No saved analyses")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "%s  %s  %6.2f  %s\n", it.ID, it.Date, it.GlobalScore, utils.Truncate(it.IdeaSummary, 60))
	}
}
