package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MaxScore is the upper bound of every score exposed in an AnalysisResult.
const MaxScore = 100.0

// SWOT is a strengths/weaknesses/opportunities/threats breakdown.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// InvestmentMemo holds the six prose sections of the memo.
type InvestmentMemo struct {
	ExecutiveSummary         string `json:"executiveSummary"`
	MarketOpportunity        string `json:"marketOpportunity"`
	BusinessModel            string `json:"businessModel"`
	CompetitiveLandscape     string `json:"competitiveLandscape"`
	TeamAssessment           string `json:"teamAssessment"`
	InvestmentRecommendation string `json:"investmentRecommendation"`
}

// InvestmentMemoScores holds a 0-100 quality score per memo section.
type InvestmentMemoScores struct {
	ExecutiveSummary         float64 `json:"executiveSummary"`
	MarketOpportunity        float64 `json:"marketOpportunity"`
	BusinessModel            float64 `json:"businessModel"`
	CompetitiveLandscape     float64 `json:"competitiveLandscape"`
	TeamAssessment           float64 `json:"teamAssessment"`
	InvestmentRecommendation float64 `json:"investmentRecommendation"`
}

// Values returns the six scores in memo order.
func (s InvestmentMemoScores) Values() []float64 {
	return []float64{
		s.ExecutiveSummary, s.MarketOpportunity, s.BusinessModel,
		s.CompetitiveLandscape, s.TeamAssessment, s.InvestmentRecommendation,
	}
}

// DueDiligencePoint is one evaluative statement with an optional 0-100 score.
type DueDiligencePoint struct {
	Point string   `json:"point"`
	Score *float64 `json:"score,omitempty"`
}

// UnmarshalJSON accepts either {"point": "...", "score": n} or a bare string.
func (p *DueDiligencePoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = DueDiligencePoint{Point: s}
		return nil
	}
	type plain DueDiligencePoint
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("due diligence point: %w", err)
	}
	*p = DueDiligencePoint(v)
	return nil
}

// IndustryAverages are descriptive benchmark figures for the idea's industry.
type IndustryAverages struct {
	MarketSize              string `json:"marketSize"`
	GrowthRate              string `json:"growthRate"`
	CustomerAcquisitionCost string `json:"customerAcquisitionCost"`
	LifetimeValue           string `json:"lifetimeValue"`
	GrossMargin             string `json:"grossMargin"`
	TimeToProfitability     string `json:"timeToProfitability"`
}

// AnalysisResult is the full response for one analysis request. Scores are 0-100.
type AnalysisResult struct {
	AnalysisID             string               `json:"analysisId"`
	CreatedAt              time.Time            `json:"createdAt"`
	IdeaSummary            string               `json:"ideaSummary"`
	SWOT                   SWOT                 `json:"swot"`
	CriticalQuestions      []string             `json:"criticalQuestions"`
	ActionPlan             []string             `json:"actionPlan"`
	TargetMarketStrategies []string             `json:"targetMarketStrategies"`
	Competitors            []string             `json:"competitors"`
	MarketDemandIndicators []string             `json:"marketDemandIndicators"`
	Frameworks             []string             `json:"frameworks"`
	InvestmentMemo         InvestmentMemo       `json:"investmentMemo"`
	InvestmentMemoScores   InvestmentMemoScores `json:"investmentMemoScores"`
	DueDiligenceTech       []DueDiligencePoint  `json:"dueDiligenceTech"`
	DueDiligenceGTM        []DueDiligencePoint  `json:"dueDiligenceGtm"`
	GlobalScore            float64              `json:"globalScore"`
	ConfidenceScore        float64              `json:"confidenceScore"`
	TechScore              float64              `json:"techScore"`
	GTMScore               float64              `json:"gtmScore"`
	IndustryAverages       IndustryAverages     `json:"industryAverages"`
	PitchDeckProcessed     bool                 `json:"pitchDeckProcessed"`
	PitchDeckInfo          *PitchDeckInfo       `json:"pitchDeckInfo,omitempty"`
	StartupStage           Stage                `json:"startupStage"`
	Weights                *Weights             `json:"weights,omitempty"`
}

// AllScoresZero reports whether every top-level score is exactly zero, which the
// client treats as a degenerate model response.
func (r *AnalysisResult) AllScoresZero() bool {
	return r.GlobalScore == 0 && r.ConfidenceScore == 0 && r.TechScore == 0 && r.GTMScore == 0
}
