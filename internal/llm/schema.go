package llm

import (
	"fmt"
	"strings"
)

// analysisSchema is the JSON Schema model output is validated against. Scores are
// bounded to 0-100; due-diligence items may be plain strings or {point, score} objects.
var analysisSchema = buildAnalysisSchema()

func buildAnalysisSchema() string {
	strList := `{"type": "array", "items": {"type": "string"}}`
	score := `{"type": "number", "minimum": 0, "maximum": 100}`
	ddItem := `{"anyOf": [{"type": "string"}, {"type": "object", "required": ["point"], ` +
		`"properties": {"point": {"type": "string"}, "score": ` + score + `}}]}`
	ddList := `{"type": "array", "items": ` + ddItem + `}`

	obj := func(kind string, keys ...string) string {
		props := make([]string, len(keys))
		for i, k := range keys {
			props[i] = fmt.Sprintf("%q: %s", k, kind)
		}
		return `{"type": "object", "properties": {` + strings.Join(props, ", ") + `}}`
	}
	memoKeys := []string{
		"executiveSummary", "marketOpportunity", "businessModel",
		"competitiveLandscape", "teamAssessment", "investmentRecommendation",
	}

	props := []string{
		`"ideaSummary": {"type": "string"}`,
		`"swot": ` + obj(strList, "strengths", "weaknesses", "opportunities", "threats"),
		`"criticalQuestions": ` + strList,
		`"actionPlan": ` + strList,
		`"targetMarketStrategies": ` + strList,
		`"competitors": ` + strList,
		`"marketDemandIndicators": ` + strList,
		`"frameworks": ` + strList,
		`"investmentMemo": ` + obj(`{"type": "string"}`, memoKeys...),
		`"investmentMemoScores": ` + obj(score, memoKeys...),
		`"dueDiligenceTech": ` + ddList,
		`"dueDiligenceGtm": ` + ddList,
		`"techScore": ` + score,
		`"gtmScore": ` + score,
		`"confidenceScore": ` + score,
		`"industryAverages": ` + obj(`{"type": "string"}`,
			"marketSize", "growthRate", "customerAcquisitionCost",
			"lifetimeValue", "grossMargin", "timeToProfitability"),
	}
	required := []string{
		"ideaSummary", "investmentMemo", "investmentMemoScores",
		"dueDiligenceTech", "dueDiligenceGtm", "techScore", "gtmScore", "confidenceScore",
	}
	for i, r := range required {
		required[i] = fmt.Sprintf("%q", r)
	}
	return `{"type": "object", "required": [` + strings.Join(required, ", ") + `], ` +
		`"properties": {` + strings.Join(props, ", ") + `}}`
}
