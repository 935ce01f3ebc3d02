package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
)

func TestAnalysis_withoutDeck(t *testing.T) {
	b := NewBuilder(Limits{})
	got := b.Analysis(Input{
		Idea:    "An AI scheduling tool for freelancers",
		Weights: models.Weights{Tech: 0.4, GTM: 0.3, InvestmentMemo: 0.3},
	})
	for _, want := range []string{
		"An AI scheduling tool for freelancers",
		"Target market: " + models.NotSpecified,
		"Startup stage: early",
		"tech 0.40, go-to-market 0.30, investment memo 0.30",
		"No pitch deck was provided",
		`"investmentMemoScores"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for i := range RequiredSections {
		if !strings.Contains(got, RequiredSections[i]) {
			t.Errorf("prompt missing section %d", i+1)
		}
	}
}

func TestAnalysis_deckFieldsAndPlaceholders(t *testing.T) {
	deck := &models.PitchDeckInfo{
		FundingRequirement: "$3M",
		TechDetails:        []string{"vision arm", "fleet control"},
		Sentiment:          models.SentimentPositive,
		ExtractionMethod:   models.ExtractionOCR,
		Excerpt:            "Slide text about robots",
	}
	got := NewBuilder(Limits{}).Analysis(Input{Idea: "Robots", Stage: models.StageGrowth, Deck: deck})
	for _, want := range []string{
		"- Funding requirement: $3M",
		"- Market size: " + models.NotSpecified,
		"- Technology details: vision arm; fleet control",
		"- Go-to-market details: " + models.NotSpecified,
		"- Text source: ocr",
		"Pitch deck excerpt:\nSlide text about robots",
		"Startup stage: growth",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalysis_deckSummaryReplacesExcerpt(t *testing.T) {
	deck := &models.PitchDeckInfo{Excerpt: "raw slide text"}
	got := NewBuilder(Limits{}).Analysis(Input{Idea: "x", Deck: deck, DeckSummary: "condensed"})
	if !strings.Contains(got, "Pitch deck summary:\ncondensed") {
		t.Error("summary not used")
	}
	if strings.Contains(got, "raw slide text") {
		t.Error("raw excerpt should be replaced by the summary")
	}
}

func TestAnalysis_truncatesDeckSummary(t *testing.T) {
	deck := &models.PitchDeckInfo{Excerpt: "raw slide text"}
	got := NewBuilder(Limits{MaxDeckWords: 3}).Analysis(Input{
		Idea:        "x",
		Deck:        deck,
		DeckSummary: "alpha beta gamma delta epsilon",
	})
	if !strings.Contains(got, "Pitch deck summary:\nalpha beta gamma"+utils.TruncatedMarker) {
		t.Errorf("summary not truncated:\n%s", got)
	}
	if strings.Contains(got, "delta") {
		t.Error("summary longer than the word cap")
	}
}

func TestAnalysis_truncatesIdea(t *testing.T) {
	idea := strings.Repeat("a", 50)
	got := NewBuilder(Limits{MaxIdeaChars: 10}).Analysis(Input{Idea: idea})
	if !strings.Contains(got, strings.Repeat("a", 10)+utils.TruncatedMarker) {
		t.Error("idea should be cut with the truncation marker")
	}
	if strings.Contains(got, strings.Repeat("a", 11)) {
		t.Error("idea longer than the cap")
	}
}

func TestAnalysis_truncatesDeckExcerpt(t *testing.T) {
	deck := &models.PitchDeckInfo{Excerpt: "one two three four five six"}
	got := NewBuilder(Limits{MaxDeckWords: 3}).Analysis(Input{Idea: "x", Deck: deck})
	if !strings.Contains(got, "one two three"+utils.TruncatedMarker) {
		t.Errorf("excerpt not truncated:\n%s", got)
	}
}

func TestNeedsSummary(t *testing.T) {
	b := NewBuilder(Limits{MaxDeckWords: 3})
	if b.NeedsSummary("a b c") {
		t.Error("exactly at cap needs no summary")
	}
	if !b.NeedsSummary("a b c d") {
		t.Error("over cap needs a summary")
	}
}

func TestSummary(t *testing.T) {
	got := NewBuilder(Limits{MaxDeckWords: 2}).Summary("w1 w2 w3 w4 w5 w6 w7 w8 w9 w10")
	if !strings.Contains(got, "at most 2 words") {
		t.Error("word limit missing")
	}
	if !strings.Contains(got, "w8"+utils.TruncatedMarker) || strings.Contains(got, "w9") {
		t.Errorf("summary input should be capped at 8 words:\n%s", got)
	}
}

func TestResponseShapeIsValidJSON(t *testing.T) {
	var v map[string]any
	if err := json.Unmarshal([]byte(ResponseShape), &v); err != nil {
		t.Fatalf("ResponseShape is not JSON: %v", err)
	}
	for _, key := range []string{"dueDiligenceTech", "dueDiligenceGtm", "investmentMemo", "techScore"} {
		if _, ok := v[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}
}
