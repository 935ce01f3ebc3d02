// Package scoring computes the deterministic scores of the analysis pipeline: keyword
// sentiment, detail-count heuristics and the stage-weighted global score.
package scoring

import (
	"strings"
	"unicode"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
)

var positiveTerms = wordSet(
	"growth", "growing", "grow", "innovative", "innovation", "profitable", "profit",
	"strong", "success", "successful", "leading", "leader", "unique", "scalable",
	"proven", "efficient", "opportunity", "opportunities", "excellent", "exceptional",
	"breakthrough", "disruptive", "traction", "robust", "momentum", "expanding",
	"advantage", "winning", "best", "trusted", "loyal", "increase", "increased",
	"improve", "improved", "gain", "gains", "positive", "promising", "outperform",
	"award", "record", "secure", "love",
)

var negativeTerms = wordSet(
	"risk", "risks", "risky", "decline", "declining", "loss", "losses", "challenge",
	"challenges", "difficult", "problem", "problems", "weak", "weakness", "threat",
	"threats", "fail", "failure", "failed", "slow", "costly", "expensive", "debt",
	"churn", "uncertain", "uncertainty", "struggle", "struggling", "limited", "lack",
	"lacking", "concern", "concerns", "negative", "decrease", "decreased", "drop",
	"poor", "delay", "delays", "bankrupt", "lawsuit",
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// SentimentResult is the outcome of one sentiment pass.
type SentimentResult struct {
	Label  models.Sentiment
	Scores models.SentimentScores
	// Counts are the raw word counts behind Scores.
	Positive, Negative, Neutral, Total int
}

// Sentiment counts whole-word, case-insensitive vocabulary hits in one pass over text.
// Neutral is every remaining word, never below zero. Empty text is fully neutral. The
// label is the bucket with the strictly greatest share; ties are neutral.
func Sentiment(text string) SentimentResult {
	words := tokenize(text)
	var res SentimentResult
	res.Total = len(words)
	for _, w := range words {
		if _, ok := positiveTerms[w]; ok {
			res.Positive++
		} else if _, ok := negativeTerms[w]; ok {
			res.Negative++
		}
	}
	res.Neutral = res.Total - res.Positive - res.Negative
	if res.Neutral < 0 {
		res.Neutral = 0
	}

	if res.Total == 0 {
		res.Label = models.SentimentNeutral
		res.Scores = models.SentimentScores{Neutral: 1}
		return res
	}
	total := float64(res.Total)
	res.Scores = models.SentimentScores{
		Positive: utils.Round2(utils.Clamp(float64(res.Positive)/total, 0, 1)),
		Negative: utils.Round2(utils.Clamp(float64(res.Negative)/total, 0, 1)),
		Neutral:  utils.Round2(utils.Clamp(float64(res.Neutral)/total, 0, 1)),
	}
	res.Label = dominant(res.Positive, res.Negative, res.Neutral)
	return res
}

// dominant compares raw counts so rounding cannot create or hide a tie.
func dominant(pos, neg, neu int) models.Sentiment {
	switch {
	case pos > neg && pos > neu:
		return models.SentimentPositive
	case neg > pos && neg > neu:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
