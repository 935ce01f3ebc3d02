// Package deck turns extracted pitch-deck text into a PitchDeckInfo using lenient
// pattern rules. Rules prefer leaving a field "Not specified" over guessing.
package deck

import (
	"strings"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/scoring"
	"github.com/hyperjump/venturelens/pkg/utils"
)

// maxSummaryChars bounds the prose fields copied from section bodies.
const maxSummaryChars = 600

// Parse extracts fields, sections, sentiment and heuristic scores from text. The
// returned ExtractionMethod is "extracted"; callers that know better overwrite it.
func Parse(text string) *models.PitchDeckInfo {
	fields := ExtractFields(text)
	info := &models.PitchDeckInfo{
		FundingRequirement: orNotSpecified(fields["fundingRequirement"]),
		MarketSize:         orNotSpecified(fields["marketSize"]),
		RevenueProjections: orNotSpecified(fields["revenueProjections"]),
		CustomerBase:       orNotSpecified(fields["customerBase"]),
		TeamSize:           orNotSpecified(fields["teamSize"]),
		TechDetails:        []string{},
		GTMDetails:         []string{},
		ExtractionMethod:   models.ExtractionExtracted,
		WordCount:          utils.CountWords(text),
		Excerpt:            text,
	}

	var businessModel, advantage, team []string
	for _, s := range SplitSections(text) {
		if s.Body == "" {
			continue
		}
		switch s.Kind {
		case KindTechnology:
			info.TechDetails = append(info.TechDetails, Details(s.Body)...)
		case KindGoToMarket:
			info.GTMDetails = append(info.GTMDetails, Details(s.Body)...)
		case KindBusinessModel:
			businessModel = append(businessModel, summarize(s.Body))
		case KindCompetitiveAdvantage:
			advantage = append(advantage, summarize(s.Body))
		case KindTeam:
			team = append(team, summarize(s.Body))
		}
	}
	info.TechDetails = dedupe(info.TechDetails)
	info.GTMDetails = dedupe(info.GTMDetails)
	info.BusinessModel = joinOrNotSpecified(businessModel)
	info.CompetitiveAdvantage = joinOrNotSpecified(advantage)
	info.TeamInfo = joinOrNotSpecified(team)

	sent := scoring.Sentiment(text)
	info.Sentiment = sent.Label
	info.SentimentScores = sent.Scores

	info.TechScore = scoring.DetailScore(len(info.TechDetails))
	info.GTMScore = scoring.DetailScore(len(info.GTMDetails))
	info.ConfidenceScore = scoring.Confidence(info.TechScore, info.GTMScore)
	return info
}

// summarize flattens a section body to one line of bounded length.
func summarize(body string) string {
	return utils.Truncate(strings.Join(Details(body), "; "), maxSummaryChars)
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NotSpecified
	}
	return s
}

func joinOrNotSpecified(parts []string) string {
	return orNotSpecified(strings.Join(dedupe(parts), " | "))
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
