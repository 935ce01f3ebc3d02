// Package models defines the data structures exchanged by the analysis pipeline.
package models

// NotSpecified is the placeholder for a pitch-deck field no rule could extract.
const NotSpecified = "Not specified"

// ExtractionMethod records which path produced a deck's text.
type ExtractionMethod string

const (
	// ExtractionExtracted means the text came from the document's own text layer.
	ExtractionExtracted ExtractionMethod = "extracted"
	// ExtractionOCR means primary extraction was too thin and OCR supplied the text.
	ExtractionOCR ExtractionMethod = "ocr"
	// ExtractionFailed means neither path produced text; a placeholder was used.
	ExtractionFailed ExtractionMethod = "failed"
)

// Sentiment is the dominant sentiment label of a deck.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SentimentScores holds the normalized share of each sentiment bucket, each in [0,1].
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// PitchDeckInfo holds the facts extracted from one uploaded deck and the heuristic
// scores derived from them. Scores are on the [0,1] scale.
type PitchDeckInfo struct {
	FundingRequirement   string           `json:"fundingRequirement"`
	TechDetails          []string         `json:"techDetails"`
	GTMDetails           []string         `json:"gtmDetails"`
	MarketSize           string           `json:"marketSize"`
	CompetitiveAdvantage string           `json:"competitiveAdvantage"`
	TeamInfo             string           `json:"teamInfo"`
	TeamSize             string           `json:"teamSize"`
	BusinessModel        string           `json:"businessModel"`
	RevenueProjections   string           `json:"revenueProjections"`
	CustomerBase         string           `json:"customerBase"`
	Sentiment            Sentiment        `json:"sentiment"`
	SentimentScores      SentimentScores  `json:"sentimentScores"`
	ConfidenceScore      float64          `json:"confidenceScore"`
	TechScore            float64          `json:"techScore"`
	GTMScore             float64          `json:"gtmScore"`
	ExtractionMethod     ExtractionMethod `json:"extractionMethod"`
	WordCount            int              `json:"wordCount"`
	// Excerpt is the extracted text the prompt builder quotes from. Not sent to clients.
	Excerpt string `json:"-"`
}
