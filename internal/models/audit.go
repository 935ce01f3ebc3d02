package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Feedback is a user's rating of one analysis.
type Feedback struct {
	AnalysisID string `json:"analysisId"`
	Rating     int    `json:"rating"`
	Comments   string `json:"comments"`
}

// Validate checks the feedback fields.
func (f *Feedback) Validate() error {
	f.AnalysisID = strings.TrimSpace(f.AnalysisID)
	if f.AnalysisID == "" {
		return fmt.Errorf("analysisId is required")
	}
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// AuditRecord is one entry of the append-only audit log.
type AuditRecord struct {
	Feedback  *Feedback       `json:"feedback,omitempty"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// SavedAnalysis is the locally saved summary of an analysis.
type SavedAnalysis struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	IdeaSummary string  `json:"ideaSummary"`
	GlobalScore float64 `json:"globalScore"`
}

// NewSavedAnalysis summarizes result for the local saved-analysis store.
func NewSavedAnalysis(result *AnalysisResult, now time.Time) *SavedAnalysis {
	return &SavedAnalysis{
		ID:          result.AnalysisID,
		Date:        now.UTC().Format(time.RFC3339),
		IdeaSummary: result.IdeaSummary,
		GlobalScore: result.GlobalScore,
	}
}
