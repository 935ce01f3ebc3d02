package models

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// DeckUpload is a pitch-deck file attached to an analysis request.
type DeckUpload struct {
	Filename string
	Content  []byte
}

// Ext returns the lowercase extension of the upload without the dot.
func (d *DeckUpload) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Filename)), ".")
}

// AnalysisRequest is one idea submission.
type AnalysisRequest struct {
	Query         string
	TargetMarket  string
	Stage         Stage
	CustomWeights *WeightOverrides
	Deck          *DeckUpload
}

// Validate checks required fields and normalizes the stage.
func (r *AnalysisRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	r.TargetMarket = strings.TrimSpace(r.TargetMarket)
	stage, err := ParseStage(string(r.Stage))
	if err != nil {
		return err
	}
	r.Stage = stage
	if w := r.CustomWeights; w != nil {
		for name, v := range map[string]*float64{"tech": w.Tech, "gtm": w.GTM, "investmentMemo": w.InvestmentMemo} {
			if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return fmt.Errorf("custom weight %s must be a non-negative number", name)
			}
		}
	}
	return nil
}
