package models

import (
	"fmt"
	"strings"
)

// Stage is the declared maturity of a startup.
type Stage string

const (
	StageEarly  Stage = "early"
	StageGrowth Stage = "growth"
	StageLate   Stage = "late"
)

// ParseStage parses a stage name. An empty string yields StageEarly.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case "", StageEarly:
		return StageEarly, nil
	case StageGrowth:
		return StageGrowth, nil
	case StageLate:
		return StageLate, nil
	default:
		return "", fmt.Errorf("unknown startup stage %q (allowed: early, growth, late)", s)
	}
}

// Weights are the fractional weights of the three global-score components.
type Weights struct {
	Tech           float64 `json:"tech" yaml:"tech"`
	GTM            float64 `json:"gtm" yaml:"gtm"`
	InvestmentMemo float64 `json:"investmentMemo" yaml:"investment_memo"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Tech + w.GTM + w.InvestmentMemo
}

// WeightOverrides is a partial weight map supplied by the user. Nil entries keep the
// stage default.
type WeightOverrides struct {
	Tech           *float64 `json:"tech,omitempty"`
	GTM            *float64 `json:"gtm,omitempty"`
	InvestmentMemo *float64 `json:"investmentMemo,omitempty"`
}

// Empty reports whether no entry is overridden.
func (o *WeightOverrides) Empty() bool {
	return o == nil || (o.Tech == nil && o.GTM == nil && o.InvestmentMemo == nil)
}

// Apply returns base with every non-nil override substituted.
func (o *WeightOverrides) Apply(base Weights) Weights {
	if o == nil {
		return base
	}
	if o.Tech != nil {
		base.Tech = *o.Tech
	}
	if o.GTM != nil {
		base.GTM = *o.GTM
	}
	if o.InvestmentMemo != nil {
		base.InvestmentMemo = *o.InvestmentMemo
	}
	return base
}
