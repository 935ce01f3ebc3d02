package scoring

import (
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
)

// Inputs are the model-reported and deck-derived signals for one analysis. Model scores
// are on the 0-100 scale; Deck scores are on the 0-1 scale.
type Inputs struct {
	TechScore        float64
	GTMScore         float64
	ConfidenceScore  float64
	DueDiligenceTech []models.DueDiligencePoint
	DueDiligenceGTM  []models.DueDiligencePoint
	MemoScores       models.InvestmentMemoScores
	Deck             *models.PitchDeckInfo
}

// Result holds the final sub-scores and global score, each in [0,100].
type Result struct {
	Tech       float64
	GTM        float64
	Memo       float64
	Confidence float64
	Global     float64
	Weights    models.Weights
}

// Aggregate blends model and deck signals into sub-scores and computes the weighted
// global score with w.
//
// Tech and GTM use the model score, or the mean of the scored due-diligence points when
// the model left it at zero; with a deck the value is averaged with the deck score.
// Memo is the mean of the six memo-quality scores.
func Aggregate(in Inputs, w models.Weights) Result {
	tech := modelScore(in.TechScore, in.DueDiligenceTech)
	gtm := modelScore(in.GTMScore, in.DueDiligenceGTM)
	conf := clampScore(in.ConfidenceScore)
	if in.Deck != nil {
		tech = blend(tech, in.Deck.TechScore)
		gtm = blend(gtm, in.Deck.GTMScore)
		conf = blend(conf, in.Deck.ConfidenceScore)
	}

	memoValues := in.MemoScores.Values()
	for i, v := range memoValues {
		memoValues[i] = clampScore(v)
	}
	memo := utils.Round2(utils.Mean(memoValues))

	return Result{
		Tech:       tech,
		GTM:        gtm,
		Memo:       memo,
		Confidence: conf,
		Global:     GlobalScore(tech, gtm, memo, w),
		Weights:    w,
	}
}

// GlobalScore returns Σ(score·weight)/Σ(weight) clamped to [0,100], or 0 when the
// weights sum to zero or less. NaN and infinite inputs count as 0.
func GlobalScore(tech, gtm, memo float64, w models.Weights) float64 {
	wt, wg, wm := utils.Finite(w.Tech), utils.Finite(w.GTM), utils.Finite(w.InvestmentMemo)
	total := wt + wg + wm
	if total <= 0 {
		return 0
	}
	sum := utils.Finite(tech)*wt + utils.Finite(gtm)*wg + utils.Finite(memo)*wm
	return utils.Round2(clampScore(sum / total))
}

func modelScore(score float64, points []models.DueDiligencePoint) float64 {
	if s := clampScore(score); s > 0 {
		return s
	}
	var scored []float64
	for _, p := range points {
		if p.Score != nil {
			scored = append(scored, clampScore(*p.Score))
		}
	}
	return utils.Round2(utils.Mean(scored))
}

// blend averages a 0-100 model score with a 0-1 deck score.
func blend(model, deck float64) float64 {
	return utils.Round2(clampScore((model + clampScore(deck*models.MaxScore)) / 2))
}

func clampScore(v float64) float64 {
	return utils.Clamp(utils.Finite(v), 0, models.MaxScore)
}
