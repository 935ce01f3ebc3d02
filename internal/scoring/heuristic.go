package scoring

import (
	"math"

	"github.com/hyperjump/venturelens/pkg/utils"
)

const (
	detailBase     = 0.5
	detailStep     = 0.1
	detailBonusCap = 0.5
)

// DetailScore scores a dimension from the number of extracted detail lines: 0.5 for any
// detail plus 0.1 per line up to 0.5, rounded to two decimals. It is in [0,1] and
// reaches 1 at five lines.
func DetailScore(n int) float64 {
	if n <= 0 {
		return 0
	}
	score := detailBase + math.Min(detailStep*float64(n), detailBonusCap)
	return utils.Round2(utils.Clamp(score, 0, 1))
}

// Confidence is the mean of the tech and GTM detail scores, rounded to two decimals.
func Confidence(tech, gtm float64) float64 {
	return utils.Round2(utils.Clamp((tech+gtm)/2, 0, 1))
}
