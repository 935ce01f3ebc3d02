package scoring

import (
	"github.com/hyperjump/venturelens/internal/models"
)

// WeightTable maps a startup stage to its default component weights.
type WeightTable map[models.Stage]models.Weights

// DefaultWeightTable returns the built-in stage table.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		models.StageEarly:  {Tech: 0.4, GTM: 0.3, InvestmentMemo: 0.3},
		models.StageGrowth: {Tech: 0.3, GTM: 0.4, InvestmentMemo: 0.3},
		models.StageLate:   {Tech: 0.2, GTM: 0.3, InvestmentMemo: 0.5},
	}
}

// Resolve returns the stage's weights with each override substituted. Unknown stages
// use the early row. Weights are not renormalized.
func (t WeightTable) Resolve(stage models.Stage, overrides *models.WeightOverrides) models.Weights {
	base, ok := t[stage]
	if !ok {
		if base, ok = t[models.StageEarly]; !ok {
			base = DefaultWeightTable()[models.StageEarly]
		}
	}
	return overrides.Apply(base)
}

// Clone returns a copy of t that shares no storage with it.
func (t WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
