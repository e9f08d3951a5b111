package analytics

import (
	"github.com/aristath/riskdesk/pkg/formulas"
)

// ComputeDiversification scores the concentration of the given market
// values. A zero total is NoValue.
func ComputeDiversification(values []float64) (Diversification, error) {
	weights := formulas.NormalizeWeights(values)
	if weights == nil {
		return Diversification{}, newError(KindNoValue, "portfolio has no market value")
	}

	total := 0.0
	for _, v := range values {
		total += v
	}

	hhi := formulas.HHI(weights)
	maxWeight := formulas.MaxWeight(weights)

	concentration := ConcentrationLow
	switch {
	case maxWeight > 0.40:
		concentration = ConcentrationHigh
	case maxWeight > 0.25:
		concentration = ConcentrationMedium
	}

	return Diversification{
		Score:             formulas.Round(formulas.DiversificationScore(hhi, len(weights)), 1),
		HHI:               formulas.Round(hhi, 4),
		EffectiveHoldings: formulas.Round(formulas.EffectiveHoldings(hhi), 3),
		Concentration:     concentration,
		Top3WeightPct:     formulas.Round(formulas.TopNWeight(weights, 3)*100, 2),
		MaxWeightPct:      formulas.Round(maxWeight*100, 2),
		Holdings:          len(weights),
		TotalValue:        formulas.Round(total, 2),
	}, nil
}
