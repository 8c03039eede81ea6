package probability

import (
	"math"
	"sort"

	"github.com/bcdannyboy/gbmc/models"
	"gonum.org/v1/gonum/stat"
)

// RiskResult summarizes the loss distribution of a long call bought at Premium and held to maturity.
// Losses are in present-value terms; positive numbers are losses.
type RiskResult struct {
	Premium             float64 `json:"premium"`
	Confidence          float64 `json:"confidence"`
	VaR                 float64 `json:"var"`
	ExpectedShortfall   float64 `json:"expected_shortfall"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
}

// PayoffRisk computes Value at Risk and Expected Shortfall of buying contract at premium,
// using the simulated terminal prices in paths.
func PayoffRisk(paths *models.PathMatrix, contract models.OptionContract, premium, riskFreeRate, confidence float64) (RiskResult, error) {
	if paths.PathCount() == 0 {
		return RiskResult{}, models.ErrEmptyInput
	}
	if err := contract.Validate(); err != nil {
		return RiskResult{}, err
	}
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return RiskResult{}, models.InvalidParameter("confidence", confidence, "must be in (0, 1)")
	}
	if math.IsNaN(premium) || math.IsInf(premium, 0) || premium < 0 {
		return RiskResult{}, models.InvalidParameter("premium", premium, "must be finite and >= 0")
	}

	p, err := payoffs(paths, contract)
	if err != nil {
		return RiskResult{}, err
	}

	discount := math.Exp(-riskFreeRate * contract.MaturityYears)
	losses := make([]float64, len(p))
	profitable := 0
	for i, payoff := range p {
		losses[i] = premium - discount*payoff
		if losses[i] < 0 {
			profitable++
		}
	}
	sort.Float64s(losses)

	v := stat.Quantile(confidence, stat.Empirical, losses, nil)

	var tail float64
	var count int
	for i := len(losses) - 1; i >= 0 && losses[i] >= v; i-- {
		tail += losses[i]
		count++
	}

	return RiskResult{
		Premium:             premium,
		Confidence:          confidence,
		VaR:                 v,
		ExpectedShortfall:   tail / float64(count),
		ProbabilityOfProfit: float64(profitable) / float64(len(losses)),
	}, nil
}
