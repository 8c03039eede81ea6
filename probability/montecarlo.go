package probability

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/gbmc/models"
	"gonum.org/v1/gonum/stat"
)

// PriceEuropeanCall prices contract from the terminal column of paths:
//
//	value = e^{-rT} * mean(max(S_T - K, 0))
//	SE    = e^{-rT} * stddev(payoffs) / sqrt(n)
//
// with the unbiased (n-1) sample standard deviation. A single path has zero standard error.
func PriceEuropeanCall(paths *models.PathMatrix, contract models.OptionContract, riskFreeRate float64) (models.PriceEstimate, error) {
	if paths.PathCount() == 0 {
		return models.PriceEstimate{}, fmt.Errorf("%w: no paths to price", models.ErrEmptyInput)
	}
	if err := contract.Validate(); err != nil {
		return models.PriceEstimate{}, err
	}
	if math.IsNaN(riskFreeRate) || math.IsInf(riskFreeRate, 0) {
		return models.PriceEstimate{}, models.InvalidParameter("risk_free_rate", riskFreeRate, "must be finite")
	}

	payoffs, err := payoffs(paths, contract)
	if err != nil {
		return models.PriceEstimate{}, err
	}

	n := len(payoffs)
	discount := math.Exp(-riskFreeRate * contract.MaturityYears)

	var mean, stdErr float64
	if n == 1 {
		mean = payoffs[0]
	} else {
		var std float64
		mean, std = stat.MeanStdDev(payoffs, nil)
		stdErr = discount * std / math.Sqrt(float64(n))
	}

	return models.PriceEstimate{
		Value:         discount * mean,
		Method:        models.MethodMonteCarlo,
		SampleSize:    n,
		StandardError: stdErr,
	}, nil
}

// SimulateAndPrice generates a fresh PathMatrix from params and prices contract against it
// using params.RiskFreeRate for discounting.
func SimulateAndPrice(params models.SimulationParameters, contract models.OptionContract) (models.PriceEstimate, error) {
	paths, err := models.GeneratePaths(params)
	if err != nil {
		return models.PriceEstimate{}, fmt.Errorf("generating paths: %w", err)
	}
	return PriceEuropeanCall(paths, contract, params.RiskFreeRate)
}

func payoffs(paths *models.PathMatrix, contract models.OptionContract) ([]float64, error) {
	terminal := paths.Terminal()
	out := make([]float64, len(terminal))
	for i, sT := range terminal {
		if math.IsNaN(sT) || math.IsInf(sT, 0) || sT <= 0 {
			return nil, fmt.Errorf("%w: terminal price of path %d is %v", models.ErrNumericInstability, i, sT)
		}
		out[i] = contract.Payoff(sT)
	}
	return out, nil
}
