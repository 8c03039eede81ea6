// Package blackscholes prices European calls with the closed-form Black-Scholes model.
// Every function is pure and safe for concurrent use.
package blackscholes

import (
	"math"

	"github.com/bcdannyboy/gbmc/models"
	"gonum.org/v1/gonum/stat/distuv"
)

// CallPrice returns S0·Φ(d1) − K·e^{−rT}·Φ(d2).
func CallPrice(s0, k, t, r, sigma float64) (float64, error) {
	d1, d2, err := D1D2(s0, k, t, r, sigma)
	if err != nil {
		return 0, err
	}
	return s0*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2), nil
}

// D1D2 returns the two standardized moneyness terms of the Black-Scholes formula.
func D1D2(s0, k, t, r, sigma float64) (float64, float64, error) {
	if err := validate(s0, k, t, r, sigma); err != nil {
		return 0, 0, err
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s0/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT, nil
}

// Price prices contract under params with the same volatility and rate that drive the
// Monte Carlo simulation, so the two estimates are directly comparable.
func Price(params models.SimulationParameters, contract models.OptionContract) (models.PriceEstimate, error) {
	if err := contract.Validate(); err != nil {
		return models.PriceEstimate{}, err
	}
	v, err := CallPrice(params.InitialPrice, contract.Strike, contract.MaturityYears, params.RiskFreeRate, params.Volatility)
	if err != nil {
		return models.PriceEstimate{}, err
	}
	return models.PriceEstimate{Value: v, Method: models.MethodBlackScholes}, nil
}

// DiscountedIntrinsic is the σ→0 limit of the call price under risk-neutral drift:
// max(S0·e^{rT} − K, 0)·e^{−rT}.
func DiscountedIntrinsic(s0, k, t, r float64) float64 {
	return math.Max(s0-k*math.Exp(-r*t), 0)
}

func validate(s0, k, t, r, sigma float64) error {
	switch {
	case math.IsNaN(s0) || math.IsInf(s0, 0) || s0 <= 0:
		return models.InvalidParameter("initial_price", s0, "must be finite and > 0")
	case math.IsNaN(k) || math.IsInf(k, 0) || k <= 0:
		return models.InvalidParameter("strike", k, "must be finite and > 0")
	case math.IsNaN(t) || math.IsInf(t, 0) || t <= 0:
		return models.InvalidParameter("maturity_years", t, "must be finite and > 0")
	case math.IsNaN(r) || math.IsInf(r, 0):
		return models.InvalidParameter("risk_free_rate", r, "must be finite")
	case math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0:
		return models.InvalidParameter("volatility", sigma, "must be finite and > 0")
	}
	return nil
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
