package models

import "time"

type Method string

const (
	MethodMonteCarlo   Method = "monte_carlo"
	MethodBlackScholes Method = "black_scholes"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodMonteCarlo, "mc", "":
		return MethodMonteCarlo, nil
	case MethodBlackScholes, "bs":
		return MethodBlackScholes, nil
	}
	return "", InvalidParameter("method", 0, "unknown pricing method "+s)
}

// PriceEstimate is the result of one pricer call. SampleSize and StandardError are zero for
// analytical prices.
type PriceEstimate struct {
	Value         float64 `json:"value"`
	Method        Method  `json:"method"`
	SampleSize    int     `json:"sample_size,omitempty"`
	StandardError float64 `json:"standard_error,omitempty"`
}

// ConfidenceInterval returns value ± z·SE. For analytical estimates both bounds equal the value.
func (e PriceEstimate) ConfidenceInterval(z float64) (float64, float64) {
	return e.Value - z*e.StandardError, e.Value + z*e.StandardError
}

// PricePoint is one close observation from a market data source.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}
