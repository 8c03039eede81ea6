package blackscholes

import "math"

// Greeks holds the first-order sensitivities of a European call. Theta is per year.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

func CallGreeks(s0, k, t, r, sigma float64) (Greeks, error) {
	d1, d2, err := D1D2(s0, k, t, r, sigma)
	if err != nil {
		return Greeks{}, err
	}
	sqrtT := math.Sqrt(t)
	discount := math.Exp(-r * t)
	pdf := normPDF(d1)

	return Greeks{
		Delta: normCDF(d1),
		Gamma: pdf / (s0 * sigma * sqrtT),
		Vega:  s0 * pdf * sqrtT,
		Theta: -(s0*pdf*sigma)/(2*sqrtT) - r*k*discount*normCDF(d2),
		Rho:   k * t * discount * normCDF(d2),
	}, nil
}
