package models

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// GeometricBrownianMotion simulates price paths with the exact log-normal solution
//
//	S(t+dt) = S(t) * exp((mu - 0.5*sigma^2)*dt + sigma*sqrt(dt)*Z)
//
// which carries no discretization bias at any step size.
type GeometricBrownianMotion struct {
	Params SimulationParameters
}

func NewGeometricBrownianMotion(params SimulationParameters) (*GeometricBrownianMotion, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &GeometricBrownianMotion{Params: params}, nil
}

// GeneratePaths validates params and simulates params.PathCount trajectories of
// params.StepCount steps each from a stream seeded by params.
func GeneratePaths(params SimulationParameters) (*PathMatrix, error) {
	return GeneratePathsFrom(params, nil)
}

// GeneratePathsFrom is GeneratePaths with a caller-supplied stream. params.Seed is ignored
// unless rng is nil.
func GeneratePathsFrom(params SimulationParameters, rng *rand.Rand) (*PathMatrix, error) {
	g, err := NewGeometricBrownianMotion(params)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(params)
	}
	return g.SimulatePaths(rng)
}

// SimulatePaths draws the variates step-major: all paths for step 1, then all paths for
// step 2, and so on. The same stream therefore produces the same matrix regardless of how
// the result is consumed.
func (g *GeometricBrownianMotion) SimulatePaths(rng *rand.Rand) (*PathMatrix, error) {
	p := g.Params
	dt := p.TimeStep()
	drift := (p.Drift - 0.5*p.Volatility*p.Volatility) * dt
	diffusion := p.Volatility * math.Sqrt(dt)

	data := mat.NewDense(p.PathCount, p.StepCount+1, nil)
	raw := data.RawMatrix()
	for i := 0; i < p.PathCount; i++ {
		raw.Data[i*raw.Stride] = p.InitialPrice
	}

	for t := 1; t <= p.StepCount; t++ {
		for i := 0; i < p.PathCount; i++ {
			row := i * raw.Stride
			z := rng.NormFloat64()
			raw.Data[row+t] = raw.Data[row+t-1] * math.Exp(drift+diffusion*z)
		}
	}

	m := &PathMatrix{data: data, dt: dt}
	if err := m.checkPositive(); err != nil {
		return nil, err
	}
	return m, nil
}
