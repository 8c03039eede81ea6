package models

import (
	"math"
)

// SimulationParameters configures one GBM simulation. It is a value type: the With* methods
// return modified copies and never touch the receiver.
type SimulationParameters struct {
	InitialPrice float64 `json:"initial_price" yaml:"initial_price"` // S0
	Drift        float64 `json:"drift" yaml:"drift"`                 // Annualized drift (mu)
	Volatility   float64 `json:"volatility" yaml:"volatility"`       // Annualized volatility (sigma)
	HorizonYears float64 `json:"horizon_years" yaml:"horizon_years"` // Simulated horizon in years
	StepCount    int     `json:"step_count" yaml:"step_count"`       // Number of time steps
	PathCount    int     `json:"path_count" yaml:"path_count"`       // Number of simulated paths
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	Seed         uint64  `json:"seed,omitempty" yaml:"seed"`
	HasSeed      bool    `json:"has_seed,omitempty" yaml:"has_seed"`
}

func NewSimulationParameters(s0, drift, volatility, horizon float64, steps, paths int, r float64) SimulationParameters {
	return SimulationParameters{
		InitialPrice: s0,
		Drift:        drift,
		Volatility:   volatility,
		HorizonYears: horizon,
		StepCount:    steps,
		PathCount:    paths,
		RiskFreeRate: r,
	}
}

func (p SimulationParameters) WithPathCount(n int) SimulationParameters {
	p.PathCount = n
	return p
}

func (p SimulationParameters) WithStepCount(n int) SimulationParameters {
	p.StepCount = n
	return p
}

func (p SimulationParameters) WithVolatility(sigma float64) SimulationParameters {
	p.Volatility = sigma
	return p
}

func (p SimulationParameters) WithDrift(mu float64) SimulationParameters {
	p.Drift = mu
	return p
}

func (p SimulationParameters) WithRiskFreeRate(r float64) SimulationParameters {
	p.RiskFreeRate = r
	return p
}

func (p SimulationParameters) WithHorizon(years float64) SimulationParameters {
	p.HorizonYears = years
	return p
}

func (p SimulationParameters) WithSeed(seed uint64) SimulationParameters {
	p.Seed = seed
	p.HasSeed = true
	return p
}

// Unseeded drops any fixed seed so the next simulation draws from process entropy.
func (p SimulationParameters) Unseeded() SimulationParameters {
	p.Seed = 0
	p.HasSeed = false
	return p
}

// RiskNeutral sets the drift equal to the risk-free rate.
func (p SimulationParameters) RiskNeutral() SimulationParameters {
	return p.WithDrift(p.RiskFreeRate)
}

// TimeStep returns dt = HorizonYears / StepCount.
func (p SimulationParameters) TimeStep() float64 {
	return p.HorizonYears / float64(p.StepCount)
}

// Validate checks every numeric precondition and reports the first violation as a *ParameterError.
func (p SimulationParameters) Validate() error {
	switch {
	case !isFinite(p.InitialPrice) || p.InitialPrice <= 0:
		return InvalidParameter("initial_price", p.InitialPrice, "must be finite and > 0")
	case !isFinite(p.Drift):
		return InvalidParameter("drift", p.Drift, "must be finite")
	case !isFinite(p.Volatility) || p.Volatility < 0:
		return InvalidParameter("volatility", p.Volatility, "must be finite and >= 0")
	case !isFinite(p.HorizonYears) || p.HorizonYears <= 0:
		return InvalidParameter("horizon_years", p.HorizonYears, "must be finite and > 0")
	case p.StepCount < 1:
		return InvalidParameter("step_count", float64(p.StepCount), "must be >= 1")
	case p.PathCount < 1:
		return InvalidParameter("path_count", float64(p.PathCount), "must be >= 1")
	case !isFinite(p.RiskFreeRate):
		return InvalidParameter("risk_free_rate", p.RiskFreeRate, "must be finite")
	}
	return nil
}

type OptionKind string

const (
	Call OptionKind = "call"
)

// OptionContract is a European option. Only calls are supported.
type OptionContract struct {
	Strike        float64    `json:"strike" yaml:"strike"`
	MaturityYears float64    `json:"maturity_years" yaml:"maturity_years"`
	Kind          OptionKind `json:"kind" yaml:"kind"`
}

func NewCallContract(strike, maturity float64) OptionContract {
	return OptionContract{Strike: strike, MaturityYears: maturity, Kind: Call}
}

func (c OptionContract) WithStrike(k float64) OptionContract {
	c.Strike = k
	return c
}

func (c OptionContract) Validate() error {
	switch {
	case !isFinite(c.Strike) || c.Strike <= 0:
		return InvalidParameter("strike", c.Strike, "must be finite and > 0")
	case !isFinite(c.MaturityYears) || c.MaturityYears <= 0:
		return InvalidParameter("maturity_years", c.MaturityYears, "must be finite and > 0")
	case c.Kind != "" && c.Kind != Call:
		return InvalidParameter("kind", 0, "only call options are supported, got "+string(c.Kind))
	}
	return nil
}

// Payoff returns the settlement value of the contract for a terminal price.
func (c OptionContract) Payoff(terminal float64) float64 {
	return math.Max(terminal-c.Strike, 0)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
