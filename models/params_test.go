package models

import (
	"errors"
	"math"
	"testing"
)

func validParams() SimulationParameters {
	return NewSimulationParameters(100, 0.05, 0.2, 1, 252, 1000, 0.05).WithSeed(42)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		p     SimulationParameters
		field string
	}{
		{"zero price", validParams().WithHorizon(1).withS0(0), "initial_price"},
		{"negative price", validParams().withS0(-1), "initial_price"},
		{"nan drift", validParams().WithDrift(math.NaN()), "drift"},
		{"negative vol", validParams().WithVolatility(-0.1), "volatility"},
		{"inf vol", validParams().WithVolatility(math.Inf(1)), "volatility"},
		{"zero horizon", validParams().WithHorizon(0), "horizon_years"},
		{"zero steps", validParams().WithStepCount(0), "step_count"},
		{"zero paths", validParams().WithPathCount(0), "path_count"},
		{"inf rate", validParams().WithRiskFreeRate(math.Inf(-1)), "risk_free_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("Validate() = %v, want ErrInvalidParameter", err)
			}
			var pe *ParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("error %v is not a *ParameterError", err)
			}
			if pe.Field != tt.field {
				t.Errorf("Field = %q, want %q", pe.Field, tt.field)
			}
		})
	}

	if err := validParams().Validate(); err != nil {
		t.Errorf("valid parameters rejected: %v", err)
	}
	if err := validParams().WithVolatility(0).Validate(); err != nil {
		t.Errorf("zero volatility rejected: %v", err)
	}
}

func (p SimulationParameters) withS0(s0 float64) SimulationParameters {
	p.InitialPrice = s0
	return p
}

func TestOverridesCopy(t *testing.T) {
	base := validParams()
	changed := base.WithPathCount(5).WithVolatility(0.5).Unseeded()

	if base.PathCount != 1000 || base.Volatility != 0.2 || !base.HasSeed {
		t.Errorf("base modified: %+v", base)
	}
	if changed.PathCount != 5 || changed.Volatility != 0.5 || changed.HasSeed {
		t.Errorf("override not applied: %+v", changed)
	}
	if rn := base.WithDrift(0.3).RiskNeutral(); rn.Drift != rn.RiskFreeRate {
		t.Errorf("RiskNeutral drift = %v, want %v", rn.Drift, rn.RiskFreeRate)
	}
}

func TestContractValidate(t *testing.T) {
	if err := NewCallContract(100, 1).Validate(); err != nil {
		t.Fatalf("valid contract rejected: %v", err)
	}
	bad := []OptionContract{
		NewCallContract(0, 1),
		NewCallContract(100, 0),
		NewCallContract(math.NaN(), 1),
		{Strike: 100, MaturityYears: 1, Kind: "put"},
	}
	for _, c := range bad {
		if err := c.Validate(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidParameter", c, err)
		}
	}
}

func TestPayoff(t *testing.T) {
	c := NewCallContract(100, 1)
	if got := c.Payoff(120); got != 20 {
		t.Errorf("Payoff(120) = %v, want 20", got)
	}
	if got := c.Payoff(80); got != 0 {
		t.Errorf("Payoff(80) = %v, want 0", got)
	}
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": MethodMonteCarlo, "mc": MethodMonteCarlo, "bs": MethodBlackScholes, "black_scholes": MethodBlackScholes} {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMethod("binomial"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ParseMethod(binomial) error = %v", err)
	}
}
