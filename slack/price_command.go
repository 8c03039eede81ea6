package gbmcslack

import (
	"fmt"
	"strings"

	"github.com/bcdannyboy/gbmc/blackscholes"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/bcdannyboy/gbmc/probability"
	"github.com/bcdannyboy/gbmc/report"
)

type PriceHandler struct {
	settings Settings
}

func NewPriceHandler(settings Settings) *PriceHandler {
	return &PriceHandler{settings: settings}
}

// MonteCarlo prices a call by simulation and returns the reply text.
func (h *PriceHandler) MonteCarlo(text string) string {
	a, err := parseArgs(text, "paths", "seed")
	if err != nil {
		return usage(err, mcpriceUsage)
	}
	params, contract, err := h.build(a)
	if err != nil {
		return usage(err, mcpriceUsage)
	}

	est, err := probability.SimulateAndPrice(params, contract)
	if err != nil {
		return fmt.Sprintf("Simulation failed: %v", err)
	}
	lo, hi := est.ConfidenceInterval(1.96)
	return fmt.Sprintf("Monte Carlo call price: %s\nStandard error: %s (95%% CI %s to %s)\nPaths: %d, steps: %d",
		report.FormatPrice(est.Value, 4),
		report.FormatPrice(est.StandardError, 4),
		report.FormatPrice(lo, 4),
		report.FormatPrice(hi, 4),
		params.PathCount,
		params.StepCount)
}

// BlackScholes prices a call analytically and returns the reply text.
func (h *PriceHandler) BlackScholes(text string) string {
	a, err := parseArgs(text)
	if err != nil {
		return usage(err, bspriceUsage)
	}
	price, err := blackscholes.CallPrice(a.S0, a.K, a.T, a.R, a.Sigma)
	if err != nil {
		return usage(err, bspriceUsage)
	}
	g, err := blackscholes.CallGreeks(a.S0, a.K, a.T, a.R, a.Sigma)
	if err != nil {
		return usage(err, bspriceUsage)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Black-Scholes call price: %s\n", report.FormatPrice(price, 4))
	fmt.Fprintf(&b, "Delta %s, Gamma %s, Vega %s, Theta %s, Rho %s",
		report.FormatPrice(g.Delta, 4),
		report.FormatPrice(g.Gamma, 4),
		report.FormatPrice(g.Vega, 4),
		report.FormatPrice(g.Theta, 4),
		report.FormatPrice(g.Rho, 4))
	return b.String()
}

// build turns command arguments into risk-neutral parameters with a horizon equal to T.
func (h *PriceHandler) build(a commandArgs) (models.SimulationParameters, models.OptionContract, error) {
	return buildParams(h.settings, a)
}

func buildParams(s Settings, a commandArgs) (models.SimulationParameters, models.OptionContract, error) {
	paths := a.Paths
	if paths == 0 {
		paths = s.Paths
	}
	if s.MaxPaths > 0 && paths > s.MaxPaths {
		return models.SimulationParameters{}, models.OptionContract{}, models.InvalidParameter("paths", float64(paths), fmt.Sprintf("at most %d", s.MaxPaths))
	}
	params := models.NewSimulationParameters(a.S0, a.R, a.Sigma, a.T, s.Steps, paths, a.R)
	if a.HasSeed {
		params = params.WithSeed(a.Seed)
	}
	if err := params.Validate(); err != nil {
		return models.SimulationParameters{}, models.OptionContract{}, err
	}
	contract := models.NewCallContract(a.K, a.T)
	if err := contract.Validate(); err != nil {
		return models.SimulationParameters{}, models.OptionContract{}, err
	}
	return params, contract, nil
}

func usage(err error, usage string) string {
	return fmt.Sprintf("Invalid arguments: %v\nUsage: %s", err, usage)
}
