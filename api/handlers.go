package api

import (
	"fmt"
	"net/http"

	"github.com/bcdannyboy/gbmc/analysis"
	"github.com/bcdannyboy/gbmc/blackscholes"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/bcdannyboy/gbmc/probability"
	"github.com/bcdannyboy/gbmc/report"
)

// Request is the body shared by every POST endpoint. Fields an endpoint does not use are ignored.
// The simulation horizon always equals MaturityYears.
type Request struct {
	InitialPrice  float64  `json:"initial_price"`
	Strike        float64  `json:"strike"`
	RiskFreeRate  float64  `json:"risk_free_rate"`
	MaturityYears float64  `json:"maturity_years"`
	Volatility    float64  `json:"volatility"`
	Drift         *float64 `json:"drift,omitempty"`
	Steps         int      `json:"steps"`
	Paths         int      `json:"paths"`
	Seed          *uint64  `json:"seed,omitempty"`

	MaxPaths int `json:"max_paths,omitempty"`

	PathCounts []int  `json:"path_counts,omitempty"`
	SeedPolicy string `json:"seed_policy,omitempty"`

	VolatilityAxis []float64 `json:"volatility_axis,omitempty"`
	StrikeAxis     []float64 `json:"strike_axis,omitempty"`
	Method         string    `json:"method,omitempty"`
	SeedsPerCell   int       `json:"seeds_per_cell,omitempty"`
	BestEffort     bool      `json:"best_effort,omitempty"`
}

type PriceResponse struct {
	MonteCarlo   models.PriceEstimate `json:"monte_carlo"`
	BlackScholes models.PriceEstimate `json:"black_scholes"`
	Difference   float64              `json:"difference"`
	Greeks       blackscholes.Greeks  `json:"greeks"`
}

func (s *Server) defaultRequest() Request {
	d := s.Defaults
	req := Request{
		InitialPrice:  d.InitialPrice,
		Strike:        s.Contract.Strike,
		RiskFreeRate:  d.RiskFreeRate,
		MaturityYears: s.Contract.MaturityYears,
		Volatility:    d.Volatility,
		Steps:         d.StepCount,
		Paths:         d.PathCount,
	}
	if d.HasSeed {
		seed := d.Seed
		req.Seed = &seed
	}
	return req
}

func (s *Server) parameters(req Request) (models.SimulationParameters, models.OptionContract, error) {
	drift := req.RiskFreeRate
	if req.Drift != nil {
		drift = *req.Drift
	}
	p := models.NewSimulationParameters(req.InitialPrice, drift, req.Volatility, req.MaturityYears, req.Steps, req.Paths, req.RiskFreeRate)
	if req.Seed != nil {
		p = p.WithSeed(*req.Seed)
	}
	if err := p.Validate(); err != nil {
		return p, models.OptionContract{}, err
	}
	if err := s.checkSize(p.PathCount, p.StepCount); err != nil {
		return p, models.OptionContract{}, err
	}
	c := models.NewCallContract(req.Strike, req.MaturityYears)
	if err := c.Validate(); err != nil {
		return p, c, err
	}
	return p, c, nil
}

// checkSize rejects a single simulation larger than the server limits. Sizes are compared
// by division so large requested values cannot overflow.
func (s *Server) checkSize(paths, steps int) error {
	if s.MaxPaths > 0 && paths > s.MaxPaths {
		return models.InvalidParameter("paths", float64(paths), "exceeds server limit")
	}
	if s.MaxSteps > 0 && steps > s.MaxSteps {
		return models.InvalidParameter("steps", float64(steps), "exceeds server limit")
	}
	if s.MaxPoints > 0 && steps >= s.MaxPoints/paths {
		return models.InvalidParameter("paths", float64(paths), fmt.Sprintf("paths x (steps+1) exceeds %d", s.MaxPoints))
	}
	return nil
}

// checkGrid bounds the total paths a sensitivity sweep may simulate to 100·MaxPaths.
func (s *Server) checkGrid(cells, paths, seeds int) error {
	if seeds < 0 || (s.MaxSeedsPerCell > 0 && seeds > s.MaxSeedsPerCell) {
		return models.InvalidParameter("seeds_per_cell", float64(seeds), "outside server limit")
	}
	if s.MaxPaths <= 0 {
		return nil
	}
	if seeds < 1 {
		seeds = 1
	}
	if cells > s.MaxPaths*100/paths/seeds {
		return models.InvalidParameter("cells", float64(cells), "grid too large for server limit")
	}
	return nil
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) PriceHandler(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	params, contract, err := s.parameters(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	bs, err := blackscholes.Price(params, contract)
	if err != nil {
		s.writeError(w, err)
		return
	}
	mc, err := probability.SimulateAndPrice(params, contract)
	if err != nil {
		s.writeError(w, err)
		return
	}
	greeks, err := blackscholes.CallGreeks(params.InitialPrice, contract.Strike, contract.MaturityYears, params.RiskFreeRate, params.Volatility)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, PriceResponse{
		MonteCarlo:   mc,
		BlackScholes: bs,
		Difference:   mc.Value - bs.Value,
		Greeks:       greeks,
	})
}

func (s *Server) PathsHandler(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	params, _, err := s.parameters(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	paths, err := models.GeneratePaths(params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	limit := s.SnapshotPaths
	if req.MaxPaths > 0 && (limit <= 0 || req.MaxPaths < limit) {
		limit = req.MaxPaths
	}
	s.writeJSON(w, http.StatusOK, report.PathSnapshot(paths, limit))
}

func (s *Server) ConvergenceHandler(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	params, contract, err := s.parameters(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, n := range req.PathCounts {
		if n < 1 {
			continue
		}
		if err := s.checkSize(n, params.StepCount); err != nil {
			s.writeError(w, err)
			return
		}
	}
	policy, err := analysis.ParseSeedPolicy(req.SeedPolicy)
	if err != nil {
		s.writeError(w, err)
		return
	}

	a := analysis.NewConvergenceAnalyzer()
	a.SeedPolicy = policy
	a.Workers = s.Workers
	a.Logger = s.Logger
	rep, err := a.Run(r.Context(), params, contract, req.PathCounts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) SensitivityHandler(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	params, _, err := s.parameters(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cells := len(req.VolatilityAxis) * len(req.StrikeAxis)
	if err := s.checkGrid(cells, params.PathCount, req.SeedsPerCell); err != nil {
		s.writeError(w, err)
		return
	}
	policy, err := analysis.ParseSeedPolicy(req.SeedPolicy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	method, err := models.ParseMethod(req.Method)
	if err != nil {
		s.writeError(w, err)
		return
	}

	a := analysis.NewSensitivityAnalyzer()
	a.Method = method
	a.SeedPolicy = policy
	a.SeedsPerCell = req.SeedsPerCell
	a.Workers = s.Workers
	a.BestEffort = req.BestEffort
	a.Logger = s.Logger
	grid, err := a.Run(r.Context(), params, req.VolatilityAxis, req.StrikeAxis, req.RiskFreeRate, req.MaturityYears)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, grid)
}
