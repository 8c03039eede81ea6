package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/bcdannyboy/gbmc/blackscholes"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/bcdannyboy/gbmc/probability"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// SensitivityGrid is a price surface over (volatility, strike). Values[i][j] prices
// VolatilityAxis[i] against StrikeAxis[j].
type SensitivityGrid struct {
	VolatilityAxis []float64     `json:"volatility_axis"`
	StrikeAxis     []float64     `json:"strike_axis"`
	Values         [][]float64   `json:"values"`
	StandardErrors [][]float64   `json:"standard_errors,omitempty"`
	Method         models.Method `json:"method"`
	SeedPolicy     SeedPolicy    `json:"seed_policy,omitempty"`
	SeedsPerCell   int           `json:"seeds_per_cell,omitempty"`
	// Failures lists cells that could not be priced in best-effort mode. Their value is zero.
	Failures []CellFailure `json:"failures,omitempty"`
}

type CellFailure struct {
	VolIndex    int    `json:"vol_index"`
	StrikeIndex int    `json:"strike_index"`
	Err         string `json:"error"`
}

// Rows returns len(VolatilityAxis) and Cols len(StrikeAxis).
func (g *SensitivityGrid) Rows() int { return len(g.VolatilityAxis) }
func (g *SensitivityGrid) Cols() int { return len(g.StrikeAxis) }

// SensitivityAnalyzer sweeps a call price over a volatility by strike grid.
type SensitivityAnalyzer struct {
	// Method selects the pricer. Empty means Monte Carlo.
	Method     models.Method
	SeedPolicy SeedPolicy
	// SeedsPerCell averages each Monte Carlo cell over this many independent streams.
	SeedsPerCell int
	Workers      int
	// BestEffort records failed cells instead of aborting the sweep.
	BestEffort bool
	// Progress is called once per finished cell, possibly from several goroutines.
	Progress func()
	Logger   *slog.Logger
}

func NewSensitivityAnalyzer() *SensitivityAnalyzer {
	return &SensitivityAnalyzer{
		Method:       models.MethodMonteCarlo,
		SeedPolicy:   SeedShared,
		SeedsPerCell: 1,
		Workers:      1,
	}
}

// Axis returns n evenly spaced values from lo to hi inclusive.
func Axis(lo, hi float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, models.InvalidParameter("points", float64(n), "must be >= 1")
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, models.InvalidParameter("range", lo, "bounds must be finite")
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}

// Run prices every (volatility, strike) cell. Each cell copies base with the cell's
// volatility, the given rate and maturity, and the risk-neutral drift r.
func (a *SensitivityAnalyzer) Run(ctx context.Context, base models.SimulationParameters, volAxis, strikeAxis []float64, riskFreeRate, maturity float64) (*SensitivityGrid, error) {
	if len(volAxis) == 0 {
		return nil, fmt.Errorf("%w: volatility axis", models.ErrEmptyInput)
	}
	if len(strikeAxis) == 0 {
		return nil, fmt.Errorf("%w: strike axis", models.ErrEmptyInput)
	}
	method := a.Method
	if method == "" {
		method = models.MethodMonteCarlo
	}
	if method != models.MethodMonteCarlo && method != models.MethodBlackScholes {
		return nil, fmt.Errorf("%w: unknown method %q", models.ErrInvalidParameter, method)
	}
	seeds := a.SeedsPerCell
	if seeds < 1 {
		seeds = 1
	}

	base = base.WithRiskFreeRate(riskFreeRate).WithHorizon(maturity).RiskNeutral()
	if err := base.Validate(); err != nil {
		return nil, err
	}
	origin := baseSeed(base)

	grid := &SensitivityGrid{
		VolatilityAxis: append([]float64(nil), volAxis...),
		StrikeAxis:     append([]float64(nil), strikeAxis...),
		Values:         newMatrix(len(volAxis), len(strikeAxis)),
		Method:         method,
	}
	if method == models.MethodMonteCarlo {
		grid.StandardErrors = newMatrix(len(volAxis), len(strikeAxis))
		grid.SeedPolicy = a.policy()
		grid.SeedsPerCell = seeds
	}

	cells := len(volAxis) * len(strikeAxis)
	start := time.Now()
	a.logger().Info("sensitivity sweep started",
		"cells", cells,
		"method", method,
		"paths", base.PathCount,
		"steps", base.StepCount)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(a.Workers))
	for i, vol := range volAxis {
		for j, strike := range strikeAxis {
			i, j, vol, strike := i, j, vol, strike
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				value, stdErr, err := a.cell(gctx, base, method, origin, seeds, i, j, vol, strike, maturity)
				if cerr := gctx.Err(); err != nil && cerr != nil {
					return cerr
				}
				if err != nil {
					err = fmt.Errorf("cell (vol=%v, strike=%v): %w", vol, strike, err)
					if !a.BestEffort {
						return err
					}
					a.logger().Warn("sensitivity cell failed", "vol", vol, "strike", strike, "error", err)
					mu.Lock()
					grid.Failures = append(grid.Failures, CellFailure{VolIndex: i, StrikeIndex: j, Err: err.Error()})
					mu.Unlock()
				} else {
					grid.Values[i][j] = value
					if grid.StandardErrors != nil {
						grid.StandardErrors[i][j] = stdErr
					}
					a.logger().Debug("sensitivity cell", "vol", vol, "strike", strike, "price", value)
				}
				if a.Progress != nil {
					a.Progress()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(grid.Failures, func(x, y int) bool {
		fx, fy := grid.Failures[x], grid.Failures[y]
		if fx.VolIndex != fy.VolIndex {
			return fx.VolIndex < fy.VolIndex
		}
		return fx.StrikeIndex < fy.StrikeIndex
	})

	a.logger().Info("sensitivity sweep complete",
		"cells", cells,
		"failures", len(grid.Failures),
		"duration", time.Since(start))
	return grid, nil
}

func (a *SensitivityAnalyzer) cell(ctx context.Context, base models.SimulationParameters, method models.Method, origin uint64, seeds, i, j int, vol, strike, maturity float64) (float64, float64, error) {
	if math.IsNaN(vol) || vol <= 0 {
		return 0, 0, models.InvalidParameter("volatility", vol, "grid volatilities must be > 0")
	}
	if math.IsNaN(strike) || strike <= 0 {
		return 0, 0, models.InvalidParameter("strike", strike, "grid strikes must be > 0")
	}
	params := base.WithVolatility(vol)
	contract := models.NewCallContract(strike, maturity)

	if method == models.MethodBlackScholes {
		est, err := blackscholes.Price(params, contract)
		return est.Value, 0, err
	}

	cellSeed := a.policy().seedFor(origin, i, j)
	var sum, sumVar float64
	for s := 0; s < seeds; s++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		seed := cellSeed
		if s > 0 {
			seed = models.DeriveSeed(cellSeed, s)
		}
		est, err := probability.SimulateAndPrice(params.WithSeed(seed), contract)
		if err != nil {
			return 0, 0, err
		}
		sum += est.Value
		sumVar += est.StandardError * est.StandardError
	}
	n := float64(seeds)
	return sum / n, math.Sqrt(sumVar) / n, nil
}

func (a *SensitivityAnalyzer) policy() SeedPolicy {
	if a.SeedPolicy == "" {
		return SeedShared
	}
	return a.SeedPolicy
}

func (a *SensitivityAnalyzer) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
