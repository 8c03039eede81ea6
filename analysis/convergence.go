package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bcdannyboy/gbmc/blackscholes"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/bcdannyboy/gbmc/probability"
	"golang.org/x/sync/errgroup"
)

// ConvergencePoint is the Monte Carlo estimate at one path count next to the analytical benchmark.
type ConvergencePoint struct {
	PathCount  int                  `json:"path_count"`
	Seed       uint64               `json:"seed"`
	Estimate   models.PriceEstimate `json:"estimate"`
	AbsError   float64              `json:"abs_error"`
	ZScore     float64              `json:"z_score"`
	WithinBand bool                 `json:"within_band"`
}

type ConvergenceReport struct {
	Benchmark  models.PriceEstimate `json:"benchmark"`
	SeedPolicy SeedPolicy           `json:"seed_policy"`
	BandWidth  float64              `json:"band_width"`
	Points     []ConvergencePoint   `json:"points"`
}

// ConvergenceAnalyzer reprices one contract at increasing path counts.
type ConvergenceAnalyzer struct {
	SeedPolicy SeedPolicy
	// Workers bounds concurrent path counts. 1 runs sequentially, 0 uses GOMAXPROCS.
	Workers int
	// BandWidth is the number of standard errors a point may sit from the benchmark and
	// still count as converged.
	BandWidth float64
	Logger    *slog.Logger
}

func NewConvergenceAnalyzer() *ConvergenceAnalyzer {
	return &ConvergenceAnalyzer{
		SeedPolicy: SeedShared,
		Workers:    1,
		BandWidth:  3,
	}
}

// Benchmark is the Black-Scholes price of contract under base, using the same volatility
// and rate as the simulation.
//
// Run and Walk require base.HorizonYears to equal contract.MaturityYears and simulate under
// the risk-neutral drift r whatever base.Drift says, so every point estimates the benchmark.
func (a *ConvergenceAnalyzer) Benchmark(base models.SimulationParameters, contract models.OptionContract) (models.PriceEstimate, error) {
	return blackscholes.Price(base, contract)
}

// Walk yields one ConvergencePoint per path count, in order, computing each only when the
// previous one has been consumed. It stops at the first error from the pricer, from fn, or
// from ctx.
func (a *ConvergenceAnalyzer) Walk(ctx context.Context, base models.SimulationParameters, contract models.OptionContract, pathCounts []int, fn func(ConvergencePoint) error) error {
	base, bench, seed, err := a.prepare(base, contract, pathCounts)
	if err != nil {
		return err
	}
	for i, n := range pathCounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		pt, err := a.point(base, contract, bench, seed, i, n)
		if err != nil {
			return err
		}
		if err := fn(pt); err != nil {
			return err
		}
	}
	return nil
}

// Run computes every point and returns them in input order. With Workers != 1 the points are
// computed concurrently; the result is identical to a sequential run because every point
// builds its own stream from its seed.
func (a *ConvergenceAnalyzer) Run(ctx context.Context, base models.SimulationParameters, contract models.OptionContract, pathCounts []int) (*ConvergenceReport, error) {
	start := time.Now()
	base, bench, seed, err := a.prepare(base, contract, pathCounts)
	if err != nil {
		return nil, err
	}

	points := make([]ConvergencePoint, len(pathCounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(a.Workers))
	for i, n := range pathCounts {
		i, n := i, n
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pt, err := a.point(base, contract, bench, seed, i, n)
			if err != nil {
				return err
			}
			points[i] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger().Info("convergence sweep complete",
		"sizes", len(pathCounts),
		"benchmark", bench.Value,
		"duration", time.Since(start))

	return &ConvergenceReport{
		Benchmark:  bench,
		SeedPolicy: a.policy(),
		BandWidth:  a.bandWidth(),
		Points:     points,
	}, nil
}

func (a *ConvergenceAnalyzer) prepare(base models.SimulationParameters, contract models.OptionContract, pathCounts []int) (models.SimulationParameters, models.PriceEstimate, uint64, error) {
	fail := func(err error) (models.SimulationParameters, models.PriceEstimate, uint64, error) {
		return base, models.PriceEstimate{}, 0, err
	}
	if len(pathCounts) == 0 {
		return fail(models.InvalidParameter("path_counts", 0, "must not be empty"))
	}
	for i, n := range pathCounts {
		if n < 1 {
			return fail(models.InvalidParameter("path_counts", float64(n), "every path count must be >= 1"))
		}
		if i > 0 && n <= pathCounts[i-1] {
			return fail(models.InvalidParameter("path_counts", float64(n), "path counts must be strictly ascending"))
		}
	}
	if err := base.Validate(); err != nil {
		return fail(err)
	}
	if err := contract.Validate(); err != nil {
		return fail(err)
	}
	if math.Abs(base.HorizonYears-contract.MaturityYears) > 1e-12*contract.MaturityYears {
		return fail(models.InvalidParameter("horizon", base.HorizonYears,
			fmt.Sprintf("simulation horizon must equal contract maturity %v", contract.MaturityYears)))
	}
	if base.Drift != base.RiskFreeRate {
		a.logger().Debug("convergence uses risk-neutral drift", "drift", base.Drift, "rate", base.RiskFreeRate)
		base = base.RiskNeutral()
	}
	bench, err := a.Benchmark(base, contract)
	if err != nil {
		return fail(fmt.Errorf("benchmark: %w", err))
	}
	return base, bench, baseSeed(base), nil
}

func (a *ConvergenceAnalyzer) point(base models.SimulationParameters, contract models.OptionContract, bench models.PriceEstimate, seed uint64, i, n int) (ConvergencePoint, error) {
	s := a.policy().seedFor(seed, i)
	params := base.WithPathCount(n).WithSeed(s)

	est, err := probability.SimulateAndPrice(params, contract)
	if err != nil {
		return ConvergencePoint{}, fmt.Errorf("path count %d: %w", n, err)
	}

	absErr := math.Abs(est.Value - bench.Value)
	var z float64
	if est.StandardError > 0 {
		z = absErr / est.StandardError
	}
	a.logger().Debug("convergence point", "paths", n, "price", est.Value, "stderr", est.StandardError)

	return ConvergencePoint{
		PathCount:  n,
		Seed:       s,
		Estimate:   est,
		AbsError:   absErr,
		ZScore:     z,
		WithinBand: absErr <= a.bandWidth()*est.StandardError,
	}, nil
}

func (a *ConvergenceAnalyzer) policy() SeedPolicy {
	if a.SeedPolicy == "" {
		return SeedShared
	}
	return a.SeedPolicy
}

func (a *ConvergenceAnalyzer) bandWidth() float64 {
	if a.BandWidth <= 0 {
		return 3
	}
	return a.BandWidth
}

func (a *ConvergenceAnalyzer) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
