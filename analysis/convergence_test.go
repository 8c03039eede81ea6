package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/gbmc/models"
)

func convergenceBase() (models.SimulationParameters, models.OptionContract) {
	return models.NewSimulationParameters(100, 0.05, 0.2, 1, 50, 1000, 0.05).WithSeed(42),
		models.NewCallContract(100, 1)
}

func TestConvergenceWithinStandardErrors(t *testing.T) {
	base, contract := convergenceBase()
	a := NewConvergenceAnalyzer()
	rep, err := a.Run(context.Background(), base, contract, []int{1000, 5000, 20000})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rep.Benchmark.Value-10.450583572185565) > 1e-8 {
		t.Errorf("benchmark = %v", rep.Benchmark.Value)
	}
	if len(rep.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(rep.Points))
	}
	for i, p := range rep.Points {
		if p.PathCount != []int{1000, 5000, 20000}[i] {
			t.Errorf("point %d has %d paths", i, p.PathCount)
		}
		if p.AbsError > 4*p.Estimate.StandardError {
			t.Errorf("%d paths: |%v - %v| > 4 x %v", p.PathCount, p.Estimate.Value, rep.Benchmark.Value, p.Estimate.StandardError)
		}
		if p.Seed != 42 {
			t.Errorf("shared policy used seed %d", p.Seed)
		}
	}
	if rep.Points[2].Estimate.StandardError >= rep.Points[0].Estimate.StandardError {
		t.Error("standard error did not shrink with more paths")
	}
}

func TestConvergenceRejectsBadCounts(t *testing.T) {
	base, contract := convergenceBase()
	a := NewConvergenceAnalyzer()
	for _, counts := range [][]int{nil, {100, 100}, {500, 100}, {0, 10}} {
		if _, err := a.Run(context.Background(), base, contract, counts); !errors.Is(err, models.ErrInvalidParameter) {
			t.Errorf("counts %v error = %v, want ErrInvalidParameter", counts, err)
		}
	}
}

func TestConvergenceParallelMatchesSequential(t *testing.T) {
	base, contract := convergenceBase()
	counts := []int{100, 200, 400, 800}

	for _, policy := range []SeedPolicy{SeedShared, SeedDerived} {
		seq := NewConvergenceAnalyzer()
		seq.SeedPolicy = policy
		want, err := seq.Run(context.Background(), base, contract, counts)
		if err != nil {
			t.Fatal(err)
		}

		par := NewConvergenceAnalyzer()
		par.SeedPolicy = policy
		par.Workers = 4
		got, err := par.Run(context.Background(), base, contract, counts)
		if err != nil {
			t.Fatal(err)
		}
		for i := range want.Points {
			if got.Points[i] != want.Points[i] {
				t.Errorf("%s point %d: parallel %+v, sequential %+v", policy, i, got.Points[i], want.Points[i])
			}
		}
	}
}

func TestConvergenceDerivedSeedsDiffer(t *testing.T) {
	base, contract := convergenceBase()
	a := NewConvergenceAnalyzer()
	a.SeedPolicy = SeedDerived
	rep, err := a.Run(context.Background(), base, contract, []int{10, 20})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Points[0].Seed == rep.Points[1].Seed {
		t.Error("derived policy reused a seed")
	}
}

func TestConvergenceWalk(t *testing.T) {
	base, contract := convergenceBase()
	a := NewConvergenceAnalyzer()

	var seen []int
	stop := errors.New("stop")
	err := a.Walk(context.Background(), base, contract, []int{10, 20, 30}, func(p ConvergencePoint) error {
		seen = append(seen, p.PathCount)
		if p.PathCount == 20 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Walk error = %v, want stop", err)
	}
	if len(seen) != 2 || seen[0] != 10 || seen[1] != 20 {
		t.Errorf("visited %v, want [10 20]", seen)
	}
}

func TestConvergenceCancelled(t *testing.T) {
	base, contract := convergenceBase()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewConvergenceAnalyzer().Run(ctx, base, contract, []int{10, 20})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestConvergenceUnseededIsConsistent(t *testing.T) {
	base, contract := convergenceBase()
	a := NewConvergenceAnalyzer()
	rep, err := a.Run(context.Background(), base.Unseeded(), contract, []int{10, 20, 40})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range rep.Points[1:] {
		if p.Seed != rep.Points[0].Seed {
			t.Errorf("unseeded shared run used seeds %d and %d", rep.Points[0].Seed, p.Seed)
		}
	}
}

func TestConvergenceRejectsHorizonMismatch(t *testing.T) {
	base, contract := convergenceBase()
	_, err := NewConvergenceAnalyzer().Run(context.Background(), base.WithHorizon(2), contract, []int{1000, 20000})
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("error = %v, want ErrInvalidParameter", err)
	}
	err = NewConvergenceAnalyzer().Walk(context.Background(), base.WithHorizon(2), contract, []int{10}, func(ConvergencePoint) error { return nil })
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("Walk error = %v, want ErrInvalidParameter", err)
	}
}

func TestConvergenceSimulatesRiskNeutral(t *testing.T) {
	base, contract := convergenceBase()
	rep, err := NewConvergenceAnalyzer().Run(context.Background(), base.WithDrift(0.3), contract, []int{20000})
	if err != nil {
		t.Fatal(err)
	}
	p := rep.Points[0]
	if p.AbsError > 4*p.Estimate.StandardError {
		t.Errorf("real-world drift leaked: %v vs benchmark %v (se %v)", p.Estimate.Value, rep.Benchmark.Value, p.Estimate.StandardError)
	}
}
