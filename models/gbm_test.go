package models

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestGeneratePathsShape(t *testing.T) {
	p := NewSimulationParameters(100, 0.05, 0.2, 1, 12, 7, 0.05).WithSeed(1)
	m, err := GeneratePaths(p)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}
	if m.PathCount() != 7 || m.PointCount() != 13 || m.StepCount() != 12 {
		t.Fatalf("dims = %d x %d, want 7 x 13", m.PathCount(), m.PointCount())
	}
	for i, v := range m.Column(0) {
		if v != 100 {
			t.Errorf("path %d starts at %v, want 100", i, v)
		}
	}
	grid := m.TimeGrid()
	if math.Abs(grid[12]-1) > 1e-12 {
		t.Errorf("last time = %v, want 1", grid[12])
	}
}

func TestGeneratePathsPositive(t *testing.T) {
	p := NewSimulationParameters(50, -0.3, 1.5, 5, 100, 500, 0.01).WithSeed(7)
	m, err := GeneratePaths(p)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}
	for i := 0; i < m.PathCount(); i++ {
		for j, v := range m.Path(i) {
			if !(v > 0) || math.IsInf(v, 0) {
				t.Fatalf("path %d point %d = %v", i, j, v)
			}
		}
	}
}

func TestGeneratePathsDeterministic(t *testing.T) {
	p := NewSimulationParameters(100, 0.05, 0.2, 1, 50, 200, 0.05).WithSeed(42)
	a, err := GeneratePaths(p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GeneratePaths(p)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a.data, b.data) {
		t.Error("same seed produced different matrices")
	}

	c, err := GeneratePaths(p.WithSeed(43))
	if err != nil {
		t.Fatal(err)
	}
	if mat.Equal(a.data, c.data) {
		t.Error("different seeds produced identical matrices")
	}

	d, err := GeneratePathsFrom(p, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a.data, d.data) {
		t.Error("explicit stream differs from seeded parameters")
	}
}

func TestTerminalLogMean(t *testing.T) {
	const (
		mu    = 0.08
		sigma = 0.25
		T     = 2.0
		n     = 100000
	)
	p := NewSimulationParameters(100, mu, sigma, T, 4, n, 0.05).WithSeed(2024)
	m, err := GeneratePaths(p)
	if err != nil {
		t.Fatal(err)
	}
	logs := make([]float64, n)
	for i, s := range m.Terminal() {
		logs[i] = math.Log(s / 100)
	}
	mean, std := stat.MeanStdDev(logs, nil)

	want := (mu - 0.5*sigma*sigma) * T
	tol := 5 * sigma * math.Sqrt(T) / math.Sqrt(n)
	if math.Abs(mean-want) > tol {
		t.Errorf("mean log return = %v, want %v ± %v", mean, want, tol)
	}
	if math.Abs(std-sigma*math.Sqrt(T)) > 0.01 {
		t.Errorf("log return std = %v, want %v", std, sigma*math.Sqrt(T))
	}
}

func TestZeroVolatilityIsDeterministic(t *testing.T) {
	p := NewSimulationParameters(100, 0.05, 0, 1, 10, 3, 0.05)
	m, err := GeneratePaths(p)
	if err != nil {
		t.Fatal(err)
	}
	want := 100 * math.Exp(0.05)
	for i, s := range m.Terminal() {
		if math.Abs(s-want) > 1e-9 {
			t.Errorf("path %d terminal = %v, want %v", i, s, want)
		}
	}
}

func TestOverflowIsNumericInstability(t *testing.T) {
	p := NewSimulationParameters(100, 1000, 0.2, 10, 1, 10, 0.05).WithSeed(1)
	_, err := GeneratePaths(p)
	if !errors.Is(err, ErrNumericInstability) {
		t.Fatalf("GeneratePaths error = %v, want ErrNumericInstability", err)
	}
}

func TestGeneratePathsRejectsInvalid(t *testing.T) {
	_, err := GeneratePaths(NewSimulationParameters(100, 0.05, 0.2, 1, 0, 10, 0.05))
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
}
