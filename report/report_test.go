package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bcdannyboy/gbmc/analysis"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/xhhuango/json"
)

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f, err := WriteJSON(dir, "estimate", models.PriceEstimate{Value: 1.5, Method: models.MethodBlackScholes})
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if filepath.Base(f) != "estimate.json" {
		t.Errorf("file = %s", f)
	}
	data, err := os.ReadFile(f)
	if err != nil {
		t.Fatal(err)
	}
	var got models.PriceEstimate
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != 1.5 || got.Method != models.MethodBlackScholes {
		t.Errorf("round trip = %+v", got)
	}

	if _, err := WriteJSON(dir, "", 1); err == nil {
		t.Error("empty name accepted")
	}
}

func TestPathSnapshot(t *testing.T) {
	params := models.NewSimulationParameters(100, 0.05, 0.2, 1, 4, 10, 0.05).WithSeed(1)
	m, err := models.GeneratePaths(params)
	if err != nil {
		t.Fatal(err)
	}
	s := PathSnapshot(m, 3)
	if s.PathCount != 10 || s.Included != 3 || len(s.Paths) != 3 {
		t.Errorf("snapshot kept %d of %d paths", len(s.Paths), s.PathCount)
	}
	if len(s.Terminal) != 10 || len(s.Times) != 5 || s.StepCount != 4 {
		t.Errorf("snapshot shape: %d terminals, %d times", len(s.Terminal), len(s.Times))
	}
	if all := PathSnapshot(m, 0); all.Included != 10 {
		t.Errorf("maxPaths 0 kept %d paths", all.Included)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   string
	}{
		{10.450583572185565, 4, "10.4506"},
		{8.021352235143176, 2, "8.02"},
		{0.125, 2, "0.13"},
		{-1.5, 0, "-2"},
		{3, 3, "3.000"},
		{math.NaN(), 2, "NaN"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.v, tt.places); got != tt.want {
			t.Errorf("FormatPrice(%v, %d) = %q, want %q", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestTables(t *testing.T) {
	rep := &analysis.ConvergenceReport{
		Benchmark: models.PriceEstimate{Value: 10.4506, Method: models.MethodBlackScholes},
		Points: []analysis.ConvergencePoint{
			{PathCount: 1000, Estimate: models.PriceEstimate{Value: 10.3, StandardError: 0.4}, AbsError: 0.15, WithinBand: true},
		},
	}
	table := ConvergenceTable(rep)
	for _, want := range []string{"10.4506", "1000", "10.3000", "true"} {
		if !strings.Contains(table, want) {
			t.Errorf("convergence table missing %q:\n%s", want, table)
		}
	}

	grid := &analysis.SensitivityGrid{
		VolatilityAxis: []float64{0.1, 0.2},
		StrikeAxis:     []float64{95, 105},
		Values:         [][]float64{{6.5, 2.1}, {9.9, 5.8}},
		Failures:       []analysis.CellFailure{{VolIndex: 1, StrikeIndex: 0, Err: "boom"}},
	}
	out := GridTable(grid)
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 4 {
		t.Errorf("grid table has %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "9.900") || !strings.Contains(out, "boom") {
		t.Errorf("grid table:\n%s", out)
	}

	line := EstimateLine(models.PriceEstimate{Value: 8.02, Method: models.MethodMonteCarlo, StandardError: 0.1, SampleSize: 10000})
	if !strings.Contains(line, "n=10000") {
		t.Errorf("EstimateLine = %q", line)
	}
}
