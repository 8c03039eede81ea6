package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bcdannyboy/gbmc/models"
	"gonum.org/v1/gonum/stat"
)

// MarketData supplies ordered close prices for a ticker.
type MarketData interface {
	Fetch(ctx context.Context, ticker, period, interval string) ([]models.PricePoint, error)
}

// HistoryComparison measures how well a set of simulated paths brackets an observed history.
type HistoryComparison struct {
	Points int     `json:"points"`
	Lower  float64 `json:"lower_quantile"`
	Upper  float64 `json:"upper_quantile"`
	// LowerBand, Median and UpperBand are per-step quantiles of the simulated paths.
	LowerBand []float64 `json:"lower_band"`
	Median    []float64 `json:"median"`
	UpperBand []float64 `json:"upper_band"`
	Observed  []float64 `json:"observed"`
	// InsideFraction is the share of observed points within [LowerBand, UpperBand].
	InsideFraction float64 `json:"inside_fraction"`
	// TerminalRank is the share of simulated values at the last compared step that are
	// at or below the observed value.
	TerminalRank float64 `json:"terminal_rank"`
}

// NormalizeCloses rescales closes so the first one equals s0.
func NormalizeCloses(points []models.PricePoint, s0 float64) ([]float64, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no price history", models.ErrEmptyInput)
	}
	if math.IsNaN(s0) || math.IsInf(s0, 0) || s0 <= 0 {
		return nil, models.InvalidParameter("initial_price", s0, "must be finite and > 0")
	}
	first := points[0].Close
	if math.IsNaN(first) || first <= 0 {
		return nil, models.InvalidParameter("close", first, "first close must be > 0")
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close / first * s0
	}
	return out, nil
}

// CompareHistory lines up the observed series with the simulated steps, one observation per
// step starting at t=0, over the shorter of the two lengths.
func CompareHistory(paths *models.PathMatrix, observed []float64, lower, upper float64) (*HistoryComparison, error) {
	if paths.PathCount() == 0 || len(observed) == 0 {
		return nil, models.ErrEmptyInput
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower < 0 || upper > 1 || lower >= upper {
		return nil, models.InvalidParameter("quantiles", lower, "need 0 <= lower < upper <= 1")
	}

	n := paths.PointCount()
	if len(observed) < n {
		n = len(observed)
	}

	cmp := &HistoryComparison{
		Points:    n,
		Lower:     lower,
		Upper:     upper,
		LowerBand: make([]float64, n),
		Median:    make([]float64, n),
		UpperBand: make([]float64, n),
		Observed:  append([]float64(nil), observed[:n]...),
	}

	inside := 0
	var last []float64
	for t := 0; t < n; t++ {
		col := paths.Column(t)
		sort.Float64s(col)
		cmp.LowerBand[t] = stat.Quantile(lower, stat.Empirical, col, nil)
		cmp.Median[t] = stat.Quantile(0.5, stat.Empirical, col, nil)
		cmp.UpperBand[t] = stat.Quantile(upper, stat.Empirical, col, nil)
		if o := observed[t]; o >= cmp.LowerBand[t] && o <= cmp.UpperBand[t] {
			inside++
		}
		last = col
	}
	cmp.InsideFraction = float64(inside) / float64(n)

	obs := observed[n-1]
	below := sort.Search(len(last), func(i int) bool { return last[i] > obs })
	cmp.TerminalRank = float64(below) / float64(len(last))
	return cmp, nil
}
