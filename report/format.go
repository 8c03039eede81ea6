package report

import (
	"bytes"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/bcdannyboy/gbmc/analysis"
	"github.com/bcdannyboy/gbmc/models"
	"github.com/shopspring/decimal"
)

// FormatPrice rounds v half away from zero to places decimals. NaN and infinities are
// printed as-is.
func FormatPrice(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// EstimateLine renders one estimate, with its standard error and sample size for Monte Carlo.
func EstimateLine(e models.PriceEstimate) string {
	if e.Method == models.MethodMonteCarlo {
		return fmt.Sprintf("%s %s ± %s (n=%d)", e.Method, FormatPrice(e.Value, 4), FormatPrice(e.StandardError, 4), e.SampleSize)
	}
	return fmt.Sprintf("%s %s", e.Method, FormatPrice(e.Value, 4))
}

func ConvergenceTable(r *analysis.ConvergenceReport) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Black-Scholes benchmark: %s\n", FormatPrice(r.Benchmark.Value, 4))
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "paths\tprice\tstderr\t|error|\tz\tin band\t")
	for _, p := range r.Points {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t\n",
			p.PathCount,
			FormatPrice(p.Estimate.Value, 4),
			FormatPrice(p.Estimate.StandardError, 4),
			FormatPrice(p.AbsError, 4),
			FormatPrice(p.ZScore, 2),
			p.WithinBand)
	}
	w.Flush()
	return buf.String()
}

// GridTable renders a sensitivity grid with one row per volatility and one column per strike.
func GridTable(g *analysis.SensitivityGrid) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "vol \\ K\t")
	for _, k := range g.StrikeAxis {
		fmt.Fprintf(w, "%s\t", FormatPrice(k, 2))
	}
	fmt.Fprintln(w)
	for i, vol := range g.VolatilityAxis {
		fmt.Fprintf(w, "%s\t", FormatPrice(vol, 3))
		for j := range g.StrikeAxis {
			fmt.Fprintf(w, "%s\t", FormatPrice(g.Values[i][j], 3))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	for _, f := range g.Failures {
		fmt.Fprintf(&buf, "failed cell (%d, %d): %s\n", f.VolIndex, f.StrikeIndex, f.Err)
	}
	return buf.String()
}
