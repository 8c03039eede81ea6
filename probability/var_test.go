package probability

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/gbmc/models"
)

func TestPayoffRisk(t *testing.T) {
	paths, err := models.NewPathMatrix([][]float64{
		{100, 100},
		{100, 110},
		{100, 120},
		{100, 130},
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	res, err := PayoffRisk(paths, models.NewCallContract(100, 1), 10, 0, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if res.VaR != 10 {
		t.Errorf("VaR = %v, want 10", res.VaR)
	}
	if res.ExpectedShortfall != 10 {
		t.Errorf("ExpectedShortfall = %v, want 10", res.ExpectedShortfall)
	}
	if res.ProbabilityOfProfit != 0.5 {
		t.Errorf("ProbabilityOfProfit = %v, want 0.5", res.ProbabilityOfProfit)
	}
}

func TestPayoffRiskSimulated(t *testing.T) {
	params := models.NewSimulationParameters(100, 0.05, 0.2, 1, 50, 5000, 0.05).WithSeed(11)
	paths, err := models.GeneratePaths(params)
	if err != nil {
		t.Fatal(err)
	}
	contract := models.NewCallContract(100, 1)
	res, err := PayoffRisk(paths, contract, 10.45, 0.05, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	// A long call never loses more than its premium.
	if res.VaR > 10.45+1e-9 || res.ExpectedShortfall > 10.45+1e-9 {
		t.Errorf("loss above premium: %+v", res)
	}
	if res.ExpectedShortfall < res.VaR {
		t.Errorf("ExpectedShortfall %v < VaR %v", res.ExpectedShortfall, res.VaR)
	}
}

func TestPayoffRiskInvalid(t *testing.T) {
	paths, _ := models.NewPathMatrix([][]float64{{100, 110}}, 1)
	c := models.NewCallContract(100, 1)
	for _, conf := range []float64{0, 1, math.NaN()} {
		if _, err := PayoffRisk(paths, c, 1, 0, conf); !errors.Is(err, models.ErrInvalidParameter) {
			t.Errorf("confidence %v error = %v", conf, err)
		}
	}
	if _, err := PayoffRisk(nil, c, 1, 0, 0.95); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("empty paths error = %v", err)
	}
}
