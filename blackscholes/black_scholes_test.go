package blackscholes

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/gbmc/models"
)

func TestCallPrice(t *testing.T) {
	tests := []struct {
		s0, k, t, r, sigma float64
		want               float64
	}{
		{100, 100, 1, 0.05, 0.2, 10.450583572185565},
		{100, 105, 1, 0.05, 0.2, 8.021352235143176},
		{100, 90, 0.5, 0.03, 0.3, 14.880707205664983},
		{50, 60, 2, 0, 0.4, 7.860619876892887},
	}
	for _, tt := range tests {
		got, err := CallPrice(tt.s0, tt.k, tt.t, tt.r, tt.sigma)
		if err != nil {
			t.Fatalf("CallPrice(%v, %v, %v, %v, %v): %v", tt.s0, tt.k, tt.t, tt.r, tt.sigma, err)
		}
		if math.Abs(got-tt.want) > 1e-8 {
			t.Errorf("CallPrice(%v, %v, %v, %v, %v) = %v, want %v", tt.s0, tt.k, tt.t, tt.r, tt.sigma, got, tt.want)
		}
	}
}

func TestCallPriceInvalid(t *testing.T) {
	bad := [][5]float64{
		{0, 100, 1, 0.05, 0.2},
		{100, -1, 1, 0.05, 0.2},
		{100, 100, 0, 0.05, 0.2},
		{100, 100, 1, math.NaN(), 0.2},
		{100, 100, 1, 0.05, 0},
		{100, 100, 1, 0.05, math.Inf(1)},
	}
	for _, in := range bad {
		if _, err := CallPrice(in[0], in[1], in[2], in[3], in[4]); !errors.Is(err, models.ErrInvalidParameter) {
			t.Errorf("CallPrice(%v) error = %v, want ErrInvalidParameter", in, err)
		}
	}
}

func TestSmallVolatilityLimit(t *testing.T) {
	got, err := CallPrice(100, 100, 1, 0.05, 1e-9)
	if err != nil {
		t.Fatal(err)
	}
	want := DiscountedIntrinsic(100, 100, 1, 0.05)
	if math.Abs(want-4.877057549928594) > 1e-12 {
		t.Fatalf("DiscountedIntrinsic = %v", want)
	}
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("CallPrice at sigma=1e-9 = %v, want %v", got, want)
	}

	deep, err := CallPrice(100, 200, 1, 0.05, 1e-9)
	if err != nil {
		t.Fatal(err)
	}
	if deep > 1e-12 {
		t.Errorf("out of the money call at sigma=1e-9 = %v, want 0", deep)
	}
}

func TestPriceUsesParameters(t *testing.T) {
	params := models.NewSimulationParameters(100, 0.1, 0.2, 3, 252, 10, 0.05)
	est, err := Price(params, models.NewCallContract(105, 1))
	if err != nil {
		t.Fatal(err)
	}
	if est.Method != models.MethodBlackScholes || est.StandardError != 0 {
		t.Errorf("estimate = %+v", est)
	}
	if math.Abs(est.Value-8.021352235143176) > 1e-8 {
		t.Errorf("Price = %v, want 8.021352235143176", est.Value)
	}
}

func TestMonotoneInVolatility(t *testing.T) {
	prev := 0.0
	for sigma := 0.05; sigma <= 1.0; sigma += 0.05 {
		p, err := CallPrice(100, 100, 1, 0.05, sigma)
		if err != nil {
			t.Fatal(err)
		}
		if p <= prev {
			t.Fatalf("price not increasing at sigma=%v: %v <= %v", sigma, p, prev)
		}
		prev = p
	}
}
