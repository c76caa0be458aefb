package battery

import (
	"math"
	"testing"
)

func TestSOCBreakpoints(t *testing.T) {
	cases := []struct {
		voltage float64
		want    float64
	}{
		{10.50, 0.00},
		{11.00, 0.00},
		{11.60, 0.10},
		{11.80, 0.20},
		{12.00, 0.40},
		{12.20, 0.70},
		{12.40, 0.90},
		{12.60, 1.00},
		{13.20, 1.00},
	}
	for _, tc := range cases {
		if got := SOC(tc.voltage); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("SOC(%.2f) = %v, want %v", tc.voltage, got, tc.want)
		}
	}
}

func TestSOCInterpolatesBetweenBreakpoints(t *testing.T) {
	// Midpoint of the 12.00→12.20 segment: 0.40 + 0.5*(0.70-0.40).
	if got := SOC(12.10); math.Abs(got-0.55) > 1e-9 {
		t.Errorf("SOC(12.10) = %v, want 0.55", got)
	}
}

func TestEstimateRange(t *testing.T) {
	if got := EstimateRange(0.5, 30); got != 15 {
		t.Errorf("EstimateRange(0.5, 30) = %v", got)
	}
	if got := EstimateRange(-0.2, 30); got != 0 {
		t.Errorf("negative soc range = %v", got)
	}
	if got := EstimateRange(1.4, 30); got != 30 {
		t.Errorf("overcharged soc range = %v", got)
	}
}
