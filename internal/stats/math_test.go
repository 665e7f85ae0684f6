package stats

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil): expected 0, got %v", got)
	}
	if got := Mean([]float64{2, 4, 6}); got != 4 {
		t.Errorf("Mean: expected 4, got %v", got)
	}
}

func TestStdDevPopulation(t *testing.T) {
	// Population stddev of {2,4,4,4,5,5,7,9} is exactly 2.
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("StdDev: expected 2, got %v", got)
	}
	if got := StdDev([]float64{5, 5, 5}); got != 0 {
		t.Errorf("StdDev of constant series: expected 0, got %v", got)
	}
}

func TestCalculateMedianContinuous(t *testing.T) {
	cases := []struct {
		values   []float64
		expected float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		if got := CalculateMedianContinuous(tc.values); got != tc.expected {
			t.Errorf("Median(%v): expected %v, got %v", tc.values, tc.expected, got)
		}
	}
}

func TestRounding(t *testing.T) {
	if got := Round1(3.14159); got != 3.1 {
		t.Errorf("Round1: expected 3.1, got %v", got)
	}
	if got := Round2(3.14159); got != 3.14 {
		t.Errorf("Round2: expected 3.14, got %v", got)
	}
}
