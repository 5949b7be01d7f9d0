package services

import (
	"math"
	"testing"
)

func TestHaversineDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tol                    float64
	}{
		{"same point", 5.35, -4.0, 5.35, -4.0, 0, 0},
		{"one degree of latitude", 5.0, -4.0, 6.0, -4.0, 111.19, 0.1},
		{"plateau to cocody", 5.3249, -4.0227, 5.3536, -3.9868, 5.15, 0.5},
	}
	for _, tt := range tests {
		got := HaversineDistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(got-tt.want) > tt.tol {
			t.Errorf("%s: HaversineDistanceKm = %.2f, want %.2f ± %.2f", tt.name, got, tt.want, tt.tol)
		}
	}
}

type fixedDistance float64

func (f fixedDistance) EstimateKm(_, _, _, _ float64) float64 { return float64(f) }

func TestSetDistanceEstimator(t *testing.T) {
	defer SetDistanceEstimator(HaversineEstimator{})
	SetDistanceEstimator(fixedDistance(9.5))
	if got := distanceEstimator.EstimateKm(0, 0, 0, 0); got != 9.5 {
		t.Errorf("estimator not swapped: got %.1f", got)
	}
	SetDistanceEstimator(nil) // ignored
	if got := distanceEstimator.EstimateKm(0, 0, 0, 0); got != 9.5 {
		t.Errorf("nil estimator should be ignored, got %.1f", got)
	}
}
