package services

import "math"

// DistanceEstimator turns two coordinates into a delivery distance. The
// production implementation is pure Haversine; tests swap in fixed values.
type DistanceEstimator interface {
	EstimateKm(lat1, lon1, lat2, lon2 float64) float64
}

// HaversineEstimator is the default great-circle estimator.
type HaversineEstimator struct{}

func (HaversineEstimator) EstimateKm(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineDistanceKm(lat1, lon1, lat2, lon2)
}

var distanceEstimator DistanceEstimator = HaversineEstimator{}

// SetDistanceEstimator swaps the estimator (tests, future road-distance API).
func SetDistanceEstimator(e DistanceEstimator) {
	if e != nil {
		distanceEstimator = e
	}
}

// HaversineDistanceKm returns the great-circle distance rounded to 2 decimals.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(R*c*100) / 100
}
