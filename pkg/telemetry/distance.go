package telemetry

import "github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"

// AddDistance returns the cumulative distance in meters for each sample.
// If every sample already carries a distance those values are used.
// Otherwise the distance is integrated from speed (km/h) over the session
// time delta to the previous sample, starting at 0.
func AddDistance(samples []model.CarSample) []float64 {
	ret := make([]float64, len(samples))
	if hasDistance(samples) {
		for i, s := range samples {
			ret[i] = s.Distance.MustGet()
		}
		return ret
	}
	for i := 1; i < len(samples); i++ {
		dt := (samples[i].SessionTime - samples[i-1].SessionTime).Seconds()
		if dt < 0 {
			dt = 0
		}
		ret[i] = ret[i-1] + samples[i].Speed/3.6*dt
	}
	return ret
}

func hasDistance(samples []model.CarSample) bool {
	if len(samples) == 0 {
		return false
	}
	for _, s := range samples {
		if !s.Distance.IsValue() {
			return false
		}
	}
	return true
}
