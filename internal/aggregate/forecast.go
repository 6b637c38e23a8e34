package aggregate

import "math"

// smoothingAlpha weights recent hours over older ones in the forecast.
const smoothingAlpha = 0.5

// ForecastNextHour predicts the event count for the next hour by simple
// exponential smoothing over the per-hour counts of the timeline. Less than
// two observed hours is not enough signal and yields zero.
func ForecastNextHour(tl Timeline) float64 {
	if len(tl.Hours) < 2 {
		return 0
	}

	level := float64(tl.Hours[0].Count)
	for _, bucket := range tl.Hours[1:] {
		level = smoothingAlpha*float64(bucket.Count) + (1-smoothingAlpha)*level
	}

	if math.IsNaN(level) || math.IsInf(level, 0) {
		return 0
	}
	return level
}
