package stats

import "math"

// SeriesStats summarizes a score series with the population standard
// deviation. An empty series yields all zeros.
func SeriesStats(values []float64) (mean, std, max, min float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sum := 0.0
	max = values[0]
	min = values[0]
	for _, value := range values {
		sum += value
		if value > max {
			max = value
		}
		if value < min {
			min = value
		}
	}
	mean = sum / float64(len(values))

	variance := 0.0
	for _, value := range values {
		delta := value - mean
		variance += delta * delta
	}
	variance /= float64(len(values))
	std = math.Sqrt(variance)
	return mean, std, max, min
}
