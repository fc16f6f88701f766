package threshold

import (
	"vitalwatch/models/threshold"
)

// Evaluate classifies an observed value against a band. Bounds are strict:
// a value exactly equal to a bound is not a breach. The low check runs
// first, unconditionally.
func Evaluate(band threshold.Band, value float64) threshold.Breach {
	if band.Low != nil && value < *band.Low {
		return threshold.BreachLow
	}
	if band.High != nil && value > *band.High {
		return threshold.BreachHigh
	}
	return threshold.NoBreach
}
