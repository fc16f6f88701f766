package threshold

import (
	"testing"

	"vitalwatch/models/threshold"

	"github.com/stretchr/testify/assert"
)

func band(low, high *float64) threshold.Band {
	return threshold.Band{Low: low, High: high}
}

func f(v float64) *float64 { return &v }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		band  threshold.Band
		value float64
		want  threshold.Breach
	}{
		{"below low", band(f(60), f(100)), 45, threshold.BreachLow},
		{"above high", band(f(60), f(100)), 130, threshold.BreachHigh},
		{"inside band", band(f(60), f(100)), 72, threshold.NoBreach},
		{"equal to low is not a breach", band(f(60), f(100)), 60, threshold.NoBreach},
		{"equal to high is not a breach", band(f(60), f(100)), 100, threshold.NoBreach},
		{"open low bound", band(nil, f(100)), 10, threshold.NoBreach},
		{"open high bound", band(f(60), nil), 500, threshold.NoBreach},
		{"open low still catches high", band(nil, f(100)), 120, threshold.BreachHigh},
		{"no bounds at all", band(nil, nil), 42, threshold.NoBreach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.band, tt.value))
		})
	}
}

func TestEvaluateLowCheckedFirst(t *testing.T) {
	// Inverted band: a value below low and above high classifies as low.
	b := band(f(100), f(60))
	assert.Equal(t, threshold.BreachLow, Evaluate(b, 80))
}

func TestBreachSeverity(t *testing.T) {
	assert.Equal(t, threshold.SeverityHigh, threshold.BreachHigh.Severity())
	assert.Equal(t, threshold.SeverityLow, threshold.BreachLow.Severity())
}
