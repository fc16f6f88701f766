package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVitalKind(t *testing.T) {
	for _, kind := range AllVitalKinds() {
		parsed, err := ParseVitalKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	for _, raw := range []string{"", "pulse", "HEART_RATE", "heart rate"} {
		_, err := ParseVitalKind(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestValueSelectsMatchingField(t *testing.T) {
	hr := 72.0
	temp := 36.6
	reading := HealthData{HeartRate: &hr, Temperature: &temp}

	require.NotNil(t, reading.Value(VitalHeartRate))
	assert.Equal(t, hr, *reading.Value(VitalHeartRate))
	assert.Equal(t, temp, *reading.Value(VitalTemperature))
	assert.Nil(t, reading.Value(VitalOxygenSaturation))
	assert.Nil(t, reading.Value(VitalKind("bogus")))
}

func TestDisplayNameFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "Heart Rate", VitalHeartRate.DisplayName())
	assert.Equal(t, "mystery", VitalKind("mystery").DisplayName())
}
