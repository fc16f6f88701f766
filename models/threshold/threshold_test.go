package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("  HIGH ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	_, err = ParseSeverity("catastrophic")
	assert.Error(t, err)

	_, err = ParseSeverity("")
	assert.Error(t, err)
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NormalizeSeverity("critical"))
	assert.Equal(t, SeverityLow, NormalizeSeverity("garbage"))
	assert.Equal(t, SeverityLow, NormalizeSeverity(""))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Elderly_70s")
	require.NoError(t, err)
	assert.Equal(t, CategoryElderly70s, c)

	_, err = ParseCategory("toddler")
	assert.Error(t, err)
}

func TestBreachString(t *testing.T) {
	assert.Equal(t, "none", NoBreach.String())
	assert.Equal(t, "low", BreachLow.String())
	assert.Equal(t, "high", BreachHigh.String())
}
