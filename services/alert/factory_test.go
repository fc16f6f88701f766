package alert

import (
	"testing"

	alertModel "vitalwatch/models/alert"
	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
	userModel "vitalwatch/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func f(v float64) *float64 { return &v }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&health.HealthData{},
		&alertModel.AlertEvent{},
	))
	return db
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage("Thandi Nkosi", health.VitalHeartRate, "high", 132.456, nil, nil)
	assert.Equal(t, "Thandi Nkosi: Heart Rate breached HIGH threshold. Value: 132.5", msg)
}

func TestFormatMessageUnknownUser(t *testing.T) {
	msg := FormatMessage("", health.VitalTemperature, "low", 35.0, nil, nil)
	assert.Equal(t, "Unknown User: Temperature breached LOW threshold. Value: 35.0", msg)
}

func TestFormatMessageGarbledSeverityRendersLow(t *testing.T) {
	msg := FormatMessage("Sipho", health.VitalOxygenSaturation, "catastrophic", 88, nil, nil)
	assert.Contains(t, msg, "breached LOW threshold")
}

func TestFormatMessageLocationLink(t *testing.T) {
	msg := FormatMessage("Sipho", health.VitalHeartRate, "high", 140, f(-26.2041), f(28.0473))
	assert.Contains(t, msg, "Location: https://maps.google.com/?q=-26.204100,28.047300")
}

func TestFormatMessageNoLinkWhenCoordinateMissingOrZero(t *testing.T) {
	assert.NotContains(t, FormatMessage("Sipho", health.VitalHeartRate, "high", 140, f(-26.2), nil), "Location:")
	assert.NotContains(t, FormatMessage("Sipho", health.VitalHeartRate, "high", 140, nil, f(28.0)), "Location:")
	assert.NotContains(t, FormatMessage("Sipho", health.VitalHeartRate, "high", 140, f(0), f(28.0)), "Location:")
	assert.NotContains(t, FormatMessage("Sipho", health.VitalHeartRate, "high", 140, f(-26.2), f(0)), "Location:")
}

func TestBuildPersistsAlert(t *testing.T) {
	db := newTestDB(t)
	factory := NewFactory(db)

	u := userModel.User{Uuid: "u-1", Name: "Thandi Nkosi", Email: "thandi@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&u).Error)

	reading := health.HealthData{
		UserID:    u.ID,
		HeartRate: f(45),
		Latitude:  f(-26.2041),
		Longitude: f(28.0473),
	}
	require.NoError(t, db.Create(&reading).Error)

	ev, err := factory.Build(&u, &reading, health.VitalHeartRate, 45, threshold.SeverityLow)
	require.NoError(t, err)
	require.NotZero(t, ev.ID)

	var stored alertModel.AlertEvent
	require.NoError(t, db.First(&stored, ev.ID).Error)
	assert.Equal(t, u.ID, stored.UserID)
	assert.Equal(t, reading.ID, *stored.HealthDataID)
	assert.Equal(t, health.VitalHeartRate, stored.VitalType)
	assert.Equal(t, 45.0, stored.Value)
	assert.Equal(t, threshold.SeverityLow, stored.Severity)
	assert.Contains(t, stored.Message, "Thandi Nkosi: Heart Rate breached LOW threshold. Value: 45.0")
	assert.Contains(t, stored.Message, "Location:")
	assert.False(t, stored.Resolved)
}

func TestBuildWithoutReading(t *testing.T) {
	db := newTestDB(t)
	factory := NewFactory(db)

	u := userModel.User{Uuid: "u-2", Email: "x@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&u).Error)

	ev, err := factory.Build(&u, nil, health.VitalTemperature, 39.2, threshold.SeverityHigh)
	require.NoError(t, err)
	assert.Nil(t, ev.HealthDataID)
	assert.NotContains(t, ev.Message, "Location:")
}
