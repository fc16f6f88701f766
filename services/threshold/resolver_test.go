package threshold

import (
	"testing"

	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
	"vitalwatch/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&user.UserProfile{},
		&threshold.ThresholdDefault{},
		&threshold.ThresholdProfile{},
	))
	return db
}

func TestResolvePrefersProfileOverDefault(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	require.NoError(t, db.Create(&threshold.ThresholdDefault{
		Category:  threshold.CategoryDefault,
		VitalType: health.VitalHeartRate,
		Low:       f(60),
		High:      f(100),
	}).Error)
	require.NoError(t, db.Create(&threshold.ThresholdProfile{
		UserID:    1,
		VitalType: health.VitalHeartRate,
		Low:       f(50),
		High:      f(110),
		Category:  threshold.CategoryCustomizable,
		Severity:  threshold.SeverityLow,
	}).Error)

	b, ok, err := r.Resolve(1, health.VitalHeartRate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50.0, *b.Low)
	assert.Equal(t, 110.0, *b.High)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	require.NoError(t, db.Create(&threshold.ThresholdDefault{
		Category:  threshold.CategoryDefault,
		VitalType: health.VitalTemperature,
		Low:       f(36.1),
		High:      f(37.8),
	}).Error)

	b, ok, err := r.Resolve(7, health.VitalTemperature)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 36.1, *b.Low)
	assert.Equal(t, 37.8, *b.High)
}

func TestResolveNotConfigured(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	b, ok, err := r.Resolve(7, health.VitalOxygenSaturation)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b.Low)
	assert.Nil(t, b.High)
}

func TestResolveIgnoresOtherUsersProfiles(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	require.NoError(t, db.Create(&threshold.ThresholdProfile{
		UserID:    1,
		VitalType: health.VitalHeartRate,
		Low:       f(40),
		High:      f(190),
		Category:  threshold.CategoryAthleteYoung,
		Severity:  threshold.SeverityLow,
	}).Error)

	_, ok, err := r.Resolve(2, health.VitalHeartRate)
	require.NoError(t, err)
	assert.False(t, ok)
}
