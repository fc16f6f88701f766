package threshold

import (
	"testing"

	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
	"vitalwatch/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDetermineCategory(t *testing.T) {
	tests := []struct {
		name     string
		age      int
		chronic  bool
		activity string
		want     threshold.Category
	}{
		{"young chronic", 25, true, user.ActivitySedentary, threshold.CategoryChronicYoung},
		{"adult chronic", 45, true, user.ActivityModerate, threshold.CategoryChronicAdult},
		{"senior chronic", 70, true, user.ActivitySedentary, threshold.CategoryChronicSenior},
		{"chronic beats athlete", 25, true, user.ActivityAthlete, threshold.CategoryChronicYoung},
		{"young athlete", 22, false, user.ActivityAthlete, threshold.CategoryAthleteYoung},
		{"adult athlete", 45, false, user.ActivityAthlete, threshold.CategoryAthleteAdult},
		{"senior athlete", 65, false, user.ActivityAthlete, threshold.CategoryAthleteSenior},
		{"sixties", 64, false, user.ActivityModerate, threshold.CategoryElderly60s},
		{"seventies", 75, false, user.ActivitySedentary, threshold.CategoryElderly70s},
		{"eighties", 83, false, user.ActivitySedentary, threshold.CategoryElderly80s},
		{"plain adult", 35, false, user.ActivityModerate, threshold.CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineCategory(tt.age, tt.chronic, tt.activity))
		})
	}
}

func seedDefaults(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []threshold.ThresholdDefault{
		{Category: threshold.CategoryDefault, VitalType: health.VitalHeartRate, Low: f(60), High: f(100)},
		{Category: threshold.CategoryDefault, VitalType: health.VitalOxygenSaturation, Low: f(95), High: f(100)},
		{Category: threshold.CategoryAthleteYoung, VitalType: health.VitalHeartRate, Low: f(40), High: f(100)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
}

func TestProvisionDefaultsMergesCategoryOverBase(t *testing.T) {
	db := newTestDB(t)
	seedDefaults(t, db)
	s := NewService(db)

	require.NoError(t, s.ProvisionDefaults(1, threshold.CategoryAthleteYoung))

	var hr threshold.ThresholdProfile
	require.NoError(t, db.Where("user_id = ? AND vital_type = ?", 1, health.VitalHeartRate).First(&hr).Error)
	assert.Equal(t, 40.0, *hr.Low)
	assert.Equal(t, threshold.CategoryAthleteYoung, hr.Category)

	var spo2 threshold.ThresholdProfile
	require.NoError(t, db.Where("user_id = ? AND vital_type = ?", 1, health.VitalOxygenSaturation).First(&spo2).Error)
	assert.Equal(t, 95.0, *spo2.Low)
	assert.Equal(t, threshold.CategoryDefault, spo2.Category)
}

func TestProvisionDefaultsLeavesExistingRows(t *testing.T) {
	db := newTestDB(t)
	seedDefaults(t, db)
	s := NewService(db)

	require.NoError(t, db.Create(&threshold.ThresholdProfile{
		UserID:    1,
		VitalType: health.VitalHeartRate,
		Low:       f(55),
		High:      f(120),
		Category:  threshold.CategoryCustomizable,
		Severity:  threshold.SeverityLow,
	}).Error)

	require.NoError(t, s.ProvisionDefaults(1, threshold.CategoryDefault))

	var hr threshold.ThresholdProfile
	require.NoError(t, db.Where("user_id = ? AND vital_type = ?", 1, health.VitalHeartRate).First(&hr).Error)
	assert.Equal(t, 55.0, *hr.Low)
	assert.Equal(t, threshold.CategoryCustomizable, hr.Category)
}

func TestRefreshDefaultsSkipsCustomizable(t *testing.T) {
	db := newTestDB(t)
	seedDefaults(t, db)
	s := NewService(db)

	require.NoError(t, s.ProvisionDefaults(1, threshold.CategoryDefault))
	_, err := s.UpsertCustom(1, health.VitalHeartRate, f(55), f(120))
	require.NoError(t, err)

	require.NoError(t, s.RefreshDefaults(1, threshold.CategoryAthleteYoung))

	var hr threshold.ThresholdProfile
	require.NoError(t, db.Where("user_id = ? AND vital_type = ?", 1, health.VitalHeartRate).First(&hr).Error)
	assert.Equal(t, 55.0, *hr.Low)
	assert.Equal(t, threshold.CategoryCustomizable, hr.Category)

	var spo2 threshold.ThresholdProfile
	require.NoError(t, db.Where("user_id = ? AND vital_type = ?", 1, health.VitalOxygenSaturation).First(&spo2).Error)
	assert.Equal(t, threshold.CategoryDefault, spo2.Category)
}

func TestUpsertCustomValidatesBounds(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db)

	_, err := s.UpsertCustom(1, health.VitalHeartRate, f(100), f(60))
	assert.Error(t, err)

	_, err = s.UpsertCustom(1, health.VitalHeartRate, nil, nil)
	assert.Error(t, err)

	p, err := s.UpsertCustom(1, health.VitalHeartRate, f(50), nil)
	require.NoError(t, err)
	assert.Equal(t, threshold.CategoryCustomizable, p.Category)
}

func TestDeleteCustom(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db)

	err := s.DeleteCustom(1, health.VitalHeartRate)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = s.UpsertCustom(1, health.VitalHeartRate, f(50), f(120))
	require.NoError(t, err)
	require.NoError(t, s.DeleteCustom(1, health.VitalHeartRate))
}

func TestSimulate(t *testing.T) {
	db := newTestDB(t)
	seedDefaults(t, db)
	s := NewService(db)

	resp, err := s.Simulate(1, health.VitalHeartRate, 45)
	require.NoError(t, err)
	assert.True(t, resp.Configured)
	assert.Equal(t, threshold.BreachLow.String(), resp.Breach)
	assert.Equal(t, threshold.SeverityLow.String(), resp.Severity)

	resp, err = s.Simulate(1, health.VitalRespiratoryRate, 18)
	require.NoError(t, err)
	assert.False(t, resp.Configured)
	assert.Equal(t, threshold.NoBreach.String(), resp.Breach)
}
