package emergency

import (
	"testing"

	alertModel "vitalwatch/models/alert"
	deviceModel "vitalwatch/models/device"
	emergencyModel "vitalwatch/models/emergency"
	"vitalwatch/models/threshold"
	userModel "vitalwatch/models/user"

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
		&userModel.User{},
		&deviceModel.Device{},
		&alertModel.AlertEvent{},
		&emergencyModel.Emergency{},
	))
	return db
}

func seedUserAndAlert(t *testing.T, db *gorm.DB, severity threshold.Severity) (*userModel.User, *alertModel.AlertEvent) {
	t.Helper()
	u := userModel.User{Uuid: "u-1", Name: "Thandi", Email: "t@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&u).Error)

	ev := alertModel.AlertEvent{
		UserID:    u.ID,
		VitalType: "heart_rate",
		Value:     45,
		Severity:  severity,
		Message:   "Thandi: Heart Rate breached LOW threshold. Value: 45.0",
	}
	require.NoError(t, db.Create(&ev).Error)
	return &u, &ev
}

func TestEscalateMirrorsAlertSeverity(t *testing.T) {
	db := newTestDB(t)
	e := &Escalator{DB: db}

	u, ev := seedUserAndAlert(t, db, threshold.SeverityHigh)

	em, err := e.Escalate(u, ev, nil)
	require.NoError(t, err)
	assert.Equal(t, emergencyModel.TypeVitalBreach, em.EmergencyType)
	assert.Equal(t, threshold.SeverityHigh, em.Severity)
	assert.Equal(t, ev.Message, em.Description)
	assert.Equal(t, ev.ID, *em.AlertEventID)
	assert.False(t, em.Resolved)
}

func TestEscalateRejectsForeignDevice(t *testing.T) {
	db := newTestDB(t)
	e := &Escalator{DB: db}

	u, ev := seedUserAndAlert(t, db, threshold.SeverityLow)

	other := userModel.User{Uuid: "u-2", Email: "o@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&other).Error)
	foreign := deviceModel.Device{UserID: other.ID, DeviceName: "watch", FCMToken: "tok"}
	require.NoError(t, db.Create(&foreign).Error)

	_, err := e.Escalate(u, ev, &foreign.ID)
	assert.ErrorIs(t, err, ErrDeviceOwnership)

	var count int64
	require.NoError(t, db.Model(&emergencyModel.Emergency{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEscalateUnknownDevice(t *testing.T) {
	db := newTestDB(t)
	e := &Escalator{DB: db}

	u, ev := seedUserAndAlert(t, db, threshold.SeverityLow)

	missing := uint(999)
	_, err := e.Escalate(u, ev, &missing)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeviceOwnership)
}

func TestEscalateAcceptsOwnDevice(t *testing.T) {
	db := newTestDB(t)
	e := &Escalator{DB: db}

	u, ev := seedUserAndAlert(t, db, threshold.SeverityLow)
	dev := deviceModel.Device{UserID: u.ID, DeviceName: "watch", FCMToken: "tok"}
	require.NoError(t, db.Create(&dev).Error)

	em, err := e.Escalate(u, ev, &dev.ID)
	require.NoError(t, err)
	assert.Equal(t, dev.ID, *em.DeviceID)
}

func TestCreateExplicitEmergency(t *testing.T) {
	db := newTestDB(t)
	e := &Escalator{DB: db}

	u := userModel.User{Uuid: "u-1", Email: "t@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&u).Error)

	em, err := e.Create(&u, emergencyModel.TypeManual, threshold.SeverityCritical, "fall detected", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, emergencyModel.TypeManual, em.EmergencyType)
	assert.Equal(t, threshold.SeverityCritical, em.Severity)
	assert.Equal(t, "fall detected", em.Description)
	assert.Nil(t, em.AlertEventID)
}
