package ingestion

import (
	"context"
	"testing"
	"time"

	alertModel "vitalwatch/models/alert"
	contactModel "vitalwatch/models/contact"
	deviceModel "vitalwatch/models/device"
	emergencyModel "vitalwatch/models/emergency"
	healthModel "vitalwatch/models/health"
	thresholdModel "vitalwatch/models/threshold"
	userModel "vitalwatch/models/user"
	alertService "vitalwatch/services/alert"
	emergencyService "vitalwatch/services/emergency"
	"vitalwatch/services/notification"
	thresholdService "vitalwatch/services/threshold"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type stubPush struct{ sent int }

func (p *stubPush) Send(ctx context.Context, tokens []string, title, body string) (int, int, error) {
	p.sent += len(tokens)
	return len(tokens), 0, nil
}

type stubSMS struct{ sent int }

func (s *stubSMS) Send(ctx context.Context, message, destination string) error {
	s.sent++
	return nil
}

func f(v float64) *float64 { return &v }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&deviceModel.Device{},
		&contactModel.EmergencyContact{},
		&healthModel.HealthData{},
		&thresholdModel.ThresholdDefault{},
		&thresholdModel.ThresholdProfile{},
		&alertModel.AlertEvent{},
		&alertModel.AlertNotification{},
		&emergencyModel.Emergency{},
	))
	return db
}

func newTestPipeline(db *gorm.DB, push *stubPush, sms *stubSMS) *Pipeline {
	return &Pipeline{
		DB:       db,
		Resolver: thresholdService.NewResolver(db),
		Alerts:   alertService.NewFactory(db),
		Dispatcher: &notification.Dispatcher{
			DB:      db,
			Push:    push,
			SMS:     sms,
			Timeout: time.Second,
		},
		Escalator: &emergencyService.Escalator{DB: db},
	}
}

func seedPipelineFixtures(t *testing.T, db *gorm.DB) *userModel.User {
	t.Helper()
	u := userModel.User{Uuid: "u-1", Name: "Thandi", Email: "t@example.com", Role: userModel.RoleUser, EmailVerified: true}
	require.NoError(t, db.Create(&u).Error)

	require.NoError(t, db.Create(&thresholdModel.ThresholdDefault{
		Category:  thresholdModel.CategoryDefault,
		VitalType: healthModel.VitalHeartRate,
		Low:       f(60),
		High:      f(100),
	}).Error)
	require.NoError(t, db.Create(&thresholdModel.ThresholdDefault{
		Category:  thresholdModel.CategoryDefault,
		VitalType: healthModel.VitalOxygenSaturation,
		Low:       f(95),
		High:      f(100),
	}).Error)

	require.NoError(t, db.Create(&deviceModel.Device{UserID: u.ID, DeviceName: "watch", FCMToken: "tok-1"}).Error)
	require.NoError(t, db.Create(&contactModel.EmergencyContact{UserID: u.ID, Name: "Mom", PhoneNumber: "0821234567"}).Error)

	return &u
}

func TestIngestBreachRunsFullChain(t *testing.T) {
	db := newTestDB(t)
	push := &stubPush{}
	sms := &stubSMS{}
	p := newTestPipeline(db, push, sms)
	u := seedPipelineFixtures(t, db)

	reading := healthModel.HealthData{HeartRate: f(45), OxygenSaturation: f(96)}
	persisted, raised, err := p.Ingest(context.Background(), u, &reading)
	require.NoError(t, err)
	require.NotZero(t, persisted.ID)
	assert.Equal(t, u.ID, persisted.UserID)
	assert.False(t, persisted.Timestamp.IsZero())

	// Heart rate breaches low; oxygen is inside its band.
	require.Len(t, raised, 1)
	assert.Equal(t, healthModel.VitalHeartRate, raised[0].VitalType)
	assert.Equal(t, thresholdModel.SeverityLow, raised[0].Severity)

	var notifications []alertModel.AlertNotification
	require.NoError(t, db.Where("alert_event_id = ?", raised[0].ID).Find(&notifications).Error)
	assert.Len(t, notifications, 2)
	assert.Equal(t, 1, push.sent)
	assert.Equal(t, 1, sms.sent)

	var emergencies []emergencyModel.Emergency
	require.NoError(t, db.Find(&emergencies).Error)
	require.Len(t, emergencies, 1)
	assert.Equal(t, emergencyModel.TypeVitalBreach, emergencies[0].EmergencyType)
	assert.Equal(t, raised[0].ID, *emergencies[0].AlertEventID)
}

func TestIngestNormalReadingRaisesNothing(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(db, &stubPush{}, &stubSMS{})
	u := seedPipelineFixtures(t, db)

	reading := healthModel.HealthData{HeartRate: f(72), OxygenSaturation: f(98)}
	persisted, raised, err := p.Ingest(context.Background(), u, &reading)
	require.NoError(t, err)
	assert.NotZero(t, persisted.ID)
	assert.Empty(t, raised)

	var count int64
	require.NoError(t, db.Model(&alertModel.AlertEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIngestUnconfiguredVitalIsSkipped(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(db, &stubPush{}, &stubSMS{})
	u := seedPipelineFixtures(t, db)

	// No band exists for temperature; an extreme value raises nothing.
	reading := healthModel.HealthData{Temperature: f(41.5)}
	_, raised, err := p.Ingest(context.Background(), u, &reading)
	require.NoError(t, err)
	assert.Empty(t, raised)
}

func TestIngestMultipleBreachesInOneReading(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(db, &stubPush{}, &stubSMS{})
	u := seedPipelineFixtures(t, db)

	reading := healthModel.HealthData{HeartRate: f(130), OxygenSaturation: f(88)}
	_, raised, err := p.Ingest(context.Background(), u, &reading)
	require.NoError(t, err)
	require.Len(t, raised, 2)
	assert.Equal(t, thresholdModel.SeverityHigh, raised[0].Severity)
	assert.Equal(t, thresholdModel.SeverityLow, raised[1].Severity)
}

func TestIngestEscalationFailureKeepsAlert(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(db, &stubPush{}, &stubSMS{})
	u := seedPipelineFixtures(t, db)

	other := userModel.User{Uuid: "u-2", Email: "o@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&other).Error)
	foreign := deviceModel.Device{UserID: other.ID, DeviceName: "watch", FCMToken: "tok-x"}
	require.NoError(t, db.Create(&foreign).Error)

	reading := healthModel.HealthData{DeviceID: &foreign.ID, HeartRate: f(45)}
	_, raised, err := p.Ingest(context.Background(), u, &reading)
	require.NoError(t, err)
	require.Len(t, raised, 1)

	var emergencies int64
	require.NoError(t, db.Model(&emergencyModel.Emergency{}).Count(&emergencies).Error)
	assert.Zero(t, emergencies)
}
