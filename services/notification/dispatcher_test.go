package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	alertModel "vitalwatch/models/alert"
	contactModel "vitalwatch/models/contact"
	deviceModel "vitalwatch/models/device"
	userModel "vitalwatch/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type fakePush struct {
	tokens []string
	fail   map[string]bool
}

func (p *fakePush) Send(ctx context.Context, tokens []string, title, body string) (int, int, error) {
	p.tokens = append(p.tokens, tokens...)
	for _, tok := range tokens {
		if p.fail[tok] {
			return 0, len(tokens), nil
		}
	}
	return len(tokens), 0, nil
}

type fakeSMS struct {
	sent []string
	fail map[string]bool
}

func (s *fakeSMS) Send(ctx context.Context, message, destination string) error {
	s.sent = append(s.sent, destination)
	if s.fail[destination] {
		return errors.New("gateway rejected message")
	}
	return nil
}

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
		&alertModel.AlertEvent{},
		&alertModel.AlertNotification{},
	))
	return db
}

func newTestDispatcher(db *gorm.DB, push *fakePush, sms *fakeSMS) *Dispatcher {
	return &Dispatcher{DB: db, Push: push, SMS: sms, Timeout: time.Second}
}

func seedAlert(t *testing.T, db *gorm.DB, userID uint) *alertModel.AlertEvent {
	t.Helper()
	ev := alertModel.AlertEvent{
		UserID:    userID,
		VitalType: "heart_rate",
		Value:     45,
		Severity:  "low",
		Message:   "Test: Heart Rate breached LOW threshold. Value: 45.0",
	}
	require.NoError(t, db.Create(&ev).Error)
	return &ev
}

func TestDispatchOneRowPerRecipient(t *testing.T) {
	db := newTestDB(t)
	push := &fakePush{}
	sms := &fakeSMS{}
	d := newTestDispatcher(db, push, sms)

	require.NoError(t, db.Create(&deviceModel.Device{UserID: 1, DeviceName: "watch", FCMToken: "tok-1"}).Error)
	require.NoError(t, db.Create(&deviceModel.Device{UserID: 1, DeviceName: "phone", FCMToken: "tok-2"}).Error)
	require.NoError(t, db.Create(&contactModel.EmergencyContact{UserID: 1, Name: "Mom", PhoneNumber: "0821234567"}).Error)

	ev := seedAlert(t, db, 1)
	results := d.Dispatch(context.Background(), ev)

	require.Len(t, results, 3)
	for _, row := range results {
		assert.Equal(t, alertModel.StatusSent, row.Status)
		assert.Equal(t, ev.Message, row.Message)
	}

	// Each token gets its own delivery attempt.
	assert.ElementsMatch(t, []string{"tok-1", "tok-2"}, push.tokens)
	assert.Equal(t, []string{"0821234567"}, sms.sent)
}

func TestDispatchFailureIsolation(t *testing.T) {
	db := newTestDB(t)
	push := &fakePush{fail: map[string]bool{"tok-bad": true}}
	sms := &fakeSMS{fail: map[string]bool{"0820000000": true}}
	d := newTestDispatcher(db, push, sms)

	require.NoError(t, db.Create(&deviceModel.Device{UserID: 1, DeviceName: "watch", FCMToken: "tok-bad"}).Error)
	require.NoError(t, db.Create(&deviceModel.Device{UserID: 1, DeviceName: "phone", FCMToken: "tok-good"}).Error)
	require.NoError(t, db.Create(&contactModel.EmergencyContact{UserID: 1, Name: "A", PhoneNumber: "0820000000"}).Error)
	require.NoError(t, db.Create(&contactModel.EmergencyContact{UserID: 1, Name: "B", PhoneNumber: "0821111111"}).Error)

	ev := seedAlert(t, db, 1)
	results := d.Dispatch(context.Background(), ev)
	require.Len(t, results, 4)

	byRecipient := make(map[string]alertModel.AlertNotification)
	for _, row := range results {
		byRecipient[row.Recipient] = row
	}

	assert.Equal(t, alertModel.StatusFailed, byRecipient["tok-bad"].Status)
	assert.NotEmpty(t, byRecipient["tok-bad"].FailureReason)
	assert.Equal(t, alertModel.StatusSent, byRecipient["tok-good"].Status)
	assert.Equal(t, alertModel.StatusFailed, byRecipient["0820000000"].Status)
	assert.Equal(t, alertModel.StatusSent, byRecipient["0821111111"].Status)
}

func TestDispatchSkipsEmptyTokens(t *testing.T) {
	db := newTestDB(t)
	push := &fakePush{}
	sms := &fakeSMS{}
	d := newTestDispatcher(db, push, sms)

	require.NoError(t, db.Create(&deviceModel.Device{UserID: 1, DeviceName: "old-watch", FCMToken: ""}).Error)

	ev := seedAlert(t, db, 1)
	results := d.Dispatch(context.Background(), ev)
	assert.Empty(t, results)
	assert.Empty(t, push.tokens)
}

func TestDispatchPersistsTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	push := &fakePush{fail: map[string]bool{"tok-bad": true}}
	d := newTestDispatcher(db, push, &fakeSMS{})

	require.NoError(t, db.Create(&deviceModel.Device{UserID: 1, DeviceName: "watch", FCMToken: "tok-bad"}).Error)

	ev := seedAlert(t, db, 1)
	d.Dispatch(context.Background(), ev)

	var rows []alertModel.AlertNotification
	require.NoError(t, db.Where("alert_event_id = ?", ev.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	// Nothing is ever left pending.
	assert.Equal(t, alertModel.StatusFailed, rows[0].Status)
}
