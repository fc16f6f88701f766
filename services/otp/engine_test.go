package otp

import (
	"testing"
	"time"

	otpModel "vitalwatch/models/otp"
	userModel "vitalwatch/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("OTP_HASH_SECRET", "test-hash-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&otpModel.EmailOTP{},
		&otpModel.OTPEvent{},
	))
	return NewEngine(db), db
}

func seedUser(t *testing.T, db *gorm.DB) *userModel.User {
	t.Helper()
	u := userModel.User{Uuid: "u-1", Name: "Thandi", Email: "t@example.com", Role: userModel.RoleUser}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestGenerateCodeLengthAndCharset(t *testing.T) {
	e, _ := newTestEngine(t)
	for i := 0; i < 50; i++ {
		code, err := e.GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestIssueStoresHashNotPlaintext(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	record, code, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.Len(t, code, CodeLength)
	assert.NotEqual(t, code, record.OTPHash)
	assert.Len(t, record.OTPHash, 64)
	assert.Equal(t, MaxAttempts, record.MaxAttempts)
	assert.WithinDuration(t, time.Now().Add(TTL), record.ExpiresAt, 5*time.Second)

	var events []otpModel.OTPEvent
	require.NoError(t, db.Where("otp_id = ?", record.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, otpModel.EventIssued, events[0].EventType)
}

func TestIssueInvalidatesPriorChallenges(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	first, firstCode, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)
	_, _, err = e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)

	var stale otpModel.EmailOTP
	require.NoError(t, db.First(&stale, first.ID).Error)
	assert.True(t, stale.IsUsed)

	// The superseded code no longer verifies.
	result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, firstCode)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidCode, result.Outcome)
}

func TestVerifySuccessMarksUserVerified(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	_, code, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)

	result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, result.Outcome)

	var refreshed userModel.User
	require.NoError(t, db.First(&refreshed, u.ID).Error)
	assert.True(t, refreshed.EmailVerified)

	// A consumed code cannot be replayed.
	result, err = e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoValidCode, result.Outcome)
}

func TestVerifyWrongCodeCountsAttempts(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	_, code, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 1; i <= MaxAttempts; i++ {
		result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, wrong)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalidCode, result.Outcome)
		assert.Equal(t, MaxAttempts-i, result.AttemptsLeft)
	}

	// The budget is spent, even the correct code is refused.
	result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMaxAttemptsExceeded, result.Outcome)

	var refreshed userModel.User
	require.NoError(t, db.First(&refreshed, u.ID).Error)
	assert.False(t, refreshed.EmailVerified)

	var events []otpModel.OTPEvent
	require.NoError(t, db.Where("event_type = ?", otpModel.EventExhausted).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestVerifyNoChallenge(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, "123456")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoValidCode, result.Outcome)
}

func TestVerifyExpiredChallenge(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	record, code, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)
	require.NoError(t, db.Model(record).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoValidCode, result.Outcome)
}

func TestResendCooldown(t *testing.T) {
	e, db := newTestEngine(t)
	u := seedUser(t, db)

	_, _, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)

	_, _, err = e.Resend(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	assert.ErrorIs(t, err, ErrResendCooldown)

	// Backdate the last issue past the cooldown window.
	require.NoError(t, db.Model(&otpModel.EmailOTP{}).
		Where("user_id = ?", u.ID).
		Update("created_at", time.Now().Add(-ResendCooldown-time.Second)).Error)

	record, code, err := e.Resend(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Len(t, code, CodeLength)
}

func TestPurposesAreIndependent(t *testing.T) {
	e, _ := newTestEngine(t)
	db := e.DB
	u := seedUser(t, db)

	_, verifyCode, err := e.Issue(u.ID, otpModel.OTPPurposeEmailVerification, "", "")
	require.NoError(t, err)
	_, _, err = e.Issue(u.ID, otpModel.OTPPurposePasswordReset, "", "")
	require.NoError(t, err)

	// Issuing for one purpose does not invalidate the other.
	result, err := e.Verify(u.ID, otpModel.OTPPurposeEmailVerification, verifyCode)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, result.Outcome)
}
