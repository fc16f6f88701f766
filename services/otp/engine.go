package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"vitalwatch/models/otp"
	"vitalwatch/models/user"
	"vitalwatch/services/otp_event"
	"vitalwatch/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	CodeLength     = 6
	TTL            = 10 * time.Minute
	MaxAttempts    = 5
	ResendCooldown = 30 * time.Second
)

// ErrResendCooldown is returned when a resend is requested before the
// cooldown window has elapsed.
var ErrResendCooldown = errors.New("resend requested before cooldown elapsed")

// Outcome of a verification attempt. Typed outcomes, not errors.
type Outcome int

const (
	OutcomeVerified Outcome = iota
	OutcomeNoValidCode
	OutcomeInvalidCode
	OutcomeMaxAttemptsExceeded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeNoValidCode:
		return "no_valid_code"
	case OutcomeInvalidCode:
		return "invalid_code"
	case OutcomeMaxAttemptsExceeded:
		return "max_attempts_exceeded"
	default:
		return "unknown"
	}
}

// VerifyResult carries the outcome and, for invalid codes, the remaining
// attempt budget.
type VerifyResult struct {
	Outcome      Outcome
	AttemptsLeft int
}

// Engine implements the OTP state machine: atomic issue-and-invalidate,
// hash-at-rest storage, attempt limiting and resend throttling.
type Engine struct {
	DB *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

// GenerateCode generates a random numeric code of CodeLength digits
func (e *Engine) GenerateCode() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(CodeLength), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// lockRows adds a row lock where the dialect supports it. SQLite has no
// row locks; its transactions are already serialized.
func lockRows(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Issue invalidates all prior unused challenges for (user, purpose) and
// inserts a fresh one as a single atomic unit. The plaintext code is
// returned exactly once, for out-of-band delivery.
func (e *Engine) Issue(userID uint, purpose otp.OTPPurpose, ipAddress, userAgent string) (*otp.EmailOTP, string, error) {
	code, err := e.GenerateCode()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate code: %w", err)
	}

	var record *otp.EmailOTP
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		var prior []otp.EmailOTP
		if err := lockRows(tx).
			Where("user_id = ? AND purpose = ? AND is_used = false", userID, purpose).
			Find(&prior).Error; err != nil {
			return fmt.Errorf("failed to load prior challenges: %w", err)
		}

		for i := range prior {
			prior[i].IsUsed = true
			if err := tx.Save(&prior[i]).Error; err != nil {
				return fmt.Errorf("failed to invalidate prior challenge: %w", err)
			}
			if err := otp_event.SnapshotOTPToEvent(tx, &prior[i], otp.EventInvalidated); err != nil {
				return err
			}
		}

		fresh := otp.EmailOTP{
			UserID:      userID,
			OTPHash:     utils.HashOTPCode(code),
			Purpose:     purpose,
			SentVia:     otp.SentViaEmail,
			IPAddress:   ipAddress,
			UserAgent:   userAgent,
			MaxAttempts: MaxAttempts,
			ExpiresAt:   time.Now().Add(TTL),
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return fmt.Errorf("failed to create challenge: %w", err)
		}
		if err := otp_event.SnapshotOTPToEvent(tx, &fresh, otp.EventIssued); err != nil {
			return err
		}

		record = &fresh
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return record, code, nil
}

// Resend issues a fresh challenge only after the cooldown window since the
// last issue has elapsed.
func (e *Engine) Resend(userID uint, purpose otp.OTPPurpose, ipAddress, userAgent string) (*otp.EmailOTP, string, error) {
	var last otp.EmailOTP
	err := e.DB.Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to load last challenge: %w", err)
	}
	if err == nil && time.Since(last.CreatedAt) < ResendCooldown {
		return nil, "", ErrResendCooldown
	}

	return e.Issue(userID, purpose, ipAddress, userAgent)
}

// Verify checks a candidate code against the latest valid challenge for
// (user, purpose). Comparisons are constant-time. On success the user is
// marked email verified.
func (e *Engine) Verify(userID uint, purpose otp.OTPPurpose, code string) (VerifyResult, error) {
	var result VerifyResult

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var record otp.EmailOTP
		err := lockRows(tx).
			Where("user_id = ? AND purpose = ? AND is_used = false AND expires_at > ?",
				userID, purpose, time.Now()).
			Order("created_at DESC").
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = VerifyResult{Outcome: OutcomeNoValidCode}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load challenge: %w", err)
		}

		if record.Exhausted() {
			record.IsUsed = true
			if err := tx.Save(&record).Error; err != nil {
				return fmt.Errorf("failed to exhaust challenge: %w", err)
			}
			if err := otp_event.SnapshotOTPToEvent(tx, &record, otp.EventExhausted); err != nil {
				return err
			}
			result = VerifyResult{Outcome: OutcomeMaxAttemptsExceeded}
			return nil
		}

		if !utils.OTPHashEqual(record.OTPHash, code) {
			record.Attempts++
			if err := tx.Save(&record).Error; err != nil {
				return fmt.Errorf("failed to record failed attempt: %w", err)
			}
			if err := otp_event.SnapshotOTPToEvent(tx, &record, otp.EventAttemptFailed); err != nil {
				return err
			}
			result = VerifyResult{Outcome: OutcomeInvalidCode, AttemptsLeft: record.AttemptsLeft()}
			return nil
		}

		record.IsUsed = true
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to consume challenge: %w", err)
		}
		if err := otp_event.SnapshotOTPToEvent(tx, &record, otp.EventVerified); err != nil {
			return err
		}

		if purpose == otp.OTPPurposeEmailVerification {
			if err := tx.Model(&user.User{}).
				Where("id = ?", userID).
				Update("email_verified", true).Error; err != nil {
				return fmt.Errorf("failed to mark user verified: %w", err)
			}
		}

		result = VerifyResult{Outcome: OutcomeVerified}
		return nil
	})
	if err != nil {
		return VerifyResult{}, err
	}

	return result, nil
}
