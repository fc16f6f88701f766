package otp

import (
	"time"
)

// OTPPurpose represents the purpose of the OTP
type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
)

// Delivery channels recorded on the challenge
const (
	SentViaEmail = "email"
	SentViaSMS   = "sms"
)

// EmailOTP represents an issued OTP challenge. Only the keyed hash of the
// code is stored; the plaintext exists once, at issue time.
type EmailOTP struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	OTPHash     string     `gorm:"column:otp_hash;type:varchar(64);not null" json:"-"`
	Purpose     OTPPurpose `gorm:"type:varchar(50);not null" json:"purpose"`
	SentVia     string     `gorm:"type:varchar(20);not null;default:'email'" json:"sent_via"`
	IPAddress   string     `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent   string     `gorm:"type:text" json:"user_agent,omitempty"`
	IsUsed      bool       `gorm:"default:false" json:"is_used"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	MaxAttempts int        `gorm:"default:5" json:"max_attempts"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired checks if the challenge has expired
func (o *EmailOTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// IsValid checks if the challenge is still verifiable (not used and not expired)
func (o *EmailOTP) IsValid() bool {
	return !o.IsUsed && !o.IsExpired()
}

// Exhausted checks if the attempt budget is spent
func (o *EmailOTP) Exhausted() bool {
	return o.Attempts >= o.MaxAttempts
}

// AttemptsLeft returns the remaining verification attempts
func (o *EmailOTP) AttemptsLeft() int {
	left := o.MaxAttempts - o.Attempts
	if left < 0 {
		return 0
	}
	return left
}
