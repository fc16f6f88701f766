package otp

import (
	"time"
)

// OTP event types
const (
	EventIssued        = "issued"
	EventInvalidated   = "invalidated"
	EventAttemptFailed = "attempt_failed"
	EventExhausted     = "exhausted"
	EventVerified      = "verified"
)

// OTPEvent represents an OTP event record mirroring EmailOTP fields.
// Every state change writes a full snapshot row for audit.
type OTPEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	OTPID       uint       `gorm:"column:otp_id;not null;index" json:"otp_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	OTPHash     string     `gorm:"column:otp_hash;type:varchar(64);not null" json:"-"`
	Purpose     OTPPurpose `gorm:"type:varchar(50);not null" json:"purpose"`
	SentVia     string     `gorm:"type:varchar(20)" json:"sent_via"`
	IPAddress   string     `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent   string     `gorm:"type:text" json:"user_agent,omitempty"`
	IsUsed      bool       `gorm:"default:false" json:"is_used"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	MaxAttempts int        `gorm:"default:5" json:"max_attempts"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	EventType string `gorm:"type:varchar(50);not null" json:"event_type"`
}
