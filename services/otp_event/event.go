package otp_event

import (
	"vitalwatch/models/otp"

	"gorm.io/gorm"
)

// SnapshotOTPToEvent writes a full snapshot of an OTP row into OTPEvent
// with the given event type.
func SnapshotOTPToEvent(tx *gorm.DB, o *otp.EmailOTP, eventType string) error {
	ev := otp.OTPEvent{
		OTPID:       o.ID,
		UserID:      o.UserID,
		OTPHash:     o.OTPHash,
		Purpose:     o.Purpose,
		SentVia:     o.SentVia,
		IPAddress:   o.IPAddress,
		UserAgent:   o.UserAgent,
		IsUsed:      o.IsUsed,
		Attempts:    o.Attempts,
		MaxAttempts: o.MaxAttempts,
		ExpiresAt:   o.ExpiresAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		EventType:   eventType,
	}

	return tx.Create(&ev).Error
}
