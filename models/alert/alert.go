package alert

import (
	"fmt"
	"time"

	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
)

// AlertMethod is the delivery channel of a notification.
type AlertMethod string

const (
	MethodSMS   AlertMethod = "sms"
	MethodPush  AlertMethod = "push"
	MethodEmail AlertMethod = "email"
)

func (m AlertMethod) String() string { return string(m) }

func ParseMethod(s string) (AlertMethod, error) {
	switch AlertMethod(s) {
	case MethodSMS, MethodPush, MethodEmail:
		return AlertMethod(s), nil
	default:
		return "", fmt.Errorf("unknown alert method: %q", s)
	}
}

// AlertStatus is the delivery state of a notification. Pending transitions
// once to sent or failed, both terminal.
type AlertStatus string

const (
	StatusPending AlertStatus = "pending"
	StatusSent    AlertStatus = "sent"
	StatusFailed  AlertStatus = "failed"
)

func (s AlertStatus) String() string { return string(s) }

// AlertEvent is the immutable record of a single vital breach. Only the
// resolved flag is mutable, through an explicit resolution action.
type AlertEvent struct {
	ID             uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint               `gorm:"not null;index" json:"user_id"`
	HealthDataID   *uint              `gorm:"index" json:"health_data_id,omitempty"`
	VitalType      health.VitalKind   `gorm:"type:varchar(40);not null" json:"vital_type"`
	Value          float64            `gorm:"not null" json:"value"`
	Severity       threshold.Severity `gorm:"type:varchar(20);not null" json:"severity"`
	Message        string             `gorm:"type:text" json:"message"`
	Latitude       *float64           `json:"latitude,omitempty"`
	Longitude      *float64           `json:"longitude,omitempty"`
	VitalsSnapshot string             `gorm:"type:text" json:"-"`
	Resolved       bool               `gorm:"default:false" json:"resolved"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// AlertNotification is one delivery attempt for one (channel, recipient).
type AlertNotification struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertEventID  uint        `gorm:"not null;index" json:"alert_event_id"`
	Method        AlertMethod `gorm:"type:varchar(20);not null" json:"method"`
	Recipient     string      `gorm:"type:varchar(255);not null" json:"recipient"`
	Message       string      `gorm:"type:text" json:"message"`
	Status        AlertStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	FailureReason string      `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
