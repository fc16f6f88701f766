package emergency

import (
	"time"

	"vitalwatch/models/threshold"
)

// Emergency types
const (
	TypeVitalBreach = "vital_breach"
	TypeSOS         = "sos"
	TypeManual      = "manual"
)

// Emergency is a case for human follow-up, derived from a breach or an
// explicit SOS trigger. Its resolved flag is independent of the alert's.
type Emergency struct {
	ID            uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint               `gorm:"not null;index" json:"user_id"`
	EmergencyType string             `gorm:"type:varchar(50);not null" json:"emergency_type"`
	Severity      threshold.Severity `gorm:"type:varchar(20);not null" json:"severity"`
	Description   string             `gorm:"type:text" json:"description"`
	AlertEventID  *uint              `gorm:"index" json:"alert_event_id,omitempty"`
	DeviceID      *uint              `json:"device_id,omitempty"`
	Resolved      bool               `gorm:"default:false" json:"resolved"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}
