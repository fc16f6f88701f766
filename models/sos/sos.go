package sos

import (
	"time"

	"vitalwatch/models/threshold"
)

// SOSStatus of a request.
type SOSStatus string

const (
	StatusActive    SOSStatus = "active"
	StatusResolved  SOSStatus = "resolved"
	StatusCancelled SOSStatus = "cancelled"
)

// SOSRequest is an explicit user-triggered distress signal. Unlike alerts
// it carries no vital value; severity defaults to high.
type SOSRequest struct {
	ID             uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint               `gorm:"not null;index" json:"user_id"`
	Severity       threshold.Severity `gorm:"type:varchar(20);not null;default:'high'" json:"severity"`
	Status         SOSStatus          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Latitude       *float64           `json:"latitude,omitempty"`
	Longitude      *float64           `json:"longitude,omitempty"`
	Dispatched     bool               `gorm:"default:false" json:"dispatched"`
	VitalsSnapshot string             `gorm:"type:text" json:"-"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}
