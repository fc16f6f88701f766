package device

import "time"

// Device represents a registered wearable or phone that submits readings
// and receives push notifications.
type Device struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DeviceName string    `gorm:"type:varchar(255);not null" json:"device_name"`
	FCMToken   string    `gorm:"column:fcm_token;type:text" json:"fcm_token"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
