package contact

import "time"

// EmergencyContact is a person notified by SMS when a vital breaches.
type EmergencyContact struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	PhoneNumber  string    `gorm:"type:varchar(20);not null" json:"phone_number"`
	RelationType string    `gorm:"type:varchar(50)" json:"relation_type"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
