package user

import "time"

// Activity levels used when deriving a demographic threshold category
const (
	ActivitySedentary = "sedentary"
	ActivityModerate  = "moderate"
	ActivityAthlete   = "athlete"
)

// UserProfile holds the health context used for threshold provisioning
type UserProfile struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Age              int        `gorm:"default:0" json:"age"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	HeightCM         float64    `gorm:"default:0" json:"height_cm"`
	WeightKG         float64    `gorm:"default:0" json:"weight_kg"`
	Gender           string     `gorm:"type:varchar(20)" json:"gender"`
	ChronicCondition bool       `gorm:"default:false" json:"chronic_condition"`
	ActivityLevel    string     `gorm:"type:varchar(20)" json:"activity_level"`
	HealthContext    string     `gorm:"type:text" json:"health_context"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
