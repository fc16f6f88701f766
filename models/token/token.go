package token

import "time"

// RefreshToken is a persisted refresh credential, revocable on logout.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	JTI       string    `gorm:"column:jti;type:varchar(64);not null;unique" json:"jti"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsUsable checks if the token may still mint new access tokens
func (t *RefreshToken) IsUsable() bool {
	return !t.Revoked && time.Now().Before(t.ExpiresAt)
}
