package user

import "time"

// Role represents the access level of an account
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) String() string { return string(r) }

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsElevated reports whether the role may access other users' data
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents a monitored account
type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid           string    `gorm:"type:varchar(64);not null;unique" json:"uuid"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Email          string    `gorm:"type:varchar(255);not null;unique" json:"email"`
	HashedPassword string    `gorm:"type:varchar(255);not null" json:"-"`
	Role           Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	EmailVerified  bool      `gorm:"default:false" json:"email_verified"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DisplayName returns the user's name with a placeholder fallback for alert messages
func (u *User) DisplayName() string {
	if u == nil || u.Name == "" {
		return "Unknown User"
	}
	return u.Name
}
