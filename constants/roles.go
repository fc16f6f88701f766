package constants

// Role names carried in JWT claims and checked by the auth middleware.
const (
	RoleAny        = "any"
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)
