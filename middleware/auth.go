package middleware

import (
	"vitalwatch/constants"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// IsAuthenticated checks for a valid HS256 access token and gates by role.
// Claims are attached to the request context on success.
func IsAuthenticated(requiredRoles []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			parsed, err := utils.BearerToken(authHeader)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Status:  fiber.StatusUnauthorized,
					Message: "Invalid authorization header format",
				})
			}
			token = parsed
		} else {
			// Try to get token from cookie as fallback
			token = c.Cookies("access")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Status:  fiber.StatusUnauthorized,
					Message: "Authorization token missing",
				})
			}
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Session expired. Login again.",
			})
		}

		if !hasRole(claims, requiredRoles) {
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Status:  fiber.StatusForbidden,
				Message: "Insufficient permissions",
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

func hasRole(claims jwt.MapClaims, requiredRoles []string) bool {
	for _, required := range requiredRoles {
		if required == constants.RoleAny {
			return true
		}
	}

	role, _ := claims["role"].(string)
	for _, required := range requiredRoles {
		if role == required {
			return true
		}
	}
	return false
}

// RequireAuthentication only requires a valid token without a specific role
func RequireAuthentication() fiber.Handler {
	return IsAuthenticated([]string{constants.RoleAny})
}

// RequireRoles allows access if the caller holds any of the given roles
func RequireRoles(roles ...string) fiber.Handler {
	return IsAuthenticated(roles)
}

// RequireAdmin allows admins and superadmins only
func RequireAdmin() fiber.Handler {
	return IsAuthenticated([]string{constants.RoleAdmin, constants.RoleSuperAdmin})
}

// CurrentUserUUID returns the uid claim set by IsAuthenticated
func CurrentUserUUID(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	uid, _ := claims["uid"].(string)
	return uid
}

// CurrentRole returns the role claim set by IsAuthenticated
func CurrentRole(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

// IsElevated reports whether the caller may access other users' data
func IsElevated(c *fiber.Ctx) bool {
	role := CurrentRole(c)
	return role == constants.RoleAdmin || role == constants.RoleSuperAdmin
}
