package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"vitalwatch/models/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost      = 10
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a bcrypt hash against a plaintext candidate
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateAccessToken mints a short-lived HS256 access token
func GenerateAccessToken(u *user.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":   u.Uuid,
		"email": u.Email,
		"role":  u.Role.String(),
		"iat":   now.Unix(),
		"exp":   now.Add(AccessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken mints a long-lived HS256 refresh token with a jti
// so the persisted row can be revoked on logout.
func GenerateRefreshToken(u *user.User) (string, string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(RefreshTokenTTL)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"uid": u.Uuid,
		"jti": jti,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, jti, expiresAt, nil
}

// ParseToken verifies an HS256 token and returns its claims
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

// HashOTPCode returns the keyed HMAC-SHA256 hash of an OTP code. Only this
// hash is ever stored.
func HashOTPCode(code string) string {
	mac := hmac.New(sha256.New, []byte(os.Getenv("OTP_HASH_SECRET")))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// OTPHashEqual compares a stored hash against the hash of a candidate code
// in constant time.
func OTPHashEqual(storedHash, code string) bool {
	return hmac.Equal([]byte(storedHash), []byte(HashOTPCode(code)))
}
