package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vitalwatch/httpServices/mail"
	"vitalwatch/logger"
	otpModel "vitalwatch/models/otp"
	tokenModel "vitalwatch/models/token"
	userModel "vitalwatch/models/user"
	otpService "vitalwatch/services/otp"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles registration, login and token lifecycle
type Controller struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	OTP    *otpService.Engine
	Mail   *mail.MailService
}

func NewAuthController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:     db,
		Logger: asyncLogger,
		OTP:    otpService.NewEngine(db),
		Mail:   mail.NewMailService(),
	}
}

func (ac *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// Register creates an account and emails a verification code
func (ac *Controller) Register(c *fiber.Ctx) error {
	var req types.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	var existing userModel.User
	err := ac.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return ac.respond(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "An account with this email already exists",
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	newUser := userModel.User{
		Uuid:           uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hashed,
		Role:           userModel.RoleUser,
	}
	if err := ac.DB.Create(&newUser).Error; err != nil {
		logger.Error("Failed to create user", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	record, code, err := ac.OTP.Issue(newUser.ID, otpModel.OTPPurposeEmailVerification, c.IP(), c.Get("User-Agent"))
	if err != nil {
		logger.Error("Failed to issue verification code", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Account created but verification code could not be issued",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := ac.Mail.SendVerificationCode(ctx, newUser.Email, code, int(otpService.TTL.Minutes())); err != nil {
		// Code remains verifiable through resend; delivery failure is logged only.
		logger.Error(fmt.Sprintf("Failed to email verification code to user %d", newUser.ID), err)
	}

	logger.Success(fmt.Sprintf("User registered: %s", newUser.Uuid))

	return ac.respond(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Account created. Check your email for the verification code.",
		Data: map[string]interface{}{
			"uuid":       newUser.Uuid,
			"expires_at": record.ExpiresAt.Format("2006-01-02 15:04:05"),
		},
	})
}

// Login authenticates by email and password. Unverified accounts are rejected.
func (ac *Controller) Login(c *fiber.Ctx) error {
	var req types.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	var u userModel.User
	err := ac.DB.Where("email = ?", req.Email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(u.HashedPassword, req.Password)) {
		return ac.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}
	if err != nil {
		logger.Error("Failed to load user for login", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	if !u.EmailVerified {
		return ac.respond(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Email not verified. Verify your email before logging in.",
		})
	}

	pair, err := ac.issueTokenPair(&u)
	if err != nil {
		logger.Error("Failed to issue tokens", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Login successful",
		Data:    pair,
	})
}

func (ac *Controller) issueTokenPair(u *userModel.User) (*types.TokenPair, error) {
	access, err := utils.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	refresh, jti, expiresAt, err := utils.GenerateRefreshToken(u)
	if err != nil {
		return nil, err
	}

	row := tokenModel.RefreshToken{
		UserID:    u.ID,
		JTI:       jti,
		Token:     refresh,
		ExpiresAt: expiresAt,
	}
	if err := ac.DB.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &types.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
	}, nil
}

// Refresh rotates a refresh token into a new token pair
func (ac *Controller) Refresh(c *fiber.Ctx) error {
	var req types.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil {
		return ac.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}
	jti, _ := claims["jti"].(string)
	uid, _ := claims["uid"].(string)

	var row tokenModel.RefreshToken
	if err := ac.DB.Where("jti = ?", jti).First(&row).Error; err != nil || !row.IsUsable() {
		return ac.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Refresh token revoked or expired",
		})
	}

	u, err := utils.GetUserByUUID(ac.DB, uid)
	if err != nil {
		return ac.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	// Rotate: revoke the presented token before minting its successor.
	if err := ac.DB.Model(&row).Update("revoked", true).Error; err != nil {
		logger.Error("Failed to revoke refresh token", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	pair, err := ac.issueTokenPair(u)
	if err != nil {
		logger.Error("Failed to issue tokens", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Token refreshed",
		Data:    pair,
	})
}

// LogOut revokes the presented refresh token
func (ac *Controller) LogOut(c *fiber.Ctx) error {
	var req types.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil {
		return ac.respond(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Logged out",
		})
	}
	jti, _ := claims["jti"].(string)

	if err := ac.DB.Model(&tokenModel.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error; err != nil {
		logger.Error("Failed to revoke refresh token", err)
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Logged out",
	})
}
