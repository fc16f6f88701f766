package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vitalwatch/httpServices/mail"
	"vitalwatch/logger"
	otpModel "vitalwatch/models/otp"
	userModel "vitalwatch/models/user"
	otpService "vitalwatch/services/otp"
	"vitalwatch/types"
	otpTypes "vitalwatch/types/otp"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles email OTP verification and resend
type Controller struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	Engine *otpService.Engine
	Mail   *mail.MailService
}

func NewOTPController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:     db,
		Logger: asyncLogger,
		Engine: otpService.NewEngine(db),
		Mail:   mail.NewMailService(),
	}
}

func (oc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	oc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// VerifyEmail verifies the submitted code. Responses for unknown accounts
// match those for a wrong code so account existence is never revealed.
func (oc *Controller) VerifyEmail(c *fiber.Ctx) error {
	var req otpTypes.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return oc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return oc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	invalidResponse := types.ApiResponse{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid or expired code",
		Data: otpTypes.OTPResponse{
			Message: "Invalid or expired code",
			Success: false,
		},
	}

	var u userModel.User
	if err := oc.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to load user for verification", err)
		}
		return oc.respond(c, fiber.StatusBadRequest, invalidResponse)
	}

	result, err := oc.Engine.Verify(u.ID, otpModel.OTPPurposeEmailVerification, req.Code)
	if err != nil {
		logger.Error("Failed to verify code", err)
		return oc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	switch result.Outcome {
	case otpService.OutcomeVerified:
		logger.Success(fmt.Sprintf("Email verified for user %s", u.Uuid))
		return oc.respond(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Email verified successfully",
			Data: otpTypes.OTPResponse{
				Message: "Email verified successfully",
				Success: true,
			},
		})
	case otpService.OutcomeInvalidCode:
		attemptsLeft := result.AttemptsLeft
		return oc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: fmt.Sprintf("Invalid code. %d attempts remaining", attemptsLeft),
			Data: otpTypes.OTPResponse{
				Message:      fmt.Sprintf("Invalid code. %d attempts remaining", attemptsLeft),
				Success:      false,
				AttemptsLeft: &attemptsLeft,
			},
		})
	case otpService.OutcomeMaxAttemptsExceeded:
		return oc.respond(c, fiber.StatusTooManyRequests, types.ApiResponse{
			Status:  fiber.StatusTooManyRequests,
			Message: "Maximum attempts exceeded. Request a new code.",
			Data: otpTypes.OTPResponse{
				Message: "Maximum attempts exceeded. Request a new code.",
				Success: false,
			},
		})
	default:
		return oc.respond(c, fiber.StatusBadRequest, invalidResponse)
	}
}

// ResendEmailOTP issues a fresh code after the cooldown window. The
// response shape is identical for unknown accounts and throttled requests.
func (oc *Controller) ResendEmailOTP(c *fiber.Ctx) error {
	var req otpTypes.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return oc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return oc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	genericResponse := types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "If the account exists, a new code has been sent.",
		Data: otpTypes.OTPResponse{
			Message: "If the account exists, a new code has been sent.",
			Success: true,
		},
	}

	var u userModel.User
	if err := oc.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to load user for resend", err)
		}
		return oc.respond(c, fiber.StatusOK, genericResponse)
	}

	if u.EmailVerified {
		return oc.respond(c, fiber.StatusOK, genericResponse)
	}

	_, code, err := oc.Engine.Resend(u.ID, otpModel.OTPPurposeEmailVerification, c.IP(), c.Get("User-Agent"))
	if err != nil {
		if errors.Is(err, otpService.ErrResendCooldown) {
			return oc.respond(c, fiber.StatusOK, genericResponse)
		}
		logger.Error("Failed to resend code", err)
		return oc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := oc.Mail.SendVerificationCode(ctx, u.Email, code, int(otpService.TTL.Minutes())); err != nil {
		logger.Error(fmt.Sprintf("Failed to email verification code to user %d", u.ID), err)
	}

	return oc.respond(c, fiber.StatusOK, genericResponse)
}
