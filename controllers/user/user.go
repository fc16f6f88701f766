package user

import (
	"errors"
	"fmt"
	"time"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	alertModel "vitalwatch/models/alert"
	contactModel "vitalwatch/models/contact"
	deviceModel "vitalwatch/models/device"
	emergencyModel "vitalwatch/models/emergency"
	healthModel "vitalwatch/models/health"
	otpModel "vitalwatch/models/otp"
	sosModel "vitalwatch/models/sos"
	thresholdModel "vitalwatch/models/threshold"
	tokenModel "vitalwatch/models/token"
	userModel "vitalwatch/models/user"
	thresholdService "vitalwatch/services/threshold"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles user profiles, onboarding and account deletion
type Controller struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	Thresholds *thresholdService.Service
}

func NewUserController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:         db,
		Logger:     asyncLogger,
		Thresholds: thresholdService.NewService(db),
	}
}

func (uc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	uc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// Me returns the caller's account and health profile
func (uc *Controller) Me(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(uc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return uc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	var profile userModel.UserProfile
	profileErr := uc.DB.Where("user_id = ?", u.ID).First(&profile).Error
	data := map[string]interface{}{"user": u}
	if profileErr == nil {
		data["profile"] = profile
	}

	return uc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "User retrieved",
		Data:    data,
	})
}

// Onboard records the health profile, derives the demographic category and
// provisions the user's default threshold bands. Re-running it refreshes
// non-customized bands to the newly derived category.
func (uc *Controller) Onboard(c *fiber.Ctx) error {
	var req types.OnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return uc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return uc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return uc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid date of birth",
		})
	}
	if dob.After(time.Now()) {
		return uc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Date of birth cannot be in the future",
		})
	}

	u, err := utils.GetUserByUUID(uc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return uc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	ageYears := utils.AgeYears(dob)
	category := thresholdService.DetermineCategory(ageYears, req.ChronicCondition, req.ActivityLevel)

	var profile userModel.UserProfile
	dbErr := uc.DB.Where("user_id = ?", u.ID).First(&profile).Error
	isNew := errors.Is(dbErr, gorm.ErrRecordNotFound)
	if dbErr != nil && !isNew {
		logger.Error("Failed to load user profile", dbErr)
		return uc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	profile.UserID = u.ID
	profile.Age = ageYears
	profile.DateOfBirth = &dob
	profile.HeightCM = req.HeightCM
	profile.WeightKG = req.WeightKG
	profile.Gender = req.Gender
	profile.ChronicCondition = req.ChronicCondition
	profile.ActivityLevel = req.ActivityLevel
	profile.HealthContext = req.HealthContext

	if isNew {
		dbErr = uc.DB.Create(&profile).Error
	} else {
		dbErr = uc.DB.Save(&profile).Error
	}
	if dbErr != nil {
		logger.Error("Failed to store user profile", dbErr)
		return uc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store profile",
		})
	}

	if isNew {
		err = uc.Thresholds.ProvisionDefaults(u.ID, category)
	} else {
		err = uc.Thresholds.RefreshDefaults(u.ID, category)
	}
	if err != nil {
		logger.Error("Failed to provision threshold defaults", err)
		return uc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Profile stored but thresholds could not be provisioned",
		})
	}

	logger.Success(fmt.Sprintf("User %s onboarded into category %s", u.Uuid, category))

	return uc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Onboarding complete",
		Data: map[string]interface{}{
			"profile":  profile,
			"category": category,
		},
	})
}

// DeleteAccount removes the caller and everything they own. The explicit
// transaction keeps the cascade portable across database engines.
func (uc *Controller) DeleteAccount(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(uc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return uc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	err = uc.DB.Transaction(func(tx *gorm.DB) error {
		var alertIDs []uint
		if err := tx.Model(&alertModel.AlertEvent{}).
			Where("user_id = ?", u.ID).
			Pluck("id", &alertIDs).Error; err != nil {
			return err
		}
		if len(alertIDs) > 0 {
			if err := tx.Where("alert_event_id IN ?", alertIDs).
				Delete(&alertModel.AlertNotification{}).Error; err != nil {
				return err
			}
		}

		for _, model := range []interface{}{
			&alertModel.AlertEvent{},
			&emergencyModel.Emergency{},
			&sosModel.SOSRequest{},
			&healthModel.HealthData{},
			&thresholdModel.ThresholdProfile{},
			&deviceModel.Device{},
			&contactModel.EmergencyContact{},
			&otpModel.OTPEvent{},
			&otpModel.EmailOTP{},
			&tokenModel.RefreshToken{},
			&userModel.UserProfile{},
		} {
			if err := tx.Where("user_id = ?", u.ID).Delete(model).Error; err != nil {
				return err
			}
		}

		return tx.Delete(u).Error
	})
	if err != nil {
		logger.Error("Failed to delete account", err)
		return uc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete account",
		})
	}

	logger.Warning(fmt.Sprintf("Account deleted: %s", u.Uuid))

	return uc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Account deleted",
	})
}
