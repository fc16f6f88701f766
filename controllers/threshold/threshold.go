package threshold

import (
	"errors"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	healthModel "vitalwatch/models/health"
	thresholdModel "vitalwatch/models/threshold"
	thresholdService "vitalwatch/services/threshold"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles threshold defaults, profiles and simulation
type Controller struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	Service *thresholdService.Service
}

func NewThresholdController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:      db,
		Logger:  asyncLogger,
		Service: thresholdService.NewService(db),
	}
}

func (tc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	tc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

func (tc *Controller) currentUser(c *fiber.Ctx) (uint, error) {
	u, err := utils.GetUserByUUID(tc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// ListDefaults returns all system default bands (admin)
func (tc *Controller) ListDefaults(c *fiber.Ctx) error {
	var defaults []thresholdModel.ThresholdDefault
	if err := tc.DB.Order("category, vital_type").Find(&defaults).Error; err != nil {
		logger.Error("Failed to list threshold defaults", err)
		return tc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Threshold defaults retrieved",
		Data:    defaults,
	})
}

// UpsertDefault creates or updates a system default band (admin)
func (tc *Controller) UpsertDefault(c *fiber.Ctx) error {
	var req types.DefaultThresholdRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	category, err := thresholdModel.ParseCategory(req.Category)
	if err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}
	kind, err := healthModel.ParseVitalKind(req.VitalType)
	if err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	var def thresholdModel.ThresholdDefault
	dbErr := tc.DB.Where("category = ? AND vital_type = ?", category, kind).First(&def).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		def = thresholdModel.ThresholdDefault{
			Category:  category,
			VitalType: kind,
			Low:       req.Low,
			High:      req.High,
		}
		dbErr = tc.DB.Create(&def).Error
	} else if dbErr == nil {
		def.Low = req.Low
		def.High = req.High
		dbErr = tc.DB.Save(&def).Error
	}
	if dbErr != nil {
		logger.Error("Failed to upsert threshold default", dbErr)
		return tc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store threshold default",
		})
	}

	return tc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Threshold default stored",
		Data:    def,
	})
}

// ListProfiles returns the caller's merged effective thresholds
func (tc *Controller) ListProfiles(c *fiber.Ctx) error {
	userID, err := tc.currentUser(c)
	if err != nil {
		return tc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	effective, err := tc.Service.Effective(userID)
	if err != nil {
		logger.Error("Failed to build effective thresholds", err)
		return tc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Thresholds retrieved",
		Data:    effective,
	})
}

// UpsertCustom creates or replaces the caller's customizable band
func (tc *Controller) UpsertCustom(c *fiber.Ctx) error {
	var req types.CustomThresholdRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	kind, err := healthModel.ParseVitalKind(req.VitalType)
	if err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	userID, err := tc.currentUser(c)
	if err != nil {
		return tc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	profile, err := tc.Service.UpsertCustom(userID, kind, req.Low, req.High)
	if err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	return tc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Custom threshold stored",
		Data:    profile,
	})
}

// DeleteCustom removes the caller's customizable band for a vital
func (tc *Controller) DeleteCustom(c *fiber.Ctx) error {
	var req types.DeleteCustomThresholdRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	kind, err := healthModel.ParseVitalKind(req.VitalType)
	if err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	userID, err := tc.currentUser(c)
	if err != nil {
		return tc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	if err := tc.Service.DeleteCustom(userID, kind); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tc.respond(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "No custom threshold for this vital",
			})
		}
		logger.Error("Failed to delete custom threshold", err)
		return tc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Custom threshold deleted",
	})
}

// Simulate dry-runs an evaluation against the caller's bands
func (tc *Controller) Simulate(c *fiber.Ctx) error {
	var req types.SimulateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	kind, err := healthModel.ParseVitalKind(req.VitalType)
	if err != nil {
		return tc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	userID, err := tc.currentUser(c)
	if err != nil {
		return tc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	result, err := tc.Service.Simulate(userID, kind, req.Value)
	if err != nil {
		logger.Error("Failed to simulate evaluation", err)
		return tc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Simulation complete",
		Data:    result,
	})
}
