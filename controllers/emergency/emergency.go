package emergency

import (
	"errors"
	"strconv"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	emergencyModel "vitalwatch/models/emergency"
	thresholdModel "vitalwatch/models/threshold"
	emergencyService "vitalwatch/services/emergency"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles emergency cases
type Controller struct {
	DB        *gorm.DB
	Logger    *logger.AsyncLogger
	Escalator *emergencyService.Escalator
}

func NewEmergencyController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:        db,
		Logger:    asyncLogger,
		Escalator: emergencyService.NewEscalator(db),
	}
}

func (ec *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	ec.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

func validEmergencyType(t string) bool {
	switch t {
	case emergencyModel.TypeVitalBreach, emergencyModel.TypeSOS, emergencyModel.TypeManual:
		return true
	}
	return false
}

// List returns emergencies, newest first. Admins may filter by user_id.
func (ec *Controller) List(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(ec.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return ec.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	query := ec.DB.Model(&emergencyModel.Emergency{})

	if userIDStr := c.Query("user_id"); userIDStr != "" && middleware.IsElevated(c) {
		if userID, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			query = query.Where("user_id = ?", uint(userID))
		}
	} else {
		query = query.Where("user_id = ?", u.ID)
	}

	if resolved := c.Query("resolved"); resolved != "" {
		query = query.Where("resolved = ?", resolved == "true")
	}

	var emergencies []emergencyModel.Emergency
	if err := query.Order("created_at DESC").Find(&emergencies).Error; err != nil {
		logger.Error("Failed to list emergencies", err)
		return ec.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ec.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Emergencies retrieved",
		Data:    emergencies,
	})
}

// Create records an explicitly requested emergency. Severity on this path
// is strict: garbled input is rejected, never coerced.
func (ec *Controller) Create(c *fiber.Ctx) error {
	var req types.CreateEmergencyRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return ec.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return ec.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}
	if !validEmergencyType(req.EmergencyType) {
		return ec.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid emergency type",
		})
	}

	severity, err := thresholdModel.ParseSeverity(req.Severity)
	if err != nil {
		return ec.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	u, err := utils.GetUserByUUID(ec.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return ec.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	em, err := ec.Escalator.Create(u, req.EmergencyType, severity, req.Description, req.AlertEventID, req.DeviceID)
	if err != nil {
		if errors.Is(err, emergencyService.ErrDeviceOwnership) {
			return ec.respond(c, fiber.StatusForbidden, types.ApiResponse{
				Status:  fiber.StatusForbidden,
				Message: err.Error(),
			})
		}
		logger.Error("Failed to create emergency", err)
		return ec.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	return ec.respond(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Emergency created",
		Data:    em,
	})
}

// Resolve marks an emergency as handled
func (ec *Controller) Resolve(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(ec.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return ec.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return ec.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid emergency id",
		})
	}

	var em emergencyModel.Emergency
	if err := ec.DB.First(&em, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ec.respond(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Emergency not found",
			})
		}
		logger.Error("Failed to load emergency", err)
		return ec.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	if em.UserID != u.ID && !middleware.IsElevated(c) {
		return ec.respond(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Insufficient permissions",
		})
	}

	if err := ec.DB.Model(&em).Update("resolved", true).Error; err != nil {
		logger.Error("Failed to resolve emergency", err)
		return ec.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ec.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Emergency resolved",
		Data:    em,
	})
}
