package health

import (
	"errors"
	"strconv"
	"time"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	alertModel "vitalwatch/models/alert"
	healthModel "vitalwatch/models/health"
	"vitalwatch/services/ingestion"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles reading submission and queries
type Controller struct {
	DB       *gorm.DB
	Logger   *logger.AsyncLogger
	Pipeline *ingestion.Pipeline
}

func NewHealthController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:       db,
		Logger:   asyncLogger,
		Pipeline: ingestion.NewPipeline(db),
	}
}

func (hc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	hc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// Submit ingests one reading through the evaluation pipeline
func (hc *Controller) Submit(c *fiber.Ctx) error {
	var req types.SubmitHealthDataRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return hc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return hc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	u, err := utils.GetUserByUUID(hc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return hc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	reading := healthModel.HealthData{
		UserID:                 u.ID,
		DeviceID:               req.DeviceID,
		HeartRate:              req.HeartRate,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		Temperature:            req.Temperature,
		OxygenSaturation:       req.OxygenSaturation,
		RespiratoryRate:        req.RespiratoryRate,
		Latitude:               req.Latitude,
		Longitude:              req.Longitude,
	}
	if req.Timestamp != nil {
		reading.Timestamp = *req.Timestamp
	}

	persisted, raised, err := hc.Pipeline.Ingest(c.Context(), u, &reading)
	if err != nil {
		logger.Error("Failed to ingest reading", err)
		return hc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store reading",
		})
	}

	return hc.respond(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Reading stored",
		Data: types.SubmitHealthDataResponse{
			HealthDataID: persisted.ID,
			AlertsRaised: len(raised),
		},
	})
}

// List returns readings with optional filters. Non-admin callers only see
// their own data.
func (hc *Controller) List(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(hc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return hc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	query := hc.DB.Model(&healthModel.HealthData{})

	if userIDStr := c.Query("user_id"); userIDStr != "" && middleware.IsElevated(c) {
		if userID, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			query = query.Where("user_id = ?", uint(userID))
		}
	} else {
		query = query.Where("user_id = ?", u.ID)
	}

	if deviceIDStr := c.Query("device_id"); deviceIDStr != "" {
		if deviceID, err := strconv.ParseUint(deviceIDStr, 10, 64); err == nil {
			query = query.Where("device_id = ?", uint(deviceID))
		}
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if from, err := time.Parse(time.RFC3339, fromStr); err == nil {
			query = query.Where("timestamp >= ?", from)
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if to, err := time.Parse(time.RFC3339, toStr); err == nil {
			query = query.Where("timestamp <= ?", to)
		}
	}

	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var readings []healthModel.HealthData
	if err := query.Order("timestamp DESC").Limit(limit).Find(&readings).Error; err != nil {
		logger.Error("Failed to list readings", err)
		return hc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return hc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Readings retrieved",
		Data:    readings,
	})
}

// Get returns one reading
func (hc *Controller) Get(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(hc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return hc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return hc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid reading id",
		})
	}

	var reading healthModel.HealthData
	if err := hc.DB.First(&reading, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return hc.respond(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Reading not found",
			})
		}
		logger.Error("Failed to load reading", err)
		return hc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	if reading.UserID != u.ID && !middleware.IsElevated(c) {
		return hc.respond(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Insufficient permissions",
		})
	}

	return hc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Reading retrieved",
		Data:    reading,
	})
}

// Delete removes a reading together with its alert and that alert's
// notifications.
func (hc *Controller) Delete(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(hc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return hc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return hc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid reading id",
		})
	}

	var reading healthModel.HealthData
	if err := hc.DB.First(&reading, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return hc.respond(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Reading not found",
			})
		}
		logger.Error("Failed to load reading", err)
		return hc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	if reading.UserID != u.ID && !middleware.IsElevated(c) {
		return hc.respond(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Insufficient permissions",
		})
	}

	err = hc.DB.Transaction(func(tx *gorm.DB) error {
		var alertIDs []uint
		if err := tx.Model(&alertModel.AlertEvent{}).
			Where("health_data_id = ?", reading.ID).
			Pluck("id", &alertIDs).Error; err != nil {
			return err
		}
		if len(alertIDs) > 0 {
			if err := tx.Where("alert_event_id IN ?", alertIDs).
				Delete(&alertModel.AlertNotification{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", alertIDs).
				Delete(&alertModel.AlertEvent{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&reading).Error
	})
	if err != nil {
		logger.Error("Failed to delete reading", err)
		return hc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete reading",
		})
	}

	return hc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Reading deleted",
	})
}
