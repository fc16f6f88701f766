package sos

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	alertModel "vitalwatch/models/alert"
	emergencyModel "vitalwatch/models/emergency"
	healthModel "vitalwatch/models/health"
	sosModel "vitalwatch/models/sos"
	thresholdModel "vitalwatch/models/threshold"
	emergencyService "vitalwatch/services/emergency"
	"vitalwatch/services/notification"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles explicit SOS requests. An SOS runs the same fan-out
// and escalation as a vital breach but carries no vital value.
type Controller struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	Dispatcher *notification.Dispatcher
	Escalator  *emergencyService.Escalator
}

func NewSOSController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:         db,
		Logger:     asyncLogger,
		Dispatcher: notification.NewDispatcher(db),
		Escalator:  emergencyService.NewEscalator(db),
	}
}

func (sc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	sc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

func sosMessage(displayName string, severity thresholdModel.Severity, message string, lat, lng *float64) string {
	name := displayName
	if name == "" {
		name = "Unknown User"
	}
	msg := fmt.Sprintf("%s: SOS triggered. Severity: %s", name, strings.ToUpper(severity.String()))
	if message != "" {
		msg += " " + message
	}
	if lat != nil && lng != nil && *lat != 0 && *lng != 0 {
		msg += fmt.Sprintf(" Location: https://maps.google.com/?q=%f,%f", *lat, *lng)
	}
	return msg
}

// Trigger raises an SOS: persists the request, fans out notifications and
// opens an emergency. Delivery failures never cancel the SOS.
func (sc *Controller) Trigger(c *fiber.Ctx) error {
	var req types.SOSRequestPayload
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return sc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return sc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	severity := thresholdModel.SeverityHigh
	if req.Severity != "" {
		parsed, err := thresholdModel.ParseSeverity(req.Severity)
		if err != nil {
			return sc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: err.Error(),
			})
		}
		severity = parsed
	}

	u, err := utils.GetUserByUUID(sc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return sc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	request := sosModel.SOSRequest{
		UserID:    u.ID,
		Severity:  severity,
		Status:    sosModel.StatusActive,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	// Attach the most recent reading so responders see the last known vitals.
	var latest healthModel.HealthData
	if err := sc.DB.Where("user_id = ?", u.ID).Order("timestamp DESC").First(&latest).Error; err == nil {
		if raw, marshalErr := json.Marshal(latest); marshalErr == nil {
			if encrypted, encErr := utils.EncryptSnapshot(string(raw)); encErr == nil {
				request.VitalsSnapshot = encrypted
			} else {
				logger.Error("Failed to encrypt vitals snapshot for SOS", encErr)
			}
		}
	}

	if err := sc.DB.Create(&request).Error; err != nil {
		logger.Error("Failed to create SOS request", err)
		return sc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create SOS request",
		})
	}

	ev := alertModel.AlertEvent{
		UserID:    u.ID,
		Severity:  severity,
		Message:   sosMessage(u.DisplayName(), severity, req.Message, req.Latitude, req.Longitude),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := sc.DB.Create(&ev).Error; err != nil {
		logger.Error("Failed to create SOS alert", err)
		return sc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "SOS recorded but alert could not be created",
		})
	}

	notifications := sc.Dispatcher.Dispatch(c.Context(), &ev)

	if _, err := sc.Escalator.Create(u, emergencyModel.TypeSOS, severity, ev.Message, &ev.ID, nil); err != nil {
		logger.Error("Failed to escalate SOS to emergency", err)
	}

	if err := sc.DB.Model(&request).Update("dispatched", true).Error; err != nil {
		logger.Error("Failed to mark SOS dispatched", err)
	}

	return sc.respond(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "SOS dispatched",
		Data: map[string]interface{}{
			"sos":                request,
			"notifications_sent": len(notifications),
		},
	})
}

// List returns the caller's SOS history
func (sc *Controller) List(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(sc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return sc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	var requests []sosModel.SOSRequest
	if err := sc.DB.Where("user_id = ?", u.ID).Order("created_at DESC").Find(&requests).Error; err != nil {
		logger.Error("Failed to list SOS requests", err)
		return sc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return sc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "SOS requests retrieved",
		Data:    requests,
	})
}

// Resolve closes an active SOS
func (sc *Controller) Resolve(c *fiber.Ctx) error {
	return sc.transition(c, sosModel.StatusResolved, "SOS resolved")
}

// Cancel marks an SOS as triggered in error
func (sc *Controller) Cancel(c *fiber.Ctx) error {
	return sc.transition(c, sosModel.StatusCancelled, "SOS cancelled")
}

func (sc *Controller) transition(c *fiber.Ctx, status sosModel.SOSStatus, message string) error {
	u, err := utils.GetUserByUUID(sc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return sc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return sc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid SOS id",
		})
	}

	var request sosModel.SOSRequest
	if err := sc.DB.Where("id = ? AND user_id = ?", id, u.ID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sc.respond(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "SOS request not found",
			})
		}
		logger.Error("Failed to load SOS request", err)
		return sc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	if request.Status != sosModel.StatusActive {
		return sc.respond(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "SOS request is no longer active",
		})
	}

	if err := sc.DB.Model(&request).Update("status", status).Error; err != nil {
		logger.Error("Failed to update SOS status", err)
		return sc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	request.Status = status

	return sc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    request,
	})
}
