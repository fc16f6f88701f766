package alert

import (
	"errors"
	"strconv"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	alertModel "vitalwatch/models/alert"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles alert event and notification queries
type Controller struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewAlertController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{DB: db, Logger: asyncLogger}
}

func (ac *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// List returns alerts, newest first. Admins may filter by user_id;
// everyone else sees only their own.
func (ac *Controller) List(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(ac.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return ac.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	query := ac.DB.Model(&alertModel.AlertEvent{})

	if userIDStr := c.Query("user_id"); userIDStr != "" && middleware.IsElevated(c) {
		if userID, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			query = query.Where("user_id = ?", uint(userID))
		}
	} else {
		query = query.Where("user_id = ?", u.ID)
	}

	if severity := c.Query("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if resolved := c.Query("resolved"); resolved != "" {
		query = query.Where("resolved = ?", resolved == "true")
	}

	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var alerts []alertModel.AlertEvent
	if err := query.Order("created_at DESC").Limit(limit).Find(&alerts).Error; err != nil {
		logger.Error("Failed to list alerts", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alerts retrieved",
		Data:    alerts,
	})
}

// Get returns one alert
func (ac *Controller) Get(c *fiber.Ctx) error {
	ev, errResp := ac.loadOwnedAlert(c)
	if errResp != nil {
		return errResp(c)
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alert retrieved",
		Data:    ev,
	})
}

// Notifications returns the delivery attempts recorded for an alert
func (ac *Controller) Notifications(c *fiber.Ctx) error {
	ev, errResp := ac.loadOwnedAlert(c)
	if errResp != nil {
		return errResp(c)
	}

	var notifications []alertModel.AlertNotification
	if err := ac.DB.Where("alert_event_id = ?", ev.ID).
		Order("created_at").Find(&notifications).Error; err != nil {
		logger.Error("Failed to list notifications", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Notifications retrieved",
		Data:    notifications,
	})
}

// Resolve marks an alert as handled
func (ac *Controller) Resolve(c *fiber.Ctx) error {
	ev, errResp := ac.loadOwnedAlert(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := ac.DB.Model(ev).Update("resolved", true).Error; err != nil {
		logger.Error("Failed to resolve alert", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alert resolved",
		Data:    ev,
	})
}

// Delete removes an alert and its notifications
func (ac *Controller) Delete(c *fiber.Ctx) error {
	ev, errResp := ac.loadOwnedAlert(c)
	if errResp != nil {
		return errResp(c)
	}

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("alert_event_id = ?", ev.ID).
			Delete(&alertModel.AlertNotification{}).Error; err != nil {
			return err
		}
		return tx.Delete(ev).Error
	})
	if err != nil {
		logger.Error("Failed to delete alert", err)
		return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete alert",
		})
	}

	return ac.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Alert deleted",
	})
}

// loadOwnedAlert fetches the :id alert and enforces ownership. On failure
// it returns a deferred error responder so callers stay one-liners.
func (ac *Controller) loadOwnedAlert(c *fiber.Ctx) (*alertModel.AlertEvent, func(*fiber.Ctx) error) {
	u, err := utils.GetUserByUUID(ac.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return ac.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "User not found",
			})
		}
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return ac.respond(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid alert id",
			})
		}
	}

	var ev alertModel.AlertEvent
	if err := ac.DB.First(&ev, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, func(c *fiber.Ctx) error {
				return ac.respond(c, fiber.StatusNotFound, types.ApiResponse{
					Status:  fiber.StatusNotFound,
					Message: "Alert not found",
				})
			}
		}
		logger.Error("Failed to load alert", err)
		return nil, func(c *fiber.Ctx) error {
			return ac.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
			})
		}
	}

	if ev.UserID != u.ID && !middleware.IsElevated(c) {
		return nil, func(c *fiber.Ctx) error {
			return ac.respond(c, fiber.StatusForbidden, types.ApiResponse{
				Status:  fiber.StatusForbidden,
				Message: "Insufficient permissions",
			})
		}
	}

	return &ev, nil
}
