package device

import (
	"errors"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	deviceModel "vitalwatch/models/device"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles wearable device registration
type Controller struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewDeviceController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{DB: db, Logger: asyncLogger}
}

func (dc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	dc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// List returns the caller's devices
func (dc *Controller) List(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(dc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return dc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	var devices []deviceModel.Device
	if err := dc.DB.Where("user_id = ?", u.ID).Order("created_at").Find(&devices).Error; err != nil {
		logger.Error("Failed to list devices", err)
		return dc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return dc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Devices retrieved",
		Data:    devices,
	})
}

// Register adds a device
func (dc *Controller) Register(c *fiber.Ctx) error {
	var req types.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return dc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	u, err := utils.GetUserByUUID(dc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return dc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	dev := deviceModel.Device{
		UserID:     u.ID,
		DeviceName: req.DeviceName,
		FCMToken:   req.FCMToken,
	}
	if err := dc.DB.Create(&dev).Error; err != nil {
		logger.Error("Failed to register device", err)
		return dc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to register device",
		})
	}

	return dc.respond(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Device registered",
		Data:    dev,
	})
}

// Update edits a device's name or push token
func (dc *Controller) Update(c *fiber.Ctx) error {
	var req types.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return dc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	dev, errResp := dc.loadOwnedDevice(c)
	if errResp != nil {
		return errResp(c)
	}

	dev.DeviceName = req.DeviceName
	dev.FCMToken = req.FCMToken
	if err := dc.DB.Save(dev).Error; err != nil {
		logger.Error("Failed to update device", err)
		return dc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update device",
		})
	}

	return dc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Device updated",
		Data:    dev,
	})
}

// Delete removes a device
func (dc *Controller) Delete(c *fiber.Ctx) error {
	dev, errResp := dc.loadOwnedDevice(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := dc.DB.Delete(dev).Error; err != nil {
		logger.Error("Failed to delete device", err)
		return dc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete device",
		})
	}

	return dc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Device deleted",
	})
}

func (dc *Controller) loadOwnedDevice(c *fiber.Ctx) (*deviceModel.Device, func(*fiber.Ctx) error) {
	u, err := utils.GetUserByUUID(dc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return dc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "User not found",
			})
		}
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return dc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid device id",
			})
		}
	}

	var dev deviceModel.Device
	if err := dc.DB.Where("id = ? AND user_id = ?", id, u.ID).First(&dev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, func(c *fiber.Ctx) error {
				return dc.respond(c, fiber.StatusNotFound, types.ApiResponse{
					Status:  fiber.StatusNotFound,
					Message: "Device not found",
				})
			}
		}
		logger.Error("Failed to load device", err)
		return nil, func(c *fiber.Ctx) error {
			return dc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
			})
		}
	}

	return &dev, nil
}
