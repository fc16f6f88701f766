package contact

import (
	"errors"

	"vitalwatch/logger"
	"vitalwatch/middleware"
	contactModel "vitalwatch/models/contact"
	"vitalwatch/types"
	"vitalwatch/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles the caller's emergency contact list
type Controller struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewContactController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{DB: db, Logger: asyncLogger}
}

func (cc *Controller) respond(c *fiber.Ctx, status int, resp types.ApiResponse) error {
	err := c.Status(status).JSON(resp)
	cc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// List returns the caller's contacts
func (cc *Controller) List(c *fiber.Ctx) error {
	u, err := utils.GetUserByUUID(cc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return cc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	var contacts []contactModel.EmergencyContact
	if err := cc.DB.Where("user_id = ?", u.ID).Order("created_at").Find(&contacts).Error; err != nil {
		logger.Error("Failed to list contacts", err)
		return cc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return cc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Contacts retrieved",
		Data:    contacts,
	})
}

// Create adds a contact. Phone numbers are validated in local or
// international form before storage.
func (cc *Controller) Create(c *fiber.Ctx) error {
	var req types.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}
	if !utils.ValidatePhoneNumber(req.PhoneNumber) {
		return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid phone number format",
		})
	}

	u, err := utils.GetUserByUUID(cc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return cc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
		})
	}

	contact := contactModel.EmergencyContact{
		UserID:       u.ID,
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		RelationType: req.RelationType,
	}
	if err := cc.DB.Create(&contact).Error; err != nil {
		logger.Error("Failed to create contact", err)
		return cc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create contact",
		})
	}

	return cc.respond(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Contact created",
		Data:    contact,
	})
}

// Update edits an existing contact
func (cc *Controller) Update(c *fiber.Ctx) error {
	var req types.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}
	if !utils.ValidatePhoneNumber(req.PhoneNumber) {
		return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid phone number format",
		})
	}

	contact, errResp := cc.loadOwnedContact(c)
	if errResp != nil {
		return errResp(c)
	}

	contact.Name = req.Name
	contact.PhoneNumber = req.PhoneNumber
	contact.RelationType = req.RelationType
	if err := cc.DB.Save(contact).Error; err != nil {
		logger.Error("Failed to update contact", err)
		return cc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update contact",
		})
	}

	return cc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Contact updated",
		Data:    contact,
	})
}

// Delete removes a contact
func (cc *Controller) Delete(c *fiber.Ctx) error {
	contact, errResp := cc.loadOwnedContact(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := cc.DB.Delete(contact).Error; err != nil {
		logger.Error("Failed to delete contact", err)
		return cc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete contact",
		})
	}

	return cc.respond(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Contact deleted",
	})
}

func (cc *Controller) loadOwnedContact(c *fiber.Ctx) (*contactModel.EmergencyContact, func(*fiber.Ctx) error) {
	u, err := utils.GetUserByUUID(cc.DB, middleware.CurrentUserUUID(c))
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return cc.respond(c, fiber.StatusUnauthorized, types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "User not found",
			})
		}
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return cc.respond(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid contact id",
			})
		}
	}

	var contact contactModel.EmergencyContact
	if err := cc.DB.Where("id = ? AND user_id = ?", id, u.ID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, func(c *fiber.Ctx) error {
				return cc.respond(c, fiber.StatusNotFound, types.ApiResponse{
					Status:  fiber.StatusNotFound,
					Message: "Contact not found",
				})
			}
		}
		logger.Error("Failed to load contact", err)
		return nil, func(c *fiber.Ctx) error {
			return cc.respond(c, fiber.StatusInternalServerError, types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
			})
		}
	}

	return &contact, nil
}
