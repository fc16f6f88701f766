package routes

import (
	"time"

	"vitalwatch/controllers/alert"
	"vitalwatch/controllers/auth"
	"vitalwatch/controllers/contact"
	"vitalwatch/controllers/device"
	"vitalwatch/controllers/emergency"
	"vitalwatch/controllers/health"
	"vitalwatch/controllers/otp"
	"vitalwatch/controllers/sos"
	"vitalwatch/controllers/threshold"
	"vitalwatch/controllers/user"
	"vitalwatch/logger"
	"vitalwatch/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)
	authController := auth.NewAuthController(db, asyncLogger)
	otpController := otp.NewOTPController(db, asyncLogger)
	userController := user.NewUserController(db, asyncLogger)
	healthController := health.NewHealthController(db, asyncLogger)
	thresholdController := threshold.NewThresholdController(db, asyncLogger)
	alertController := alert.NewAlertController(db, asyncLogger)
	contactController := contact.NewContactController(db, asyncLogger)
	deviceController := device.NewDeviceController(db, asyncLogger)
	emergencyController := emergency.NewEmergencyController(db, asyncLogger)
	sosController := sos.NewSOSController(db, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// OTP endpoints are throttled per client IP
	otpLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)
	api.Post("/auth/refresh", authController.Refresh)
	api.Post("/auth/verify-email", otpLimiter, otpController.VerifyEmail)
	api.Post("/auth/resend-email-otp", otpLimiter, otpController.ResendEmailOTP)

	/*=============================================================================
	| Account Routes
	===============================================================================*/
	authGroup := api.Group("/auth").Use(middleware.RequireAuthentication())
	authGroup.Post("/logout", authController.LogOut)
	authGroup.Get("/me", userController.Me)
	authGroup.Post("/onboarding", userController.Onboard)
	authGroup.Delete("/account", userController.DeleteAccount)

	/*=============================================================================
	| Health Data Routes
	===============================================================================*/
	healthGroup := api.Group("/health").Use(middleware.RequireAuthentication())
	healthGroup.Post("/readings", healthController.Submit)
	healthGroup.Get("/readings", healthController.List)
	healthGroup.Get("/readings/:id", healthController.Get)
	healthGroup.Delete("/readings/:id", healthController.Delete)

	/*=============================================================================
	| Threshold Routes
	===============================================================================*/
	thresholdGroup := api.Group("/thresholds").Use(middleware.RequireAuthentication())
	thresholdGroup.Get("/", thresholdController.ListProfiles)
	thresholdGroup.Post("/custom", thresholdController.UpsertCustom)
	thresholdGroup.Delete("/custom", thresholdController.DeleteCustom)
	thresholdGroup.Post("/simulate", thresholdController.Simulate)

	adminThresholds := api.Group("/admin/thresholds").Use(middleware.RequireAdmin())
	adminThresholds.Get("/defaults", thresholdController.ListDefaults)
	adminThresholds.Post("/defaults", thresholdController.UpsertDefault)

	/*=============================================================================
	| Alert Routes
	===============================================================================*/
	alertGroup := api.Group("/alerts").Use(middleware.RequireAuthentication())
	alertGroup.Get("/", alertController.List)
	alertGroup.Get("/:id", alertController.Get)
	alertGroup.Get("/:id/notifications", alertController.Notifications)
	alertGroup.Patch("/:id/resolve", alertController.Resolve)
	alertGroup.Delete("/:id", alertController.Delete)

	/*=============================================================================
	| Contact & Device Routes
	===============================================================================*/
	contactGroup := api.Group("/contacts").Use(middleware.RequireAuthentication())
	contactGroup.Get("/", contactController.List)
	contactGroup.Post("/", contactController.Create)
	contactGroup.Put("/:id", contactController.Update)
	contactGroup.Delete("/:id", contactController.Delete)

	deviceGroup := api.Group("/devices").Use(middleware.RequireAuthentication())
	deviceGroup.Get("/", deviceController.List)
	deviceGroup.Post("/", deviceController.Register)
	deviceGroup.Put("/:id", deviceController.Update)
	deviceGroup.Delete("/:id", deviceController.Delete)

	/*=============================================================================
	| Emergency & SOS Routes
	===============================================================================*/
	emergencyGroup := api.Group("/emergencies").Use(middleware.RequireAuthentication())
	emergencyGroup.Get("/", emergencyController.List)
	emergencyGroup.Post("/", emergencyController.Create)
	emergencyGroup.Patch("/:id/resolve", emergencyController.Resolve)

	sosGroup := api.Group("/sos").Use(middleware.RequireAuthentication())
	sosGroup.Post("/", sosController.Trigger)
	sosGroup.Get("/", sosController.List)
	sosGroup.Patch("/:id/resolve", sosController.Resolve)
	sosGroup.Patch("/:id/cancel", sosController.Cancel)
}
