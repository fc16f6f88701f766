package main

import (
	"fmt"
	"os"
	"time"

	"vitalwatch/database"
	"vitalwatch/database/seeders"
	"vitalwatch/logger"
	"vitalwatch/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768,
		WriteBufferSize: 32768,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       10 * 1024 * 1024,
	})
	env := godotenv.Load()
	if env != nil {
		logger.Error("Error loading .env file", env)
		fmt.Println("Error loading .env file", env)
	}
	logger.Success("Server is running on ip: " + os.Getenv("APP_HOST") + " port: " + os.Getenv("APP_PORT") +
		"\n\t\t\t\t\t\t******************************************************************************************\n")

	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return
	}

	seeders.SeedThresholdDefaults(db)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("FRONTEND_URL"),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, db)

	app_host := os.Getenv("APP_HOST")
	app_port := os.Getenv("APP_PORT")
	app.Listen(app_host + ":" + app_port)
}
