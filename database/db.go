package database

import (
	"fmt"
	"os"

	"vitalwatch/logger"
	"vitalwatch/models/alert"
	"vitalwatch/models/contact"
	"vitalwatch/models/device"
	"vitalwatch/models/emergency"
	"vitalwatch/models/health"
	"vitalwatch/models/log"
	"vitalwatch/models/otp"
	"vitalwatch/models/sos"
	"vitalwatch/models/threshold"
	"vitalwatch/models/token"
	"vitalwatch/models/user"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, username, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models in dependency stages
func autoMigrate() error {
	// Stage 1: Core foundation models
	stage1Models := []interface{}{
		&user.User{},
		&user.UserProfile{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Models owned directly by a user
	stage2Models := []interface{}{
		&device.Device{},
		&contact.EmergencyContact{},
		&health.HealthData{},
		&threshold.ThresholdDefault{},
		&threshold.ThresholdProfile{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: Models derived from readings
	stage3Models := []interface{}{
		&alert.AlertEvent{},
		&alert.AlertNotification{},
		&emergency.Emergency{},
		&sos.SOSRequest{},
	}

	for _, model := range stage3Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 4: Auth and logging
	remainingModels := []interface{}{
		&otp.EmailOTP{},
		&otp.OTPEvent{},
		&token.RefreshToken{},
		&log.Log{},
	}

	for _, model := range remainingModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	indexes := []struct {
		name string
		sql  string
	}{
		{"idx_users_uuid", "CREATE INDEX IF NOT EXISTS idx_users_uuid ON users(uuid)"},
		{"idx_users_email", "CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)"},
		{"idx_health_data_user_ts", "CREATE INDEX IF NOT EXISTS idx_health_data_user_ts ON health_data(user_id, timestamp)"},
		{"idx_alert_events_user_created", "CREATE INDEX IF NOT EXISTS idx_alert_events_user_created ON alert_events(user_id, created_at)"},
		{"idx_alert_events_resolved", "CREATE INDEX IF NOT EXISTS idx_alert_events_resolved ON alert_events(resolved)"},
		{"idx_alert_notifications_status", "CREATE INDEX IF NOT EXISTS idx_alert_notifications_status ON alert_notifications(status)"},
		{"idx_emergencies_resolved", "CREATE INDEX IF NOT EXISTS idx_emergencies_resolved ON emergencies(resolved)"},
		{"idx_email_otps_user_purpose", "CREATE INDEX IF NOT EXISTS idx_email_otps_user_purpose ON email_otps(user_id, purpose, is_used)"},
		{"idx_refresh_tokens_jti", "CREATE INDEX IF NOT EXISTS idx_refresh_tokens_jti ON refresh_tokens(jti)"},
		{"idx_logs_status_code", "CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)"},
		{"idx_logs_created_at", "CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)"},
	}

	for _, index := range indexes {
		if err := DB.Exec(index.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", index.name, err)
		}
	}

	return nil
}

// createForeignKeyConstraints creates cascade foreign key constraints after
// auto migration. Deleting a user removes everything it owns; deleting a
// reading removes its alert and that alert's notifications.
func createForeignKeyConstraints() error {
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_user_profiles_user",
			sql: `ALTER TABLE user_profiles ADD CONSTRAINT fk_user_profiles_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_devices_user",
			sql: `ALTER TABLE devices ADD CONSTRAINT fk_devices_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_emergency_contacts_user",
			sql: `ALTER TABLE emergency_contacts ADD CONSTRAINT fk_emergency_contacts_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_health_data_user",
			sql: `ALTER TABLE health_data ADD CONSTRAINT fk_health_data_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_threshold_profiles_user",
			sql: `ALTER TABLE threshold_profiles ADD CONSTRAINT fk_threshold_profiles_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_alert_events_user",
			sql: `ALTER TABLE alert_events ADD CONSTRAINT fk_alert_events_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_alert_events_health_data",
			sql: `ALTER TABLE alert_events ADD CONSTRAINT fk_alert_events_health_data
				  FOREIGN KEY (health_data_id) REFERENCES health_data(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_alert_notifications_alert",
			sql: `ALTER TABLE alert_notifications ADD CONSTRAINT fk_alert_notifications_alert
				  FOREIGN KEY (alert_event_id) REFERENCES alert_events(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_emergencies_user",
			sql: `ALTER TABLE emergencies ADD CONSTRAINT fk_emergencies_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_sos_requests_user",
			sql: `ALTER TABLE sos_requests ADD CONSTRAINT fk_sos_requests_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_email_otps_user",
			sql: `ALTER TABLE email_otps ADD CONSTRAINT fk_email_otps_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_refresh_tokens_user",
			sql: `ALTER TABLE refresh_tokens ADD CONSTRAINT fk_refresh_tokens_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
	}

	for _, constraint := range constraints {
		// Check if constraint already exists
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := DB.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := DB.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		} else {
			logger.Debug(fmt.Sprintf("Constraint already exists: %s", constraint.name))
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
