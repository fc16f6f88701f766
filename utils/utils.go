package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"vitalwatch/models/user"
	"vitalwatch/types"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// CalculateAge returns the age in years, months and days
func CalculateAge(dob time.Time) (int, int, int) {
	currentTime := time.Now()

	years := currentTime.Year() - dob.Year()
	months := int(currentTime.Month()) - int(dob.Month())
	days := currentTime.Day() - dob.Day()

	// Adjust for negative months (if birthday hasn't occurred this year)
	if months < 0 {
		years--
		months += 12
	}

	// Adjust for negative days (if birthday day hasn't occurred this month)
	if days < 0 {
		previousMonth := now.With(currentTime).BeginningOfMonth().AddDate(0, 0, -1) // Get last day of the previous month
		days += previousMonth.Day()
		months--
	}

	return years, months, days
}

// AgeYears returns the full years elapsed since the date of birth
func AgeYears(dob time.Time) int {
	years, _, _ := CalculateAge(dob)
	return years
}

// GetUserByUUID retrieves a user by their UUID
func GetUserByUUID(db *gorm.DB, uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := db.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// ValidatePhoneNumber validates a South African mobile number.
// Allows: 0xxxxxxxxx or +27xxxxxxxxx
func ValidatePhoneNumber(phone string) bool {
	phone = strings.TrimSpace(phone)
	pattern := `^(?:\+27|0)[1-9][0-9]{8}$`
	re := regexp.MustCompile(pattern)
	return re.MatchString(phone)
}

// sanitizeRequestBody redacts large or base64-looking request bodies
func sanitizeRequestBody(c *fiber.Ctx) string {
	contentType := c.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		formData := make(map[string]interface{})
		if form, err := c.MultipartForm(); err == nil {
			for key, values := range form.Value {
				if len(values) > 0 {
					formData[key] = values[0]
				}
			}
			for key, files := range form.File {
				fileInfo := make([]map[string]interface{}, len(files))
				for i, file := range files {
					fileInfo[i] = map[string]interface{}{
						"filename": file.Filename,
						"size":     file.Size,
						"content":  "[FILE_CONTENT_REMOVED]",
					}
				}
				formData[key] = fileInfo
			}
		}
		if jsonBytes, err := json.Marshal(formData); err == nil {
			return string(jsonBytes)
		}
		return "[MULTIPART_FORM_DATA]"
	}

	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}

	return body
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}

	return float64(base64Chars)/float64(len(content)) > 0.8
}

// CreateSanitizedLogEntry creates a deep copied and sanitized log entry for
// the async request logger.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := sanitizeRequestBody(c)
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
