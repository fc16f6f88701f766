package alert

import (
	"encoding/json"
	"fmt"
	"strings"

	"vitalwatch/logger"
	"vitalwatch/models/alert"
	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
	"vitalwatch/models/user"
	"vitalwatch/utils"

	"gorm.io/gorm"
)

// Factory builds immutable alert events with their rendered message.
type Factory struct {
	DB *gorm.DB
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{DB: db}
}

// FormatMessage renders the deterministic alert template. It is shared by
// alert creation and ad-hoc notification messages. A missing display name
// falls back to a placeholder and a garbled severity renders as LOW. The
// map link is appended only when both coordinates are present and non-zero.
func FormatMessage(displayName string, kind health.VitalKind, severity string, value float64, lat, lng *float64) string {
	name := displayName
	if name == "" {
		name = "Unknown User"
	}
	sev := threshold.NormalizeSeverity(severity)

	msg := fmt.Sprintf("%s: %s breached %s threshold. Value: %.1f",
		name, kind.DisplayName(), strings.ToUpper(sev.String()), value)

	if lat != nil && lng != nil && *lat != 0 && *lng != 0 {
		msg += fmt.Sprintf(" Location: https://maps.google.com/?q=%f,%f", *lat, *lng)
	}

	return msg
}

// Build assembles and persists the alert event for a breach. The vitals
// snapshot is encrypted at rest; a snapshot failure is logged, never fatal.
func (f *Factory) Build(u *user.User, reading *health.HealthData, kind health.VitalKind, value float64, severity threshold.Severity) (*alert.AlertEvent, error) {
	var lat, lng *float64
	var readingID *uint
	if reading != nil {
		lat = reading.Latitude
		lng = reading.Longitude
		readingID = &reading.ID
	}

	ev := &alert.AlertEvent{
		UserID:       u.ID,
		HealthDataID: readingID,
		VitalType:    kind,
		Value:        value,
		Severity:     severity,
		Message:      FormatMessage(u.DisplayName(), kind, severity.String(), value, lat, lng),
		Latitude:     lat,
		Longitude:    lng,
	}

	if reading != nil {
		if raw, err := json.Marshal(reading); err == nil {
			encrypted, encErr := utils.EncryptSnapshot(string(raw))
			if encErr != nil {
				logger.Error("Failed to encrypt vitals snapshot", encErr)
			} else {
				ev.VitalsSnapshot = encrypted
			}
		}
	}

	if err := f.DB.Create(ev).Error; err != nil {
		return nil, fmt.Errorf("failed to create alert event: %w", err)
	}

	return ev, nil
}
