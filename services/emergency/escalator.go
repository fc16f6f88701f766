package emergency

import (
	"errors"
	"fmt"

	"vitalwatch/models/alert"
	"vitalwatch/models/device"
	"vitalwatch/models/emergency"
	"vitalwatch/models/threshold"
	"vitalwatch/models/user"

	"gorm.io/gorm"
)

// ErrDeviceOwnership is returned when the supplied device does not belong
// to the alert's user. Hard validation error, never silently corrected.
var ErrDeviceOwnership = errors.New("device does not belong to this user")

// Escalator creates the emergency case derived from a breach. One
// emergency per breach; the orchestrator calls it exactly once per alert.
type Escalator struct {
	DB         *gorm.DB
	Summariser *Summariser
}

func NewEscalator(db *gorm.DB) *Escalator {
	return &Escalator{
		DB:         db,
		Summariser: NewSummariser(db),
	}
}

func (e *Escalator) validateDevice(userID uint, deviceID *uint) error {
	if deviceID == nil {
		return nil
	}
	var dev device.Device
	if err := e.DB.First(&dev, *deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("device %d not found", *deviceID)
		}
		return fmt.Errorf("failed to load device: %w", err)
	}
	if dev.UserID != userID {
		return ErrDeviceOwnership
	}
	return nil
}

// Escalate creates the emergency for a breach alert. Severity mirrors the
// alert's. The description is enriched asynchronously, best-effort.
func (e *Escalator) Escalate(u *user.User, ev *alert.AlertEvent, deviceID *uint) (*emergency.Emergency, error) {
	if err := e.validateDevice(u.ID, deviceID); err != nil {
		return nil, err
	}

	em := &emergency.Emergency{
		UserID:        u.ID,
		EmergencyType: emergency.TypeVitalBreach,
		Severity:      ev.Severity,
		Description:   ev.Message,
		AlertEventID:  &ev.ID,
		DeviceID:      deviceID,
	}
	if err := e.DB.Create(em).Error; err != nil {
		return nil, fmt.Errorf("failed to create emergency: %w", err)
	}

	if e.Summariser != nil {
		e.Summariser.EnrichAsync(em.ID, u.DisplayName(), ev)
	}

	return em, nil
}

// Create records an explicitly requested emergency. Severity on this path
// is strict: it arrives pre-parsed, the controller rejects garbled input.
func (e *Escalator) Create(u *user.User, emergencyType string, severity threshold.Severity, description string, alertEventID, deviceID *uint) (*emergency.Emergency, error) {
	if err := e.validateDevice(u.ID, deviceID); err != nil {
		return nil, err
	}

	em := &emergency.Emergency{
		UserID:        u.ID,
		EmergencyType: emergencyType,
		Severity:      severity,
		Description:   description,
		AlertEventID:  alertEventID,
		DeviceID:      deviceID,
	}
	if err := e.DB.Create(em).Error; err != nil {
		return nil, fmt.Errorf("failed to create emergency: %w", err)
	}
	return em, nil
}
