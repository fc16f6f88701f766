package health

import (
	"fmt"
	"time"
)

// VitalKind is a named physiological measurement channel.
type VitalKind string

const (
	VitalHeartRate        VitalKind = "heart_rate"
	VitalBPSystolic       VitalKind = "blood_pressure_systolic"
	VitalBPDiastolic      VitalKind = "blood_pressure_diastolic"
	VitalTemperature      VitalKind = "temperature"
	VitalOxygenSaturation VitalKind = "oxygen_saturation"
	VitalRespiratoryRate  VitalKind = "respiratory_rate"
)

func (v VitalKind) String() string { return string(v) }

// DisplayName returns the human readable name used in alert messages.
func (v VitalKind) DisplayName() string {
	switch v {
	case VitalHeartRate:
		return "Heart Rate"
	case VitalBPSystolic:
		return "Blood Pressure Systolic"
	case VitalBPDiastolic:
		return "Blood Pressure Diastolic"
	case VitalTemperature:
		return "Temperature"
	case VitalOxygenSaturation:
		return "Oxygen Saturation"
	case VitalRespiratoryRate:
		return "Respiratory Rate"
	default:
		return string(v)
	}
}

// AllVitalKinds lists every vital channel in evaluation order.
func AllVitalKinds() []VitalKind {
	return []VitalKind{
		VitalHeartRate,
		VitalBPSystolic,
		VitalBPDiastolic,
		VitalTemperature,
		VitalOxygenSaturation,
		VitalRespiratoryRate,
	}
}

// ParseVitalKind converts an external string into a VitalKind.
// Unknown values are rejected at the boundary, internal code never
// operates on raw strings.
func ParseVitalKind(s string) (VitalKind, error) {
	switch VitalKind(s) {
	case VitalHeartRate, VitalBPSystolic, VitalBPDiastolic,
		VitalTemperature, VitalOxygenSaturation, VitalRespiratoryRate:
		return VitalKind(s), nil
	default:
		return "", fmt.Errorf("unknown vital kind: %q", s)
	}
}

// HealthData is an immutable reading produced by a device. A reading is
// never mutated after creation and may be referenced by alerts.
type HealthData struct {
	ID                     uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                 uint       `gorm:"not null;index" json:"user_id"`
	DeviceID               *uint      `gorm:"index" json:"device_id,omitempty"`
	HeartRate              *float64   `json:"heart_rate,omitempty"`
	BloodPressureSystolic  *float64   `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *float64   `json:"blood_pressure_diastolic,omitempty"`
	Temperature            *float64   `json:"temperature,omitempty"`
	OxygenSaturation       *float64   `json:"oxygen_saturation,omitempty"`
	RespiratoryRate        *float64   `json:"respiratory_rate,omitempty"`
	Latitude               *float64   `json:"latitude,omitempty"`
	Longitude              *float64   `json:"longitude,omitempty"`
	Timestamp              time.Time  `gorm:"not null;index" json:"timestamp"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Value returns the observed value for the given vital kind, nil when the
// reading does not carry that vital.
func (h *HealthData) Value(kind VitalKind) *float64 {
	switch kind {
	case VitalHeartRate:
		return h.HeartRate
	case VitalBPSystolic:
		return h.BloodPressureSystolic
	case VitalBPDiastolic:
		return h.BloodPressureDiastolic
	case VitalTemperature:
		return h.Temperature
	case VitalOxygenSaturation:
		return h.OxygenSaturation
	case VitalRespiratoryRate:
		return h.RespiratoryRate
	default:
		return nil
	}
}
