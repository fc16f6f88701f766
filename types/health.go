package types

import "time"

// SubmitHealthDataRequest carries one reading with any subset of vitals.
type SubmitHealthDataRequest struct {
	DeviceID               *uint      `json:"device_id,omitempty"`
	HeartRate              *float64   `json:"heart_rate,omitempty" validate:"omitempty,gte=0,lte=400"`
	BloodPressureSystolic  *float64   `json:"blood_pressure_systolic,omitempty" validate:"omitempty,gte=0,lte=400"`
	BloodPressureDiastolic *float64   `json:"blood_pressure_diastolic,omitempty" validate:"omitempty,gte=0,lte=400"`
	Temperature            *float64   `json:"temperature,omitempty" validate:"omitempty,gte=20,lte=45"`
	OxygenSaturation       *float64   `json:"oxygen_saturation,omitempty" validate:"omitempty,gte=0,lte=100"`
	RespiratoryRate        *float64   `json:"respiratory_rate,omitempty" validate:"omitempty,gte=0,lte=120"`
	Latitude               *float64   `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude              *float64   `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Timestamp              *time.Time `json:"timestamp,omitempty"`
}

// SubmitHealthDataResponse reports the persisted reading and any alerts
// raised while evaluating it.
type SubmitHealthDataResponse struct {
	HealthDataID uint `json:"health_data_id"`
	AlertsRaised int  `json:"alerts_raised"`
}
