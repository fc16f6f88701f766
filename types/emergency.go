package types

// CreateEmergencyRequest creates an emergency explicitly. Severity is
// required and strictly validated on this path.
type CreateEmergencyRequest struct {
	EmergencyType string `json:"emergency_type" validate:"required"`
	Severity      string `json:"severity" validate:"required"`
	Description   string `json:"description"`
	AlertEventID  *uint  `json:"alert_event_id,omitempty"`
	DeviceID      *uint  `json:"device_id,omitempty"`
}

// ContactRequest creates or updates an emergency contact
type ContactRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	RelationType string `json:"relation_type"`
}

// DeviceRequest registers or updates a device
type DeviceRequest struct {
	DeviceName string `json:"device_name" validate:"required,min=2,max=255"`
	FCMToken   string `json:"fcm_token"`
}

// SOSRequestPayload triggers an explicit SOS
type SOSRequestPayload struct {
	Severity  string   `json:"severity,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Message   string   `json:"message,omitempty"`
}
