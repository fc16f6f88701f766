package types

// DefaultThresholdRequest creates or updates a system default band (admin)
type DefaultThresholdRequest struct {
	Category  string   `json:"category" validate:"required"`
	VitalType string   `json:"vital_type" validate:"required"`
	Low       *float64 `json:"low,omitempty"`
	High      *float64 `json:"high,omitempty"`
}

// CustomThresholdRequest upserts a user-owned customizable band
type CustomThresholdRequest struct {
	VitalType string   `json:"vital_type" validate:"required"`
	Low       *float64 `json:"low,omitempty"`
	High      *float64 `json:"high,omitempty"`
}

// DeleteCustomThresholdRequest removes a customizable band
type DeleteCustomThresholdRequest struct {
	VitalType string `json:"vital_type" validate:"required"`
}

// SimulateRequest dry-runs an evaluation against the caller's bands
type SimulateRequest struct {
	VitalType string  `json:"vital_type" validate:"required"`
	Value     float64 `json:"value" validate:"required"`
}

// SimulateResponse reports the resolved band and the classification
type SimulateResponse struct {
	VitalType  string   `json:"vital_type"`
	Value      float64  `json:"value"`
	Configured bool     `json:"configured"`
	Low        *float64 `json:"low,omitempty"`
	High       *float64 `json:"high,omitempty"`
	Breach     string   `json:"breach"`
	Severity   string   `json:"severity,omitempty"`
}

// EffectiveThreshold is one row of the merged per-user threshold view
type EffectiveThreshold struct {
	VitalType string   `json:"vital_type"`
	Low       *float64 `json:"low,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Source    string   `json:"source"`
}
