package threshold

import (
	"fmt"
	"strings"
	"time"

	"vitalwatch/models/health"
)

// Severity of a breach or emergency. The evaluator only ever produces
// low and high; critical is assignable through SOS and manual emergencies.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) String() string { return string(s) }

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// ParseSeverity rejects unknown severities. Used at validation boundaries
// where a garbled severity is an input error.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("unknown severity: %q", s)
	}
	return sev, nil
}

// NormalizeSeverity falls back to low for unknown values. Used by the
// message formatter, which must tolerate garbled input.
func NormalizeSeverity(s string) Severity {
	sev, err := ParseSeverity(s)
	if err != nil {
		return SeverityLow
	}
	return sev
}

// Category marks the provenance of a threshold row. Customizable rows are
// user-owned and must never be overwritten by bulk default refreshes.
type Category string

const (
	CategoryDefault       Category = "default"
	CategoryBloodPressure Category = "blood_pressure"
	CategoryCustomizable  Category = "customizable"
	CategoryElderly60s    Category = "elderly_60s"
	CategoryElderly70s    Category = "elderly_70s"
	CategoryElderly80s    Category = "elderly_80s"
	CategoryAthleteYoung  Category = "athlete_young"
	CategoryAthleteAdult  Category = "athlete_adult"
	CategoryAthleteSenior Category = "athlete_senior"
	CategoryChronicYoung  Category = "chronic_young"
	CategoryChronicAdult  Category = "chronic_adult"
	CategoryChronicSenior Category = "chronic_senior"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryDefault, CategoryBloodPressure, CategoryCustomizable,
		CategoryElderly60s, CategoryElderly70s, CategoryElderly80s,
		CategoryAthleteYoung, CategoryAthleteAdult, CategoryAthleteSenior,
		CategoryChronicYoung, CategoryChronicAdult, CategoryChronicSenior:
		return true
	default:
		return false
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown threshold category: %q", s)
	}
	return c, nil
}

// Band is the acceptable (low, high) range for a vital kind. Either bound
// may be absent.
type Band struct {
	Low  *float64 `json:"low,omitempty"`
	High *float64 `json:"high,omitempty"`
}

// Breach classifies an observed value against a band.
type Breach int

const (
	NoBreach Breach = iota
	BreachLow
	BreachHigh
)

func (b Breach) String() string {
	switch b {
	case BreachLow:
		return "low"
	case BreachHigh:
		return "high"
	default:
		return "none"
	}
}

// Severity maps a breach classification to the alert severity it carries.
func (b Breach) Severity() Severity {
	if b == BreachHigh {
		return SeverityHigh
	}
	return SeverityLow
}

// ThresholdDefault is a system-owned band for (category, vital kind).
type ThresholdDefault struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Category  Category         `gorm:"type:varchar(30);not null;index" json:"category"`
	VitalType health.VitalKind `gorm:"type:varchar(40);not null;index" json:"vital_type"`
	Low       *float64         `json:"low,omitempty"`
	High      *float64         `json:"high,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// ThresholdProfile is a user-scoped band. At most one profile row is
// consulted per (user, vital kind) evaluation.
type ThresholdProfile struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_threshold_profiles_user_vital" json:"user_id"`
	VitalType health.VitalKind `gorm:"type:varchar(40);not null;index:idx_threshold_profiles_user_vital" json:"vital_type"`
	Low       *float64         `json:"low,omitempty"`
	High      *float64         `json:"high,omitempty"`
	Category  Category         `gorm:"type:varchar(30);not null;default:'default'" json:"category"`
	Severity  Severity         `gorm:"type:varchar(20);not null;default:'low'" json:"severity"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// Band returns the profile's band as a value type.
func (p *ThresholdProfile) Band() Band {
	return Band{Low: p.Low, High: p.High}
}

// Band returns the default's band as a value type.
func (d *ThresholdDefault) Band() Band {
	return Band{Low: d.Low, High: d.High}
}
