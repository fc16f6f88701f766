package threshold

import (
	"errors"
	"fmt"

	"vitalwatch/models/health"
	"vitalwatch/models/threshold"

	"gorm.io/gorm"
)

// Resolver looks up the effective band for a (user, vital kind) pair.
// Precedence: user profile row, then system default row, then not configured.
// Pure lookup, never creates rows.
type Resolver struct {
	DB *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db}
}

// Resolve returns the effective band and whether one is configured.
func (r *Resolver) Resolve(userID uint, kind health.VitalKind) (threshold.Band, bool, error) {
	var profile threshold.ThresholdProfile
	err := r.DB.Where("user_id = ? AND vital_type = ?", userID, kind).
		Order("updated_at DESC").
		First(&profile).Error
	if err == nil {
		return profile.Band(), true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return threshold.Band{}, false, fmt.Errorf("failed to look up threshold profile: %w", err)
	}

	var def threshold.ThresholdDefault
	err = r.DB.Where("category = ? AND vital_type = ?", threshold.CategoryDefault, kind).
		First(&def).Error
	if err == nil {
		return def.Band(), true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return threshold.Band{}, false, fmt.Errorf("failed to look up threshold default: %w", err)
	}

	return threshold.Band{}, false, nil
}
