package threshold

import (
	"errors"
	"fmt"

	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
	"vitalwatch/models/user"
	"vitalwatch/types"

	"gorm.io/gorm"
)

// Service handles bulk threshold operations: provisioning at onboarding,
// default refreshes, and user-owned customizable bands.
type Service struct {
	DB       *gorm.DB
	Resolver *Resolver
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		DB:       db,
		Resolver: NewResolver(db),
	}
}

// DetermineCategory picks the demographic threshold category from the
// user's health profile.
func DetermineCategory(ageYears int, chronic bool, activityLevel string) threshold.Category {
	switch {
	case chronic && ageYears < 30:
		return threshold.CategoryChronicYoung
	case chronic && ageYears < 60:
		return threshold.CategoryChronicAdult
	case chronic:
		return threshold.CategoryChronicSenior
	case activityLevel == user.ActivityAthlete && ageYears < 30:
		return threshold.CategoryAthleteYoung
	case activityLevel == user.ActivityAthlete && ageYears < 60:
		return threshold.CategoryAthleteAdult
	case activityLevel == user.ActivityAthlete:
		return threshold.CategoryAthleteSenior
	case ageYears >= 80:
		return threshold.CategoryElderly80s
	case ageYears >= 70:
		return threshold.CategoryElderly70s
	case ageYears >= 60:
		return threshold.CategoryElderly60s
	default:
		return threshold.CategoryDefault
	}
}

// categoryDefaults loads the default bands for a category, falling back to
// the base default category for vitals the demographic set does not cover.
func (s *Service) categoryDefaults(category threshold.Category) (map[health.VitalKind]threshold.ThresholdDefault, error) {
	merged := make(map[health.VitalKind]threshold.ThresholdDefault)

	var base []threshold.ThresholdDefault
	if err := s.DB.Where("category = ?", threshold.CategoryDefault).Find(&base).Error; err != nil {
		return nil, fmt.Errorf("failed to load base defaults: %w", err)
	}
	for _, d := range base {
		merged[d.VitalType] = d
	}

	if category != threshold.CategoryDefault {
		var specific []threshold.ThresholdDefault
		if err := s.DB.Where("category = ?", category).Find(&specific).Error; err != nil {
			return nil, fmt.Errorf("failed to load category defaults: %w", err)
		}
		for _, d := range specific {
			merged[d.VitalType] = d
		}
	}

	return merged, nil
}

// ProvisionDefaults creates profile rows from the category defaults for
// every vital the user has no row for yet. Existing rows are untouched.
func (s *Service) ProvisionDefaults(userID uint, category threshold.Category) error {
	defaults, err := s.categoryDefaults(category)
	if err != nil {
		return err
	}

	for kind, def := range defaults {
		var existing threshold.ThresholdProfile
		err := s.DB.Where("user_id = ? AND vital_type = ?", userID, kind).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing threshold: %w", err)
		}

		profile := threshold.ThresholdProfile{
			UserID:    userID,
			VitalType: kind,
			Low:       def.Low,
			High:      def.High,
			Category:  def.Category,
			Severity:  threshold.SeverityLow,
		}
		if err := s.DB.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to provision threshold for %s: %w", kind, err)
		}
	}

	return nil
}

// RefreshDefaults re-applies category defaults to the user's profile rows.
// Rows tagged customizable are never overwritten.
func (s *Service) RefreshDefaults(userID uint, category threshold.Category) error {
	defaults, err := s.categoryDefaults(category)
	if err != nil {
		return err
	}

	for kind, def := range defaults {
		var existing threshold.ThresholdProfile
		err := s.DB.Where("user_id = ? AND vital_type = ?", userID, kind).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile := threshold.ThresholdProfile{
				UserID:    userID,
				VitalType: kind,
				Low:       def.Low,
				High:      def.High,
				Category:  def.Category,
				Severity:  threshold.SeverityLow,
			}
			if err := s.DB.Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to create threshold for %s: %w", kind, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check existing threshold: %w", err)
		}

		// User-owned bands survive bulk refreshes.
		if existing.Category == threshold.CategoryCustomizable {
			continue
		}

		existing.Low = def.Low
		existing.High = def.High
		existing.Category = def.Category
		if err := s.DB.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to refresh threshold for %s: %w", kind, err)
		}
	}

	return nil
}

// UpsertCustom creates or replaces the user's band for a vital and tags it
// customizable so refreshes leave it alone.
func (s *Service) UpsertCustom(userID uint, kind health.VitalKind, low, high *float64) (*threshold.ThresholdProfile, error) {
	if low == nil && high == nil {
		return nil, fmt.Errorf("at least one of low or high must be set")
	}
	if low != nil && high != nil && *low >= *high {
		return nil, fmt.Errorf("low bound must be below high bound")
	}

	var profile threshold.ThresholdProfile
	err := s.DB.Where("user_id = ? AND vital_type = ?", userID, kind).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = threshold.ThresholdProfile{
			UserID:    userID,
			VitalType: kind,
			Low:       low,
			High:      high,
			Category:  threshold.CategoryCustomizable,
			Severity:  threshold.SeverityLow,
		}
		if err := s.DB.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("failed to create custom threshold: %w", err)
		}
		return &profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check existing threshold: %w", err)
	}

	profile.Low = low
	profile.High = high
	profile.Category = threshold.CategoryCustomizable
	if err := s.DB.Save(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update custom threshold: %w", err)
	}
	return &profile, nil
}

// DeleteCustom removes the user's customizable band for a vital
func (s *Service) DeleteCustom(userID uint, kind health.VitalKind) error {
	result := s.DB.Where("user_id = ? AND vital_type = ? AND category = ?",
		userID, kind, threshold.CategoryCustomizable).
		Delete(&threshold.ThresholdProfile{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete custom threshold: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Effective returns the merged per-user threshold view across all vitals
func (s *Service) Effective(userID uint) ([]types.EffectiveThreshold, error) {
	var out []types.EffectiveThreshold

	for _, kind := range health.AllVitalKinds() {
		var profile threshold.ThresholdProfile
		err := s.DB.Where("user_id = ? AND vital_type = ?", userID, kind).First(&profile).Error
		if err == nil {
			out = append(out, types.EffectiveThreshold{
				VitalType: kind.String(),
				Low:       profile.Low,
				High:      profile.High,
				Source:    profile.Category.String(),
			})
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load threshold profile: %w", err)
		}

		band, ok, err := s.Resolver.Resolve(userID, kind)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, types.EffectiveThreshold{
			VitalType: kind.String(),
			Low:       band.Low,
			High:      band.High,
			Source:    threshold.CategoryDefault.String(),
		})
	}

	return out, nil
}

// Simulate dry-runs an evaluation against the caller's resolved band
func (s *Service) Simulate(userID uint, kind health.VitalKind, value float64) (types.SimulateResponse, error) {
	band, ok, err := s.Resolver.Resolve(userID, kind)
	if err != nil {
		return types.SimulateResponse{}, err
	}

	resp := types.SimulateResponse{
		VitalType:  kind.String(),
		Value:      value,
		Configured: ok,
		Breach:     threshold.NoBreach.String(),
	}
	if !ok {
		return resp, nil
	}

	resp.Low = band.Low
	resp.High = band.High

	breach := Evaluate(band, value)
	resp.Breach = breach.String()
	if breach != threshold.NoBreach {
		resp.Severity = breach.Severity().String()
	}
	return resp, nil
}
