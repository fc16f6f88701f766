package types

// OnboardingRequest records the health profile used to pick a demographic
// threshold category and provision default bands.
type OnboardingRequest struct {
	DateOfBirth      string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	HeightCM         float64 `json:"height_cm" validate:"omitempty,gte=0,lte=300"`
	WeightKG         float64 `json:"weight_kg" validate:"omitempty,gte=0,lte=700"`
	Gender           string  `json:"gender" validate:"omitempty,oneof=male female other"`
	ChronicCondition bool    `json:"chronic_condition"`
	ActivityLevel    string  `json:"activity_level" validate:"omitempty,oneof=sedentary moderate athlete"`
	HealthContext    string  `json:"health_context"`
}
