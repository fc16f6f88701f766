package seeders

import (
	"log"

	"vitalwatch/models/health"
	"vitalwatch/models/threshold"

	"gorm.io/gorm"
)

func ptr(v float64) *float64 { return &v }

// SeedThresholdDefaults seeds the system default bands per category.
// Idempotent: only missing (category, vital_type) rows are inserted.
func SeedThresholdDefaults(db *gorm.DB) {
	log.Printf("🔍 Checking threshold defaults data integrity...")

	defaults := []threshold.ThresholdDefault{
		// Base adult defaults
		{Category: threshold.CategoryDefault, VitalType: health.VitalHeartRate, Low: ptr(60), High: ptr(100)},
		{Category: threshold.CategoryDefault, VitalType: health.VitalOxygenSaturation, Low: ptr(95), High: ptr(100)},
		{Category: threshold.CategoryDefault, VitalType: health.VitalTemperature, Low: ptr(36.1), High: ptr(37.8)},
		{Category: threshold.CategoryDefault, VitalType: health.VitalRespiratoryRate, Low: ptr(12), High: ptr(20)},
		{Category: threshold.CategoryBloodPressure, VitalType: health.VitalBPSystolic, Low: ptr(90), High: ptr(120)},
		{Category: threshold.CategoryBloodPressure, VitalType: health.VitalBPDiastolic, Low: ptr(60), High: ptr(80)},
		{Category: threshold.CategoryDefault, VitalType: health.VitalBPSystolic, Low: ptr(90), High: ptr(120)},
		{Category: threshold.CategoryDefault, VitalType: health.VitalBPDiastolic, Low: ptr(60), High: ptr(80)},

		// Elderly: wider resting heart rate and blood pressure tolerance
		{Category: threshold.CategoryElderly60s, VitalType: health.VitalHeartRate, Low: ptr(55), High: ptr(100)},
		{Category: threshold.CategoryElderly60s, VitalType: health.VitalBPSystolic, Low: ptr(90), High: ptr(130)},
		{Category: threshold.CategoryElderly70s, VitalType: health.VitalHeartRate, Low: ptr(55), High: ptr(95)},
		{Category: threshold.CategoryElderly70s, VitalType: health.VitalBPSystolic, Low: ptr(90), High: ptr(140)},
		{Category: threshold.CategoryElderly80s, VitalType: health.VitalHeartRate, Low: ptr(50), High: ptr(95)},
		{Category: threshold.CategoryElderly80s, VitalType: health.VitalBPSystolic, Low: ptr(90), High: ptr(150)},
		{Category: threshold.CategoryElderly80s, VitalType: health.VitalOxygenSaturation, Low: ptr(92), High: ptr(100)},

		// Athletes: lower resting heart rate is normal
		{Category: threshold.CategoryAthleteYoung, VitalType: health.VitalHeartRate, Low: ptr(40), High: ptr(100)},
		{Category: threshold.CategoryAthleteAdult, VitalType: health.VitalHeartRate, Low: ptr(45), High: ptr(100)},
		{Category: threshold.CategoryAthleteSenior, VitalType: health.VitalHeartRate, Low: ptr(50), High: ptr(100)},

		// Chronic conditions: tighter oxygen and respiratory monitoring
		{Category: threshold.CategoryChronicYoung, VitalType: health.VitalOxygenSaturation, Low: ptr(94), High: ptr(100)},
		{Category: threshold.CategoryChronicYoung, VitalType: health.VitalRespiratoryRate, Low: ptr(12), High: ptr(22)},
		{Category: threshold.CategoryChronicAdult, VitalType: health.VitalOxygenSaturation, Low: ptr(93), High: ptr(100)},
		{Category: threshold.CategoryChronicAdult, VitalType: health.VitalRespiratoryRate, Low: ptr(12), High: ptr(24)},
		{Category: threshold.CategoryChronicSenior, VitalType: health.VitalOxygenSaturation, Low: ptr(92), High: ptr(100)},
		{Category: threshold.CategoryChronicSenior, VitalType: health.VitalRespiratoryRate, Low: ptr(12), High: ptr(24)},
	}

	type key struct {
		category threshold.Category
		vital    health.VitalKind
	}

	// Get all existing (category, vital_type) pairs from the database
	var existing []threshold.ThresholdDefault
	if err := db.Select("category", "vital_type").Find(&existing).Error; err != nil {
		log.Printf("❌ Failed to fetch existing threshold defaults: %v", err)
		return
	}

	existingMap := make(map[key]bool)
	for _, row := range existing {
		existingMap[key{row.Category, row.VitalType}] = true
	}

	var missing []threshold.ThresholdDefault
	for _, def := range defaults {
		if !existingMap[key{def.Category, def.VitalType}] {
			missing = append(missing, def)
		}
	}

	log.Printf("📊 Data integrity check:")
	log.Printf("   Expected defaults: %d", len(defaults))
	log.Printf("   Existing defaults: %d", len(existing))
	log.Printf("   Missing defaults: %d", len(missing))

	if len(missing) == 0 {
		log.Printf("✅ All threshold defaults are already present. No seeding needed.")
		return
	}

	log.Printf("🌱 Seeding %d missing threshold defaults...", len(missing))

	successCount := 0
	failureCount := 0

	for _, def := range missing {
		if err := db.Create(&def).Error; err != nil {
			log.Printf("❌ Failed to seed default %s/%s: %v", def.Category, def.VitalType, err)
			failureCount++
		} else {
			log.Printf("✅ Added: %s/%s", def.Category, def.VitalType)
			successCount++
		}
	}

	log.Printf("🎉 Seeding completed! Successfully inserted %d defaults, %d failures", successCount, failureCount)
}
