package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/okanb/health-tracker/internal/metrics"
)

// SeedTestData resets the database and populates it with demo profiles and records.
//
// Behavior:
//  1. Clears existing data in `user_record` and `user_profile` tables.
//  2. Creates a handful of demo profiles.
//  3. Logs several sessions per profile with drifting weights, record ids
//     assigned 1..n per profile.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := db.Exec("DELETE FROM user_record").Error; err != nil {
		return fmt.Errorf("failed to clear user_record: %w", err)
	}
	if err := db.Exec("DELETE FROM user_profile").Error; err != nil {
		return fmt.Errorf("failed to clear user_profile: %w", err)
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE user_profile AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'user_profile'")
	}

	log.Println("Cleared existing data")

	demos := []struct {
		name     string
		birthday string
		gender   metrics.Gender
		heightM  float64
		weightKg float64
		activity int
		goal     metrics.Goal
	}{
		{"Alice", "1992-03-04", metrics.Female, 1.65, 58.0, 2, metrics.GoalMaintain},
		{"Bob", "1988-11-21", metrics.Male, 1.82, 90.5, 3, metrics.GoalCut},
		{"Carol", "1999-07-30", metrics.Female, 1.70, 63.2, 4, metrics.GoalBulk},
		{"Dan", "1975-01-09", metrics.Male, 1.76, 78.0, 1, metrics.GoalMaintain},
	}

	for _, d := range demos {
		profile := UserProfile{
			Name:     d.name,
			Birthday: d.birthday,
			Gender:   string(d.gender),
			Height:   d.heightM,
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		// 3-6 sessions per profile, weight drifting a little each time
		sessions := 3 + r.Intn(4)
		weight := d.weightKg
		for i := 1; i <= sessions; i++ {
			weight += r.Float64()*1.2 - 0.6

			fields, err := metrics.ComputeRecordFields(
				d.gender, d.heightM, d.birthday, weight, d.activity, d.goal,
			)
			if err != nil {
				return fmt.Errorf("failed to compute seed record: %w", err)
			}

			record := UserRecord{
				UserID:        profile.UserID,
				RecordID:      uint64(i),
				Weight:        fields.Weight,
				BMI:           fields.BMI,
				BMR:           fields.BMR,
				ActivityLevel: fields.ActivityLevel,
				TDEE:          fields.TDEE,
				Goal:          string(fields.Goal),
			}
			if err := db.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to seed record: %w", err)
			}
		}
	}

	log.Printf("Seeded %d profiles.", len(demos))
	return nil
}
