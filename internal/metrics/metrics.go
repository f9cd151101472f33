// Package metrics is the pure computation engine: it turns raw biometric
// inputs into derived health metrics (age, BMI, BMR, TDEE, macro targets).
// All functions are deterministic and side-effect free.
package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperr "github.com/okanb/health-tracker/internal/errors"
)

// Gender is a normalized gender value.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// Goal is a normalized dietary goal.
type Goal string

const (
	GoalCut      Goal = "cut"
	GoalBulk     Goal = "bulk"
	GoalMaintain Goal = "maintain"
)

// RecordFields is the exact field set persisted per logged session.
// Macro grams are presentation-only and deliberately not part of it.
type RecordFields struct {
	Weight        float64
	BMI           float64
	BMR           float64
	ActivityLevel int
	TDEE          float64
	Goal          Goal
}

// Macros holds daily macro targets in grams.
type Macros struct {
	CarbG    float64
	ProteinG float64
	FatG     float64
}

const birthdayLayout = "2006-01-02"

// NormalizeGender parses a free-form gender string.
// A trimmed, case-insensitive leading "m" or "f" selects Male/Female;
// anything else is invalid input. There is no silent default.
func NormalizeGender(s string) (Gender, error) {
	g := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(g, "m"):
		return Male, nil
	case strings.HasPrefix(g, "f"):
		return Female, nil
	}
	return "", fmt.Errorf("%w: gender must be 'M'/'F' or 'Male'/'Female', got %q", apperr.ErrInvalidInput, s)
}

// NormalizeGoal parses a goal string (case-insensitive cut/bulk/maintain).
func NormalizeGoal(s string) (Goal, error) {
	g := Goal(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := MacroDistribution[g]; !ok {
		return "", fmt.Errorf("%w: goal must be cut, bulk or maintain, got %q", apperr.ErrInvalidInput, s)
	}
	return g, nil
}

// AgeAt computes the age in whole years at the given date for a birthday
// in YYYY-MM-DD form. One year is subtracted when the anniversary has not
// been reached yet.
func AgeAt(birthday string, at time.Time) (int, error) {
	b, err := time.Parse(birthdayLayout, birthday)
	if err != nil {
		return 0, fmt.Errorf("%w: birthday must be YYYY-MM-DD, got %q", apperr.ErrInvalidInput, birthday)
	}
	age := at.Year() - b.Year()
	if at.Month() < b.Month() || (at.Month() == b.Month() && at.Day() < b.Day()) {
		age--
	}
	return age, nil
}

// Age computes the age in whole years as of today.
func Age(birthday string) (int, error) {
	return AgeAt(birthday, time.Now())
}

// CalcBMI returns weight_kg / height_m^2 rounded to 2 decimals.
// Bounds checking is the caller's responsibility.
func CalcBMI(weightKg, heightM float64) float64 {
	return Round2(weightKg / (heightM * heightM))
}

// ClassifyBMI buckets a BMI value. Boundaries fall into the upper bracket:
// exactly 18.5 is "Normal weight", exactly 25 is "Overweight", exactly 30
// is "Obese".
func ClassifyBMI(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	}
	return "Obese"
}

// CalcBMR computes the Mifflin-St Jeor basal metabolic rate.
// Height is taken in meters and converted to centimeters internally.
func CalcBMR(gender Gender, weightKg, heightM float64, age int) float64 {
	base := 10*weightKg + 6.25*(heightM*100) - 5*float64(age)
	if gender == Male {
		return Round2(base + 5)
	}
	return Round2(base - 161)
}

// CalcTDEE scales BMR by the activity factor for the given level.
// Unknown levels fall back to the moderate factor.
func CalcTDEE(bmr float64, activityLevel int) float64 {
	factor, ok := ActivityFactors[activityLevel]
	if !ok {
		factor = DefaultActivityFactor
	}
	return Round2(bmr * factor)
}

// CalculateMacros converts TDEE into daily macro grams for a goal,
// at 4 kcal/g for carbs and protein and 9 kcal/g for fat.
func CalculateMacros(tdee float64, goal Goal) (Macros, error) {
	g, err := NormalizeGoal(string(goal))
	if err != nil {
		return Macros{}, err
	}
	ratios := MacroDistribution[g]
	return Macros{
		CarbG:    Round1(tdee * ratios.Carb / 4),
		ProteinG: Round1(tdee * ratios.Protein / 4),
		FatG:     Round1(tdee * ratios.Fat / 9),
	}, nil
}

// TargetCalories applies the per-goal calorie modifier to TDEE.
func TargetCalories(tdee float64, goal Goal) (float64, error) {
	g, err := NormalizeGoal(string(goal))
	if err != nil {
		return 0, err
	}
	return Round2(tdee * GoalCalorieModifier[g]), nil
}

// ComputeRecordFields derives everything that gets persisted for one
// logged session: age from birthday, then BMI, BMR and TDEE in order.
// Macros are computed separately and never stored.
func ComputeRecordFields(gender Gender, heightM float64, birthday string, weightKg float64, activityLevel int, goal Goal) (RecordFields, error) {
	age, err := AgeAt(birthday, time.Now())
	if err != nil {
		return RecordFields{}, err
	}
	bmi := CalcBMI(weightKg, heightM)
	bmr := CalcBMR(gender, weightKg, heightM, age)
	tdee := CalcTDEE(bmr, activityLevel)

	return RecordFields{
		Weight:        Round2(weightKg),
		BMI:           bmi,
		BMR:           bmr,
		ActivityLevel: activityLevel,
		TDEE:          tdee,
		Goal:          goal,
	}, nil
}

// Round2 rounds half away from zero to 2 decimal places. This is the
// single rounding rule used throughout the engine.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round1 rounds half away from zero to 1 decimal place.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }
