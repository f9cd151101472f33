package metrics

// Static lookup tables and validation bounds. Loaded once, never mutated.

// ActivityFactors maps the 1-5 activity level to a TDEE multiplier.
var ActivityFactors = map[int]float64{
	1: 1.2,   // sedentary
	2: 1.375, // lightly active
	3: 1.55,  // moderately active
	4: 1.725, // very active
	5: 1.9,   // super active
}

// DefaultActivityFactor is used when the level is outside 1-5.
const DefaultActivityFactor = 1.55

// MacroRatios holds the per-goal calorie split. Each triple sums to 1.0.
type MacroRatios struct {
	Carb    float64
	Protein float64
	Fat     float64
}

// MacroDistribution maps a goal to its macro calorie split.
var MacroDistribution = map[Goal]MacroRatios{
	GoalCut:      {Carb: 0.35, Protein: 0.40, Fat: 0.25},
	GoalBulk:     {Carb: 0.50, Protein: 0.30, Fat: 0.20},
	GoalMaintain: {Carb: 0.45, Protein: 0.30, Fat: 0.25},
}

// GoalCalorieModifier scales TDEE into a daily calorie target per goal.
var GoalCalorieModifier = map[Goal]float64{
	GoalCut:      0.8,
	GoalBulk:     1.1,
	GoalMaintain: 1.0,
}

// Validation bounds for the input surface. The engine itself does not
// range-check weight or height.
const (
	WeightKgMin = 10.0
	WeightKgMax = 400.0
	HeightMMin  = 0.5
	HeightMMax  = 4.0
	AgeMin      = 1
	AgeMax      = 120
)

// LbToKg converts pounds to kilograms.
const LbToKg = 0.453592
