package derive

import (
	"github.com/shopspring/decimal"

	"github.com/sadopc/focusflow/internal/api"
)

// Macros are summed meal nutrients.
type Macros struct {
	Calories int
	Protein  int
	Carbs    int
	Fat      int
}

func MealTotals(meals []api.Meal) Macros {
	var m Macros
	for _, meal := range meals {
		m.Calories += meal.Calories
		m.Protein += meal.Protein
		m.Carbs += meal.Carbs
		m.Fat += meal.Fat
	}
	return m
}

// ExerciseVolume is sets x reps x weight summed over exercises. Bodyweight
// exercises (zero weight) contribute nothing.
func ExerciseVolume(exs []api.Exercise) decimal.Decimal {
	total := decimal.Zero
	for _, e := range exs {
		total = total.Add(decimal.NewFromInt(int64(e.Sets * e.Reps)).Mul(e.Weight))
	}
	return total
}

// WorkoutDays counts days in stats with at least one logged exercise.
func WorkoutDays(stats []api.GymDayStats) int {
	n := 0
	for _, s := range stats {
		if s.WorkoutCount > 0 {
			n++
		}
	}
	return n
}

// GoalPercent is value/target capped at 100; 0 when there is no target.
func GoalPercent(value, target int) int {
	p := Percent(value, target)
	if p > 100 {
		return 100
	}
	return p
}
