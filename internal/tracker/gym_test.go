package tracker

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/reconcile"
)

const gymDate = "2024-03-15"

func newGym(t *testing.T, save http.HandlerFunc) (*Gym, *backend, *events) {
	t.Helper()
	b, deps, ev := newBackend(t)
	b.handle("GET /api/gym/"+gymDate, ok(api.GymDay{
		WaterGlasses: 2,
		Exercises:    []api.Exercise{{ID: "e1", Name: "Squat", Sets: 3, Reps: 5, Weight: dec("100")}},
		Meals:        []api.Meal{{ID: "m1", Name: "Oats", Calories: 300, Protein: 10}},
	}))
	b.handle("GET /api/gym/goal", ok(api.GymGoal{TargetWater: 8, TargetProtein: 100, TargetCalories: 2000}))
	b.handle("POST /api/gym/day", save)
	g := NewGym(deps)
	t.Cleanup(g.Close)
	require.NoError(t, g.Load(t.Context(), gymDate))
	require.NoError(t, g.LoadGoal(t.Context()))
	return g, b, ev
}

func TestGymCounterTapsCoalesce(t *testing.T) {
	g, b, _ := newGym(t, ok(nil))

	for i := 0; i < 4; i++ {
		require.NoError(t, g.Increment(gymDate, Water, 1))
	}
	require.NoError(t, g.Increment(gymDate, Pushups, -5))

	day, _ := g.Day(gymDate)
	assert.Equal(t, 6, day.WaterGlasses)
	assert.Equal(t, 0, day.Pushups)

	assert.Eventually(t, func() bool { return b.count(http.MethodPost, "/api/gym/day") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	calls := b.calls(http.MethodPost, "/api/gym/day")
	require.Len(t, calls, 1)
	sent := decode[api.GymDayFields](t, calls[0].Body)
	assert.Equal(t, gymDate, sent.Date)
	require.NotNil(t, sent.WaterGlasses)
	assert.Equal(t, 6, *sent.WaterGlasses)
	assert.Nil(t, sent.Weight)
}

func TestGymFailedSaveReverts(t *testing.T) {
	g, _, ev := newGym(t, fail(http.StatusBadGateway))

	require.NoError(t, g.Increment(gymDate, Squats, 20))
	assert.Eventually(t, func() bool {
		day, _ := g.Day(gymDate)
		return day.Squads == 0
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, ev.kinds(), reconcile.EventReverted)
}

func TestGymExercisesAndMealsSurviveCounterRevert(t *testing.T) {
	g, b, _ := newGym(t, fail(http.StatusInternalServerError))
	b.handle("POST /api/gym/meal", func(w http.ResponseWriter, r *http.Request) {
		m := bodyOf[api.Meal](r)
		m.ID = "m2"
		reply(w, http.StatusCreated, map[string]api.Meal{"meal": m})
	})
	b.handle("DELETE /api/gym/exercise/{id}", ok(nil))

	require.NoError(t, g.Increment(gymDate, Water, 1))
	require.NoError(t, g.AddMeal(t.Context(), gymDate, api.Meal{Name: "Eggs", Calories: 150, Protein: 12}))
	require.NoError(t, g.DeleteExercise(t.Context(), gymDate, "e1"))

	assert.Eventually(t, func() bool {
		day, _ := g.Day(gymDate)
		return day.WaterGlasses == 2
	}, time.Second, 5*time.Millisecond)

	day, _ := g.Day(gymDate)
	require.Len(t, day.Meals, 2)
	assert.Equal(t, "m2", day.Meals[1].ID)
	assert.Empty(t, day.Exercises)

	s := g.Summary(gymDate)
	assert.Equal(t, 450, s.Macros.Calories)
	assert.Equal(t, 22, s.ProteinPct)
	assert.Equal(t, 25, s.WaterPct)

	assert.ErrorIs(t, g.AddMeal(t.Context(), gymDate, api.Meal{}), ErrInvalidInput)
}

func TestGymAnalyticsSpan(t *testing.T) {
	g, b, _ := newGym(t, ok(nil))
	b.handle("GET /api/gym/analytics/{span}", ok([]api.GymDayStats{{Date: "2024-03-14", WorkoutCount: 2}}))

	stats, err := g.Analytics(t.Context(), "week")
	require.NoError(t, err)
	assert.Len(t, stats, 1)

	_, err = g.Analytics(t.Context(), "year")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
