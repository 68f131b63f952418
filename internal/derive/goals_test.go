package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusflow/internal/api"
)

func TestSortGoals(t *testing.T) {
	goals := []api.Goal{
		{ID: "a", Order: 1, CreatedAt: "2024-01-01T00:00:00"},
		{ID: "b", Order: 0, CreatedAt: "2024-01-02T00:00:00"},
		{ID: "c", Order: 5, IsPinned: true},
		{ID: "d", Order: 1, CreatedAt: "2024-03-01T00:00:00"},
	}
	got := SortGoals(goals)
	assert.Equal(t, []string{"c", "b", "d", "a"}, goalIDs(got))
	assert.Equal(t, "a", goals[0].ID, "input untouched")
}

func TestDeadlineBands(t *testing.T) {
	now := time.Date(2024, 5, 10, 23, 30, 0, 0, time.Local)
	tests := []struct {
		deadline string
		want     DeadlineStatus
		label    string
	}{
		{"", DeadlineStatus{Band: BandNone}, ""},
		{"2024-05-08", DeadlineStatus{Band: BandOverdue, Days: 2}, "Overdue by 2 days"},
		{"2024-05-09", DeadlineStatus{Band: BandOverdue, Days: 1}, "Overdue by 1 day"},
		{"2024-05-10", DeadlineStatus{Band: BandDueToday}, "Due today"},
		{"2024-05-11", DeadlineStatus{Band: BandDueSoon, Days: 1}, "Due in 1 day"},
		{"2024-05-13", DeadlineStatus{Band: BandDueSoon, Days: 3}, "Due in 3 days"},
		{"2024-05-14", DeadlineStatus{Band: BandNormal, Days: 4}, "4 days left"},
		{"2024-05-14T00:00:00", DeadlineStatus{Band: BandNormal, Days: 4}, "4 days left"},
	}
	for _, tt := range tests {
		t.Run(tt.deadline, func(t *testing.T) {
			got := Deadline(tt.deadline, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.label, got.Label())
		})
	}
}

func TestStepProgress(t *testing.T) {
	g := api.Goal{Steps: []api.Step{{Done: true}, {Done: false}, {Done: true}}}
	done, total, pct := StepProgress(g)
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 67, pct)

	_, _, pct = StepProgress(api.Goal{})
	assert.Equal(t, 0, pct)
}

func TestBlockingGoals(t *testing.T) {
	all := []api.Goal{
		{ID: "x", Status: api.StatusDone},
		{ID: "y", Status: api.StatusInProgress},
	}
	g := api.Goal{ID: "g", DependencyIDs: []string{"x", "y", "missing"}}
	blocking := BlockingGoals(g, all)
	require.Len(t, blocking, 1)
	assert.Equal(t, "y", blocking[0].ID)
	assert.Empty(t, BlockingGoals(api.Goal{}, all))
}

func TestGoalStats(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
	c := GoalStats([]api.Goal{
		{Status: api.StatusTodo, Category: "Health", Deadline: "2024-05-01"},
		{Status: api.StatusDone, Category: "Health", Deadline: "2024-05-01"},
		{Status: api.StatusInProgress, Category: "Career"},
		{Status: api.StatusTodo, IsArchived: true},
	}, now)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, 1, c.Todo)
	assert.Equal(t, 1, c.InProgress)
	assert.Equal(t, 1, c.Done)
	assert.Equal(t, 1, c.Archived)
	assert.Equal(t, 1, c.Overdue)
	assert.Equal(t, map[string]int{"Health": 2, "Career": 1}, c.Categories)
}

func TestApplyOrder(t *testing.T) {
	goals := []api.Goal{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got, ids := ApplyOrder(goals, 2, 0)
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	for i, g := range got {
		assert.Equal(t, i, g.Order)
	}
	assert.Equal(t, "a", goals[0].ID)

	_, ids = ApplyOrder(goals, 0, 9)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestFilterGoals(t *testing.T) {
	goals := []api.Goal{
		{ID: "1", Type: api.GoalShort},
		{ID: "2", Type: api.GoalLong},
		{ID: "3", Type: api.GoalShort, IsArchived: true},
	}
	assert.Equal(t, []string{"1"}, goalIDs(FilterGoals(goals, api.GoalShort, false)))
	assert.Equal(t, []string{"3"}, goalIDs(FilterGoals(goals, api.GoalShort, true)))
}

func TestFromTemplate(t *testing.T) {
	g, ok := FromTemplate("Learning")
	require.True(t, ok)
	assert.Equal(t, "Read a Book", g.Title)
	require.Len(t, g.Steps, 3)
	assert.Equal(t, "Choose a book", g.Steps[0].Text)
	assert.Equal(t, "Read 20 pages every day", g.Steps[1].Text)
	assert.Equal(t, "Write a summary/review", g.Steps[2].Text)
	for _, s := range g.Steps {
		assert.False(t, s.Done)
	}

	_, ok = FromTemplate("Nope")
	assert.False(t, ok)
}
