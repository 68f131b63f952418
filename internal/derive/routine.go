package derive

import (
	"fmt"
	"math"
	"sort"

	"github.com/sadopc/focusflow/internal/api"
)

// Slot is one row of the daily routine grid.
type Slot struct {
	Key      string // "HH:MM", the entry key
	Label    string // "3:30 AM"
	EndLabel string
	Hour     float64
}

// TimeSlots returns the fixed grid: 03:30, then every hour from 04:00 to 23:00.
func TimeSlots() []Slot {
	slots := []Slot{{Key: "03:30", Label: "3:30 AM", EndLabel: "4:00 AM", Hour: 3.5}}
	for h := 4; h <= 23; h++ {
		slots = append(slots, Slot{
			Key:      fmt.Sprintf("%02d:00", h),
			Label:    clockLabel(h),
			EndLabel: clockLabel(h + 1),
			Hour:     float64(h),
		})
	}
	return slots
}

func clockLabel(h int) string {
	switch {
	case h < 12:
		return fmt.Sprintf("%d:00 AM", h)
	case h == 12:
		return "12:00 PM"
	case h == 24:
		return "12:00 AM"
	default:
		return fmt.Sprintf("%d:00 PM", h-12)
	}
}

// ActiveSlot returns the key of the slot containing hour (fractional), or "".
func ActiveSlot(hour float64) string {
	for _, s := range TimeSlots() {
		end := s.Hour + 1
		if s.Hour == 3.5 {
			end = 4
		}
		if hour >= s.Hour && hour < end {
			return s.Key
		}
	}
	return ""
}

// RoutineCategory is a selectable activity kind.
type RoutineCategory struct {
	ID    string
	Label string
	Color string
}

var RoutineCategories = []RoutineCategory{
	{"study", "Study", "#3b82f6"},
	{"work", "Work", "#6366f1"},
	{"break", "Break", "#f59e0b"},
	{"exercise", "Exercise", "#10b981"},
	{"meal", "Meal", "#f97316"},
	{"coding", "Coding", "#a855f7"},
	{"hobby", "Hobby", "#ec4899"},
	{"sleep", "Sleep", "#64748b"},
}

// CategoryOf returns the category for id, falling back to the first one.
func CategoryOf(id string) RoutineCategory {
	for _, c := range RoutineCategories {
		if c.ID == id {
			return c
		}
	}
	return RoutineCategories[0]
}

// TrackedMinutes is the time an entry counts toward focus: whole timer
// minutes, or the planned duration when it was completed without a timer.
func TrackedMinutes(e api.RoutineEntry) int {
	mins := e.ElapsedSeconds / 60
	if e.Completed && mins == 0 {
		return e.Duration
	}
	return mins
}

// PlannedMinutes sums planned durations.
func PlannedMinutes(entries []api.RoutineEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Duration
	}
	return total
}

// FocusMinutes sums TrackedMinutes over every entry.
func FocusMinutes(entries []api.RoutineEntry) int {
	total := 0
	for _, e := range entries {
		total += TrackedMinutes(e)
	}
	return total
}

// CompletionPercent is the rounded share of completed entries.
func CompletionPercent(entries []api.RoutineEntry) int {
	done := 0
	for _, e := range entries {
		if e.Completed {
			done++
		}
	}
	return Percent(done, len(entries))
}

// RingSlice is one category's share of the tracked time.
type RingSlice struct {
	Category RoutineCategory
	Minutes  int
	Percent  int
}

// CategoryRing aggregates tracked minutes per known category, largest first.
// Entries in unknown categories are ignored. Minutes sum to total, and
// percentages are apportioned by largest remainder so they sum to exactly 100.
func CategoryRing(entries []api.RoutineEntry) (slices []RingSlice, total int) {
	byID := make(map[string]int)
	for _, e := range entries {
		if !knownCategory(e.Category) {
			continue
		}
		m := TrackedMinutes(e)
		byID[e.Category] += m
		total += m
	}
	if total == 0 {
		return nil, 0
	}
	for _, c := range RoutineCategories {
		if m := byID[c.ID]; m > 0 {
			slices = append(slices, RingSlice{Category: c, Minutes: m})
		}
	}
	sort.SliceStable(slices, func(i, j int) bool { return slices[i].Minutes > slices[j].Minutes })

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(slices))
	assigned := 0
	for i := range slices {
		exact := float64(slices[i].Minutes) * 100 / float64(total)
		floor := math.Floor(exact)
		slices[i].Percent = int(floor)
		assigned += int(floor)
		rems[i] = rem{i, exact - floor}
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for k := 0; k < 100-assigned; k++ {
		slices[rems[k%len(rems)].idx].Percent++
	}
	return slices, total
}

func knownCategory(id string) bool {
	for _, c := range RoutineCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// SwapSlots moves the entry at from onto to. An entry already at to moves
// back to from; otherwise from becomes empty. The input map is not modified.
func SwapSlots(entries map[string]api.RoutineEntry, from, to string) map[string]api.RoutineEntry {
	out := make(map[string]api.RoutineEntry, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	if from == to {
		return out
	}
	dragged, ok := entries[from]
	if !ok {
		return out
	}
	target, hasTarget := entries[to]
	dragged.Slot = to
	out[to] = dragged
	if hasTarget {
		target.Slot = from
		out[from] = target
	} else {
		delete(out, from)
	}
	return out
}

// EntryMap keys entries by slot.
func EntryMap(entries []api.RoutineEntry) map[string]api.RoutineEntry {
	m := make(map[string]api.RoutineEntry, len(entries))
	for _, e := range entries {
		m[e.Slot] = e
	}
	return m
}

// EntryList flattens m into slot order.
func EntryList(m map[string]api.RoutineEntry) []api.RoutineEntry {
	out := make([]api.RoutineEntry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// ResetCompletion clears the completed flag of every entry, used when saving
// or loading a template and when copying another day.
func ResetCompletion(entries []api.RoutineEntry) []api.RoutineEntry {
	out := make([]api.RoutineEntry, len(entries))
	for i, e := range entries {
		e.Completed = false
		out[i] = e
	}
	return out
}

// FormatMinutes renders minutes as "2h 5m" or "45m".
func FormatMinutes(m int) string {
	if m >= 60 {
		return fmt.Sprintf("%dh %dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm", m)
}
