package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

func (c *Client) GymDay(ctx context.Context, date string) (GymDay, error) {
	var out GymDay
	err := c.get(ctx, "/gym/"+escape(date), nil, &out)
	out.Date = date
	return out, err
}

// GymDayFields are the scalar day counters. Nil fields are left untouched.
type GymDayFields struct {
	Date         string           `json:"date"`
	Weight       *decimal.Decimal `json:"weight,omitempty"`
	WaterGlasses *int             `json:"water_glasses,omitempty"`
	Pushups      *int             `json:"pushups,omitempty"`
	Pullups      *int             `json:"pullups,omitempty"`
	Squads       *int             `json:"squads,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// DayFields captures every counter of d for a full save.
func DayFields(d GymDay) GymDayFields {
	water, push, pull, squats, notes := d.WaterGlasses, d.Pushups, d.Pullups, d.Squads, d.Notes
	f := GymDayFields{
		Date:         d.Date,
		WaterGlasses: &water,
		Pushups:      &push,
		Pullups:      &pull,
		Squads:       &squats,
		Notes:        &notes,
	}
	if d.Weight.Valid {
		w := d.Weight.Decimal
		f.Weight = &w
	}
	return f
}

func (c *Client) SaveGymDay(ctx context.Context, f GymDayFields) error {
	if f.Date == "" {
		return fmt.Errorf("save gym day: date is required")
	}
	return c.post(ctx, "/gym/day", f, nil)
}

func (c *Client) AddExercise(ctx context.Context, date string, e Exercise) (Exercise, error) {
	body := struct {
		Exercise
		Date string `json:"date"`
	}{e, date}
	var out struct {
		Exercise Exercise `json:"exercise"`
	}
	err := c.post(ctx, "/gym/exercise", body, &out)
	return out.Exercise, err
}

func (c *Client) DeleteExercise(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/gym/exercise/"+escape(id))
}

func (c *Client) AddMeal(ctx context.Context, date string, m Meal) (Meal, error) {
	body := struct {
		Meal
		Date string `json:"date"`
	}{m, date}
	var out struct {
		Meal Meal `json:"meal"`
	}
	err := c.post(ctx, "/gym/meal", body, &out)
	return out.Meal, err
}

func (c *Client) DeleteMeal(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/gym/meal/"+escape(id))
}

func (c *Client) GymGoal(ctx context.Context) (GymGoal, error) {
	var out GymGoal
	err := c.get(ctx, "/gym/goal", nil, &out)
	return out, err
}

func (c *Client) SaveGymGoal(ctx context.Context, g GymGoal) error {
	return c.post(ctx, "/gym/goal", g, nil)
}

// GymAnalytics returns per-day stats for span "week" or "month".
func (c *Client) GymAnalytics(ctx context.Context, span string) ([]GymDayStats, error) {
	if span != "week" && span != "month" {
		return nil, fmt.Errorf("gym analytics: invalid range %q", span)
	}
	var out []GymDayStats
	err := c.get(ctx, "/gym/analytics/"+span, nil, &out)
	return out, err
}

func (c *Client) GymHistory(ctx context.Context, month, year int) ([]GymDayStats, error) {
	q := url.Values{}
	q.Set("month", itoa(month))
	q.Set("year", itoa(year))
	var out []GymDayStats
	err := c.get(ctx, "/gym/history", q, &out)
	return out, err
}
