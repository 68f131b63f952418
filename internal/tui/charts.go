package tui

import (
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/derive"
)

func chartSize(width, height int) (int, int) {
	w := max(width-8, 20)
	h := 10
	if height > 30 {
		h = 14
	}
	return w, h
}

func drawBars(w, h int, bars []barchart.BarData) string {
	if len(bars) == 0 {
		return mutedStyle.Render("  No data yet")
	}
	chart := barchart.New(w, h)
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

// weeklyFocusChart draws one bar per day of completed pomodoros.
func weeklyFocusChart(week []api.DayCount, width, height int) string {
	w, h := chartSize(width, height)
	style := lipgloss.NewStyle().Foreground(colorPrimary)
	var bars []barchart.BarData
	for _, d := range week {
		label := d.Date
		if t, ok := derive.ParseDate(d.Date, time.Local); ok {
			label = t.Format("Mon")
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "sessions", Value: float64(d.Count), Style: style}},
		})
	}
	return drawBars(w, h, bars)
}

var breakdownColors = []string{"#6366F1", "#F43F5E", "#10B981", "#F59E0B", "#38BDF8", "#A855F7", "#EC4899", "#64748B"}

// expenseChart draws the largest expense categories.
func expenseChart(breakdown []api.NameValue, width, height int) string {
	w, h := chartSize(width, height)
	var bars []barchart.BarData
	for i, nv := range breakdown {
		if i == 6 {
			break
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(breakdownColors[i%len(breakdownColors)]))
		v, _ := nv.Value.Float64()
		bars = append(bars, barchart.BarData{
			Label:  truncate(nv.Name, 10),
			Values: []barchart.BarValue{{Name: nv.Name, Value: v, Style: style}},
		})
	}
	return drawBars(w, h, bars)
}

// categoryChart draws routine minutes per category.
func categoryChart(ring []derive.RingSlice, width, height int) string {
	w, h := chartSize(width, height)
	var bars []barchart.BarData
	for _, s := range ring {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Category.Color))
		bars = append(bars, barchart.BarData{
			Label:  s.Category.Label,
			Values: []barchart.BarValue{{Name: s.Category.Label, Value: float64(s.Minutes), Style: style}},
		})
	}
	return drawBars(w, h, bars)
}

// monthlyChart stacks income and expense per month.
func monthlyChart(points []derive.MonthPoint, width, height int) string {
	w, h := chartSize(width, height)
	income := lipgloss.NewStyle().Foreground(colorSuccess)
	expense := lipgloss.NewStyle().Foreground(colorAccent)
	var bars []barchart.BarData
	for _, p := range points {
		in, _ := p.Income.Float64()
		out, _ := p.Expense.Float64()
		bars = append(bars, barchart.BarData{
			Label: time.Date(p.Month.Year, p.Month.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan"),
			Values: []barchart.BarValue{
				{Name: "income", Value: in, Style: income},
				{Name: "expense", Value: out, Style: expense},
			},
		})
	}
	return drawBars(w, h, bars)
}

// gymChart draws calories eaten per day.
func gymChart(stats []api.GymDayStats, width, height int) string {
	w, h := chartSize(width, height)
	style := lipgloss.NewStyle().Foreground(colorWarning)
	var bars []barchart.BarData
	for _, s := range stats {
		label := s.Date
		if t, ok := derive.ParseDate(s.Date, time.Local); ok {
			label = t.Format("2")
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "kcal", Value: float64(s.CaloriesConsumed), Style: style}},
		})
	}
	return drawBars(w, h, bars)
}
