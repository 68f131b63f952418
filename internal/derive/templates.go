package derive

import "github.com/sadopc/focusflow/internal/api"

// GoalTemplate pre-fills a new goal.
type GoalTemplate struct {
	Name     string
	Title    string
	Category string
	Type     api.GoalType
	Priority string
	Color    string
	Steps    []string
}

var GoalTemplates = []GoalTemplate{
	{
		Name:     "Learning",
		Title:    "Read a Book",
		Category: "Learning",
		Type:     api.GoalShort,
		Priority: "medium",
		Color:    "#3b82f6",
		Steps:    []string{"Choose a book", "Read 20 pages every day", "Write a summary/review"},
	},
	{
		Name:     "Fitness",
		Title:    "Run a 5K",
		Category: "Health",
		Type:     api.GoalLong,
		Priority: "high",
		Color:    "#10b981",
		Steps:    []string{"Buy running shoes", "Run 3 times a week", "Complete a 5K run"},
	},
	{
		Name:     "Career",
		Title:    "Build a Portfolio Project",
		Category: "Career",
		Type:     api.GoalLong,
		Priority: "high",
		Color:    "#6366f1",
		Steps:    []string{"Pick an idea", "Build the MVP", "Write a README", "Deploy and share"},
	},
	{
		Name:     "Finance",
		Title:    "Build an Emergency Fund",
		Category: "Finance",
		Type:     api.GoalLong,
		Priority: "medium",
		Color:    "#f59e0b",
		Steps:    []string{"Calculate monthly expenses", "Open a savings account", "Automate a monthly transfer"},
	},
}

// FromTemplate builds an unsaved goal from the named template with every
// step undone and in order.
func FromTemplate(name string) (api.Goal, bool) {
	for _, t := range GoalTemplates {
		if t.Name == name {
			return t.goal(), true
		}
	}
	return api.Goal{}, false
}

func (t GoalTemplate) goal() api.Goal {
	steps := make([]api.Step, len(t.Steps))
	for i, text := range t.Steps {
		steps[i] = api.Step{Text: text, Done: false}
	}
	return api.Goal{
		Type:          t.Type,
		Title:         t.Title,
		Category:      t.Category,
		Priority:      t.Priority,
		Color:         t.Color,
		Status:        api.StatusTodo,
		Steps:         steps,
		DependencyIDs: []string{},
	}
}
