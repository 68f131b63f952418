package api

import "github.com/shopspring/decimal"

func init() {
	// The backend stores amounts as floats and expects JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ---------- auth ----------

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	SubscriptionPlan string `json:"subscription_plan"`
	IsActive         bool   `json:"is_active"`
	DailyGoal        int    `json:"daily_goal"`
	CreatedAt        string `json:"created_at,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperadmin
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ---------- goals ----------

type GoalType string

const (
	GoalShort GoalType = "short"
	GoalLong  GoalType = "long"
)

type GoalStatus string

const (
	StatusTodo       GoalStatus = "todo"
	StatusInProgress GoalStatus = "inprogress"
	StatusDone       GoalStatus = "done"
)

type Step struct {
	ID          string `json:"id,omitempty"`
	Text        string `json:"text"`
	Done        bool   `json:"done"`
	IsMilestone bool   `json:"is_milestone"`
	Deadline    string `json:"deadline,omitempty"`
}

type Goal struct {
	ID             string     `json:"id,omitempty"`
	Type           GoalType   `json:"type"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Deadline       string     `json:"deadline"`
	Priority       string     `json:"priority"`
	Status         GoalStatus `json:"status"`
	Category       string     `json:"category"`
	Color          string     `json:"color"`
	IsArchived     bool       `json:"is_archived"`
	IsPinned       bool       `json:"is_pinned"`
	Notes          string     `json:"notes"`
	Order          int        `json:"order"`
	Recurrence     string     `json:"recurrence"`
	StreakCount    int        `json:"streak_count"`
	LastStreakDate string     `json:"last_streak_date,omitempty"`
	ProjectID      string     `json:"project_id,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	DependencyIDs  []string   `json:"dependency_ids"`
	CreatedAt      string     `json:"created_at,omitempty"`
	Steps          []Step     `json:"steps"`
}

// Clone returns a deep copy so optimistic edits never alias a snapshot.
func (g Goal) Clone() Goal {
	out := g
	out.Steps = append([]Step(nil), g.Steps...)
	out.DependencyIDs = append([]string(nil), g.DependencyIDs...)
	return out
}

type GoalList struct {
	Short []Goal `json:"short"`
	Long  []Goal `json:"long"`
}

type NameValue struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type GoalAnalytics struct {
	Total  int `json:"total"`
	Status struct {
		Todo       int `json:"todo"`
		InProgress int `json:"inprogress"`
		Done       int `json:"done"`
	} `json:"status"`
	Categories     []NameValue `json:"categories"`
	WeeklyProgress []struct {
		Name      string `json:"name"`
		Completed int    `json:"completed"`
	} `json:"weekly_progress"`
}

// ---------- routines ----------

type RoutineEntry struct {
	Slot           string `json:"slot"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	Duration       int    `json:"duration"`
	Note           string `json:"note"`
	Completed      bool   `json:"completed"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	LinkedTaskID   string `json:"linkedTaskId,omitempty"`
}

type Routine struct {
	Date    string         `json:"date"`
	Entries []RoutineEntry `json:"entries"`
}

type RoutineDay struct {
	Date        string `json:"date"`
	Count       int    `json:"count"`
	IsCompleted bool   `json:"is_completed"`
}

type RoutineStreak struct {
	CurrentStreak  int  `json:"current_streak"`
	TodayCompleted bool `json:"today_completed"`
}

type RoutineTemplate struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Entries   []RoutineEntry `json:"entries"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// ---------- tasks ----------

type Task struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Priority    string `json:"priority,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ---------- sessions ----------

type SessionType string

const (
	SessionPomodoro   SessionType = "pomodoro"
	SessionShortBreak SessionType = "shortBreak"
	SessionLongBreak  SessionType = "longBreak"
)

type FocusSession struct {
	ID              string      `json:"id,omitempty"`
	DurationSeconds int         `json:"duration_seconds"`
	Type            SessionType `json:"type"`
	ProjectID       string      `json:"project_id,omitempty"`
	ProjectTaskID   string      `json:"project_task_id,omitempty"`
	CompletedAt     string      `json:"completed_at,omitempty"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TodayStats struct {
	TodayPomodoros int `json:"today_pomodoros"`
}

// ---------- projects ----------

type ProjectTask struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	CreatedAt   string `json:"created_at,omitempty"`
	TimeSeconds int    `json:"time_seconds,omitempty"`
}

type Project struct {
	ID               string        `json:"id,omitempty"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Notes            string        `json:"notes"`
	Color            string        `json:"color,omitempty"`
	Category         string        `json:"category"`
	Archived         bool          `json:"archived"`
	Status           string        `json:"status"`
	Priority         string        `json:"priority"`
	DueDate          string        `json:"due_date,omitempty"`
	CreatedAt        string        `json:"created_at,omitempty"`
	UpdatedAt        string        `json:"updated_at,omitempty"`
	TotalTimeSeconds int           `json:"total_time_seconds,omitempty"`
	Tasks            []ProjectTask `json:"tasks,omitempty"`
}

func (p Project) Clone() Project {
	out := p
	out.Tasks = append([]ProjectTask(nil), p.Tasks...)
	return out
}

type ProjectActivity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// ---------- money ----------

type TxType string

const (
	TxIncome     TxType = "income"
	TxExpense    TxType = "expense"
	TxInvestment TxType = "investment"
	TxLending    TxType = "lending"
	TxLoan       TxType = "loan"
)

type Transaction struct {
	ID       string          `json:"id,omitempty"`
	Type     TxType          `json:"type"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
}

type CreditCard struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name"`
	Limit      decimal.Decimal `json:"limit"`
	Used       decimal.Decimal `json:"used"`
	TotalSpend decimal.Decimal `json:"total_spend"`
	Color      string          `json:"color,omitempty"`
	DueDate    int             `json:"due_date,omitempty"`
}

type LendingEvent struct {
	ID     string          `json:"id,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	Date   string          `json:"date"`
	Notes  string          `json:"notes,omitempty"`
}

type LendingRecord struct {
	ID          string          `json:"id,omitempty"`
	Borrower    string          `json:"borrower"`
	TotalLent   decimal.Decimal `json:"total_lent"`
	Returned    decimal.Decimal `json:"returned"`
	Outstanding decimal.Decimal `json:"outstanding"`
	DueDate     string          `json:"due_date,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	History     []LendingEvent  `json:"history,omitempty"`
}

type Asset struct {
	ID     string          `json:"id,omitempty"`
	Type   string          `json:"type"`
	Label  string          `json:"label,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Color  string          `json:"color,omitempty"`
}

type MoneyData struct {
	CreditCards    []CreditCard    `json:"creditCards"`
	Transactions   []Transaction   `json:"transactions"`
	Assets         []Asset         `json:"assets"`
	LendingRecords []LendingRecord `json:"lendingRecords"`
}

type MoneySummary struct {
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpense      decimal.Decimal `json:"totalExpense"`
	CategoryBreakdown []NameValue     `json:"categoryBreakdown"`
	CreditCards       []CreditCard    `json:"creditCards"`
	Assets            []Asset         `json:"assets"`
	LendingRecords    []LendingRecord `json:"lendingRecords"`
}

type TransactionPage struct {
	Total        int           `json:"total"`
	Transactions []Transaction `json:"transactions"`
}

// ---------- gym ----------

type Exercise struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	MuscleGroup string          `json:"muscle_group"`
	Sets        int             `json:"sets"`
	Reps        int             `json:"reps"`
	Weight      decimal.Decimal `json:"weight"`
}

type Meal struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	MealType string `json:"meal_type"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fat      int    `json:"fat"`
}

type GymDay struct {
	Date         string              `json:"date,omitempty"`
	Weight       decimal.NullDecimal `json:"weight"`
	WaterGlasses int                 `json:"water_glasses"`
	Pushups      int                 `json:"pushups"`
	Pullups      int                 `json:"pullups"`
	Squads       int                 `json:"squads"`
	Notes        string              `json:"notes"`
	Exercises    []Exercise          `json:"exercises"`
	Meals        []Meal              `json:"meals"`
}

func (d GymDay) Clone() GymDay {
	out := d
	out.Exercises = append([]Exercise(nil), d.Exercises...)
	out.Meals = append([]Meal(nil), d.Meals...)
	return out
}

type GymGoal struct {
	TargetWater           int `json:"target_water"`
	TargetProtein         int `json:"target_protein"`
	TargetCalories        int `json:"target_calories"`
	TargetPushups         int `json:"target_pushups"`
	TargetPullups         int `json:"target_pullups"`
	TargetSquads          int `json:"target_squads"`
	TargetWorkoutsPerWeek int `json:"target_workouts_per_week"`
}

type GymDayStats struct {
	Date             string          `json:"date"`
	Weight           decimal.Decimal `json:"weight"`
	WaterGlasses     int             `json:"water_glasses"`
	Pushups          int             `json:"pushups"`
	Pullups          int             `json:"pullups"`
	Squads           int             `json:"squads"`
	CaloriesConsumed int             `json:"calories_consumed"`
	ProteinConsumed  int             `json:"protein_consumed"`
	CarbsConsumed    int             `json:"carbs_consumed,omitempty"`
	FatConsumed      int             `json:"fat_consumed,omitempty"`
	WorkoutCount     int             `json:"workout_count"`
}

// ---------- calendar ----------

type CalendarEvent struct {
	ID         string          `json:"id"`
	OriginalID string          `json:"original_id"`
	Title      string          `json:"title"`
	Date       string          `json:"date"`
	Type       string          `json:"type"`
	Status     string          `json:"status,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
	Color      string          `json:"color,omitempty"`
}

// ---------- admin ----------

type NewUser struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             Role   `json:"role,omitempty"`
	SubscriptionPlan string `json:"subscription_plan,omitempty"`
}

// UserPatch carries only the fields an admin changed.
type UserPatch struct {
	Role             *Role   `json:"role,omitempty"`
	SubscriptionPlan *string `json:"subscription_plan,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}
