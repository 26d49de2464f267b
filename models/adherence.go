package models

// MealAdherence is one row of a day's per-meal breakdown.
type MealAdherence struct {
	MealLogID uint          `json:"mealLogId"`
	MealType  MealType      `json:"mealType"`
	Status    MealLogStatus `json:"status"`
	Score     *int          `json:"score"`
	Color     *Severity     `json:"color"`
	Issues    []string      `json:"issues"`
	Counted   bool          `json:"counted"`
}

type DailyAdherence struct {
	Date          string          `json:"date"` // YYYY-MM-DD
	Score         *float64        `json:"score"`
	Color         *Severity       `json:"color"`
	MealsLogged   int             `json:"mealsLogged"`
	MealsPlanned  int             `json:"mealsPlanned"`
	MealBreakdown []MealAdherence `json:"mealBreakdown"`
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

type WeeklyAdherence struct {
	WeekStart      string           `json:"weekStart"`
	WeekEnd        string           `json:"weekEnd"`
	AverageScore   *float64         `json:"averageScore"`
	Color          *Severity        `json:"color"`
	DailyBreakdown []DailyAdherence `json:"dailyBreakdown"`
	Trend          Trend            `json:"trend"`
}

type DayScore struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

type ComplianceHistory struct {
	Data         []DailyAdherence `json:"data"`
	AverageScore *float64         `json:"averageScore"`
	BestDay      *DayScore        `json:"bestDay"`
	WorstDay     *DayScore        `json:"worstDay"`
}
