package models

import (
	"strings"
	"time"
)

// Severity is the validation traffic light. It is also reused as the
// compliance color of a scored meal log.
type Severity string

const (
	SeverityRed    Severity = "RED"
	SeverityYellow Severity = "YELLOW"
	SeverityGreen  Severity = "GREEN"
)

// Rank orders severities so that RED > YELLOW > GREEN.
func (s Severity) Rank() int {
	switch s {
	case SeverityRed:
		return 2
	case SeverityYellow:
		return 1
	default:
		return 0
	}
}

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the Weekday of t in t's location.
func WeekdayOf(t time.Time) Weekday { return weekdays[t.Weekday()] }

// ParseWeekday accepts full lowercase/uppercase names ("Tuesday", "tuesday").
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range weekdays {
		if w == d {
			return d, true
		}
	}
	return "", false
}

type MealType string

const (
	MealBreakfast    MealType = "breakfast"
	MealMidMorning   MealType = "mid_morning"
	MealLunch        MealType = "lunch"
	MealEveningSnack MealType = "evening_snack"
	MealDinner       MealType = "dinner"
	MealBedtime      MealType = "bedtime"
)

// nominal clock time of each meal slot, used when a rule or a plan only
// knows the meal type
var mealSlots = map[MealType]TimeOfDay{
	MealBreakfast:    {Hour: 8},
	MealMidMorning:   {Hour: 11},
	MealLunch:        {Hour: 13},
	MealEveningSnack: {Hour: 17},
	MealDinner:       {Hour: 20},
	MealBedtime:      {Hour: 22},
}

func ParseMealType(s string) (MealType, bool) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := mealSlots[m]
	return m, ok
}

// SlotTime is the nominal time of day the meal is eaten.
func (m MealType) SlotTime() TimeOfDay { return mealSlots[m] }

// ValidationContext is the situation a food is validated against.
type ValidationContext struct {
	CurrentDay Weekday  `json:"currentDay"`
	MealType   MealType `json:"mealType"`
}

type AlertType string

const (
	AlertAllergy             AlertType = "allergy"
	AlertIntolerance         AlertType = "intolerance"
	AlertDietPattern         AlertType = "diet_pattern"
	AlertFoodRestriction     AlertType = "food_restriction"
	AlertDayBasedRestriction AlertType = "day_based_restriction"
	AlertTimeBasedRestrict   AlertType = "time_based_restriction"
	AlertFrequencyExceeded   AlertType = "frequency_exceeded"
	AlertQuantityExceeded    AlertType = "quantity_exceeded"
	AlertDislike             AlertType = "dislike"
	AlertPreferenceMatch     AlertType = "preference_match"
	AlertCuisineMatch        AlertType = "cuisine_match"
)

type ValidationAlert struct {
	Type           AlertType `json:"type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation,omitempty"`
	// MaxGramsPerMeal is only set on quantity alerts; the caller compares it
	// against the serving it is about to add.
	MaxGramsPerMeal float64 `json:"maxGramsPerMeal,omitempty"`
}

type ValidationResult struct {
	FoodID          uint              `json:"foodId"`
	FoodName        string            `json:"foodName"`
	Severity        Severity          `json:"severity"`
	CanAdd          bool              `json:"canAdd"`
	ConfidenceScore float64           `json:"confidenceScore"`
	Alerts          []ValidationAlert `json:"alerts"`
}

// Clone returns a deep copy so cached results are never shared mutably.
func (r *ValidationResult) Clone() *ValidationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Alerts = append(make([]ValidationAlert, 0, len(r.Alerts)), r.Alerts...)
	return &out
}
