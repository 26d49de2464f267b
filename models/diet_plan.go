package models

import (
	"time"

	"gorm.io/gorm"
)

// DietPlan is the plan a client's meal logs are scored against.
type DietPlan struct {
	gorm.Model
	OrgID         uint   `gorm:"index;not null"`
	ClientID      uint   `gorm:"index;not null"`
	Name          string `gorm:"not null"`
	StartDate     time.Time
	EndDate       *time.Time
	DailyCalories float64
	MealsPerDay   int
	RequirePhoto  bool // plan policy: every eaten meal should carry a photo
	Meals         []PlannedMeal
}

// PlannedMeal is one meal slot of a plan. Items with OptionGroup 0 are the
// default option; other groups are alternatives.
type PlannedMeal struct {
	gorm.Model
	DietPlanID     uint     `gorm:"index;not null"`
	MealType       MealType `gorm:"size:32;not null"`
	TimeOfDay      string   `gorm:"size:5"` // "HH:MM", empty means the meal slot default
	TargetCalories float64
	Items          []PlannedMealItem
}

type PlannedMealItem struct {
	gorm.Model
	PlannedMealID uint `gorm:"index;not null"`
	FoodItemID    uint `gorm:"index;not null"`
	OptionGroup   int  `gorm:"not null;default:0"`
	Grams         float64
	Calories      float64
	FoodItem      FoodItem
}

// OptionCalories sums the calories of one option group.
func (m PlannedMeal) OptionCalories(group int) float64 {
	var total float64
	for _, it := range m.Items {
		if it.OptionGroup == group {
			total += it.Calories
		}
	}
	return total
}

// ScheduledAt combines a scheduled date with the meal's planned time.
func (m PlannedMeal) ScheduledAt(date time.Time) time.Time {
	tod := m.MealType.SlotTime()
	if m.TimeOfDay != "" {
		if t, err := ParseTimeOfDay(m.TimeOfDay); err == nil {
			tod = t
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, date.Location())
}

// PlanTargets is the part of a plan the compliance scorer needs.
type PlanTargets struct {
	MealCalories float64
	RequirePhoto bool
}

// TargetsFor derives the scoring targets of one planned meal.
func (p DietPlan) TargetsFor(meal PlannedMeal) PlanTargets {
	t := PlanTargets{MealCalories: meal.TargetCalories, RequirePhoto: p.RequirePhoto}
	if t.MealCalories <= 0 && p.DailyCalories > 0 && p.MealsPerDay > 0 {
		t.MealCalories = p.DailyCalories / float64(p.MealsPerDay)
	}
	return t
}
