package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MealLogStatus string

const (
	StatusPending     MealLogStatus = "pending"
	StatusEaten       MealLogStatus = "eaten"
	StatusSkipped     MealLogStatus = "skipped"
	StatusSubstituted MealLogStatus = "substituted"
)

func (s MealLogStatus) Valid() bool {
	switch s {
	case StatusPending, StatusEaten, StatusSkipped, StatusSubstituted:
		return true
	}
	return false
}

// MealLog is one scheduled eating event of a client. The Compliance* columns
// are written only by the compliance scorer and stay NULL while pending.
type MealLog struct {
	gorm.Model
	OrgID         uint          `gorm:"index;not null"`
	ClientID      uint          `gorm:"index:idx_meal_logs_client_date;not null"`
	PlannedMealID uint          `gorm:"index"`
	MealType      MealType      `gorm:"size:32;not null"`
	ScheduledDate time.Time     `gorm:"index:idx_meal_logs_client_date;not null"` // midnight of the scheduled day
	Status        MealLogStatus `gorm:"size:16;not null;default:pending"`
	LoggedAt      *time.Time

	MealPhotoURL          *string
	PhotoLabels           datatypes.JSONSlice[string]
	ClientNotes           *string
	ChosenOptionGroup     *int
	SubstituteCaloriesEst *float64

	DietitianOverrideScore *int
	DietitianNote          string
	ReviewedAt             *time.Time

	ComplianceScore  *int
	ComplianceColor  *Severity `gorm:"size:8"`
	ComplianceIssues datatypes.JSONSlice[string]

	// Version is bumped by every write; updates are conditional on it.
	Version uint `gorm:"not null;default:1"`
}

// DueAt is when the meal should have been eaten: the planned meal's time on
// the scheduled date, or the meal type's slot time without a plan.
func (l *MealLog) DueAt(meal *PlannedMeal) time.Time {
	if meal != nil {
		return meal.ScheduledAt(l.ScheduledDate)
	}
	tod := l.MealType.SlotTime()
	d := l.ScheduledDate
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour, tod.Minute, 0, 0, d.Location())
}

// ComplianceResult is the authoritative outcome of scoring one meal log.
// Score and Color are nil while the log is pending.
type ComplianceResult struct {
	MealLogID uint      `json:"mealLogId"`
	Score     *int      `json:"score"`
	Color     *Severity `json:"color"`
	Issues    []string  `json:"issues"`
}
