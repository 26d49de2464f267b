package services

import (
	"context"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"
)

// The stores below are the collaborators the engines read from and write to.
// Implementations enforce organization scoping themselves and report
// NotFound for rows outside the caller's organization.

type ClientProfileStore interface {
	GetClientProfile(ctx context.Context, orgID, clientID uint) (*models.ClientProfile, error)
	UpdateDietaryProfile(ctx context.Context, profile *models.ClientProfile) error
}

type FoodItemStore interface {
	GetFoodItem(ctx context.Context, orgID, foodID uint) (*models.FoodSnapshot, error)
}

type MealLogStore interface {
	GetMealLog(ctx context.Context, orgID, mealLogID uint) (*models.MealLog, error)
	// ListMealLogs returns the client's logs scheduled in [from, to).
	ListMealLogs(ctx context.Context, orgID, clientID uint, from, to time.Time) ([]models.MealLog, error)
	// CountMatchingFoods counts planned items matching target in the
	// client's eaten meals scheduled on or after since.
	CountMatchingFoods(ctx context.Context, clientID uint, target models.RestrictionTarget, since time.Time) (int, error)
	// SaveMealLog writes the mutable columns if the row still has
	// log.Version, then bumps log.Version. A lost race returns ErrConflict.
	SaveMealLog(ctx context.Context, log *models.MealLog) error
	// SaveCompliance writes the scoring columns under the same version
	// condition and returns the new version.
	SaveCompliance(ctx context.Context, mealLogID, version uint, result models.ComplianceResult) (uint, error)
}

type DietPlanStore interface {
	// GetPlannedMeal returns a planned meal with its items and owning plan.
	GetPlannedMeal(ctx context.Context, plannedMealID uint) (*models.PlannedMeal, *models.DietPlan, error)
}
