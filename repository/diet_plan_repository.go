package repository

import (
	"context"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"gorm.io/gorm"
)

func (s *Store) GetPlannedMeal(ctx context.Context, plannedMealID uint) (*models.PlannedMeal, *models.DietPlan, error) {
	var meal models.PlannedMeal
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("option_group, id") }).
		Preload("Items.FoodItem").
		First(&meal, plannedMealID).Error
	if err != nil {
		return nil, nil, lookupErr(err, "planned meal", plannedMealID)
	}

	var plan models.DietPlan
	if err := s.db.WithContext(ctx).First(&plan, meal.DietPlanID).Error; err != nil {
		return nil, nil, lookupErr(err, "diet plan", meal.DietPlanID)
	}
	return &meal, &plan, nil
}
