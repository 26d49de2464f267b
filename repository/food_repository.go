package repository

import (
	"context"

	"github.com/OKpoorav/DietKaro-sub002/models"
)

// GetFoodItem returns a food of the organization's catalog or of the shared
// catalog (org_id 0).
func (s *Store) GetFoodItem(ctx context.Context, orgID, foodID uint) (*models.FoodSnapshot, error) {
	var f models.FoodItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND (org_id = ? OR org_id = 0)", foodID, orgID).
		First(&f).Error
	if err != nil {
		return nil, lookupErr(err, "food item", foodID)
	}
	snap := f.Snapshot()
	return &snap, nil
}
