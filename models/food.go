package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FoodItem is an entry of the food catalog. OrgID 0 marks the shared
// catalog visible to every organization.
type FoodItem struct {
	gorm.Model
	OrgID    uint   `gorm:"index"`
	Name     string `gorm:"not null;index"`
	Category string `gorm:"size:64;index"` // e.g. non_veg, eggs, dairy, grains
	Cuisine  string `gorm:"size:64"`

	DietaryTags   datatypes.JSONSlice[string] // e.g. vegan, non_veg, root_vegetable
	AllergenFlags datatypes.JSONSlice[string] // e.g. peanut, gluten, lactose
	Calories      float64                     // per default serving
}

// FoodSnapshot is the immutable view of a food item used by validation.
type FoodSnapshot struct {
	ID            uint
	Name          string
	Category      string
	Cuisine       string
	DietaryTags   []string
	AllergenFlags []string
}

func (f FoodItem) Snapshot() FoodSnapshot {
	return FoodSnapshot{
		ID:            f.ID,
		Name:          f.Name,
		Category:      f.Category,
		Cuisine:       f.Cuisine,
		DietaryTags:   append([]string(nil), f.DietaryTags...),
		AllergenFlags: append([]string(nil), f.AllergenFlags...),
	}
}
