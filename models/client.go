package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Client is a dietitian's client. The dietary columns are the restriction
// profile consumed by validation.
type Client struct {
	gorm.Model
	OrgID    uint   `gorm:"index;not null"`
	FullName string `gorm:"not null"`

	Allergies         datatypes.JSONSlice[string]
	Intolerances      datatypes.JSONSlice[string]
	DietPattern       string `gorm:"size:32"` // vegan | vegetarian | eggetarian | pescatarian | jain | non_vegetarian
	EggAllowed        bool
	FoodRestrictions  datatypes.JSON // []FoodRestriction in the flat JSON shape
	Dislikes          datatypes.JSONSlice[string]
	LikedFoods        datatypes.JSONSlice[string]
	PreferredCuisines datatypes.JSONSlice[string]
}

// ClientProfile is the read-only restriction profile of one client.
type ClientProfile struct {
	ClientID          uint              `json:"clientId"`
	OrgID             uint              `json:"orgId"`
	Allergies         []string          `json:"allergies"`
	Intolerances      []string          `json:"intolerances"`
	DietPattern       string            `json:"dietPattern"`
	EggAllowed        bool              `json:"eggAllowed"`
	FoodRestrictions  []FoodRestriction `json:"foodRestrictions"`
	Dislikes          []string          `json:"dislikes"`
	LikedFoods        []string          `json:"likedFoods"`
	PreferredCuisines []string          `json:"preferredCuisines"`
}

// DecodeRestrictions decodes the stored restriction list one entry at a time.
// Entries that cannot be decoded are reported in errs and left out, so one
// corrupt rule never hides the others.
func DecodeRestrictions(raw datatypes.JSON) (out []FoodRestriction, errs []error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, []error{fmt.Errorf("restrictions: %w", err)}
	}
	for i, item := range items {
		var r FoodRestriction
		if err := json.Unmarshal(item, &r); err != nil {
			errs = append(errs, fmt.Errorf("restrictions[%d]: %w", i, err))
			continue
		}
		out = append(out, r)
	}
	return out, errs
}

// EncodeRestrictions is the inverse of DecodeRestrictions.
func EncodeRestrictions(rs []FoodRestriction) (datatypes.JSON, error) {
	if rs == nil {
		rs = []FoodRestriction{}
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
