package repository

import (
	"context"

	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/services"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func (s *Store) GetClientProfile(ctx context.Context, orgID, clientID uint) (*models.ClientProfile, error) {
	var c models.Client
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", clientID, orgID).
		First(&c).Error
	if err != nil {
		return nil, lookupErr(err, "client", clientID)
	}

	restrictions, errs := models.DecodeRestrictions(c.FoodRestrictions)
	for _, err := range errs {
		// undecodable rules never match; the rest of the profile still applies
		s.log.Error("undecodable food restriction",
			zap.Uint("client_id", c.ID), zap.Error(err))
	}

	return &models.ClientProfile{
		ClientID:          c.ID,
		OrgID:             c.OrgID,
		Allergies:         c.Allergies,
		Intolerances:      c.Intolerances,
		DietPattern:       c.DietPattern,
		EggAllowed:        c.EggAllowed,
		FoodRestrictions:  restrictions,
		Dislikes:          c.Dislikes,
		LikedFoods:        c.LikedFoods,
		PreferredCuisines: c.PreferredCuisines,
	}, nil
}

func (s *Store) UpdateDietaryProfile(ctx context.Context, p *models.ClientProfile) error {
	restrictions, err := models.EncodeRestrictions(p.FoodRestrictions)
	if err != nil {
		return services.InvalidArgument("foodRestrictions", "%v", err)
	}
	res := s.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ? AND org_id = ?", p.ClientID, p.OrgID).
		Updates(map[string]any{
			"allergies":          datatypes.JSONSlice[string](p.Allergies),
			"intolerances":       datatypes.JSONSlice[string](p.Intolerances),
			"diet_pattern":       p.DietPattern,
			"egg_allowed":        p.EggAllowed,
			"food_restrictions":  restrictions,
			"dislikes":           datatypes.JSONSlice[string](p.Dislikes),
			"liked_foods":        datatypes.JSONSlice[string](p.LikedFoods),
			"preferred_cuisines": datatypes.JSONSlice[string](p.PreferredCuisines),
		})
	if res.Error != nil {
		return services.Dependency("update dietary profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return services.NotFound("client", p.ClientID)
	}
	return nil
}
