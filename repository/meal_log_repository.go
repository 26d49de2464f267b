package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/services"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Store) GetMealLog(ctx context.Context, orgID, mealLogID uint) (*models.MealLog, error) {
	var l models.MealLog
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", mealLogID, orgID).
		First(&l).Error
	if err != nil {
		return nil, lookupErr(err, "meal log", mealLogID)
	}
	return &l, nil
}

func (s *Store) ListMealLogs(ctx context.Context, orgID, clientID uint, from, to time.Time) ([]models.MealLog, error) {
	var logs []models.MealLog
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND client_id = ? AND scheduled_date >= ? AND scheduled_date < ?", orgID, clientID, from, to).
		Order("scheduled_date, id").
		Find(&logs).Error
	if err != nil {
		return nil, services.Dependency("list meal logs", err)
	}
	return logs, nil
}

// CountMatchingFoods counts planned items of the chosen option of eaten
// meals. Substituted meals did not contain the planned food and are left
// out.
func (s *Store) CountMatchingFoods(ctx context.Context, clientID uint, target models.RestrictionTarget, since time.Time) (int, error) {
	q := s.db.WithContext(ctx).
		Table("meal_logs AS ml").
		Joins("JOIN planned_meal_items AS pmi ON pmi.planned_meal_id = ml.planned_meal_id AND pmi.deleted_at IS NULL").
		Joins("JOIN food_items AS fi ON fi.id = pmi.food_item_id").
		Where("ml.deleted_at IS NULL AND ml.client_id = ? AND ml.status = ? AND ml.scheduled_date >= ?",
			clientID, models.StatusEaten, since).
		Where("pmi.option_group = COALESCE(ml.chosen_option_group, 0)")

	switch {
	case target.FoodID != 0:
		q = q.Where("fi.id = ?", target.FoodID)
	case target.FoodCategory != "":
		cat := strings.ToLower(strings.TrimSpace(target.FoodCategory))
		q = q.Where("LOWER(fi.category) = ? OR LOWER(CAST(fi.dietary_tags AS TEXT)) LIKE ?", cat, `%"`+cat+`"%`)
	case target.FoodName != "":
		q = q.Where("LOWER(fi.name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(target.FoodName))+"%")
	default:
		return 0, nil
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, services.Dependency("count matching foods", err)
	}
	return int(n), nil
}

func (s *Store) SaveMealLog(ctx context.Context, l *models.MealLog) error {
	err := s.conditionalUpdate(ctx, l.ID, l.Version, map[string]any{
		"status":                   l.Status,
		"logged_at":                l.LoggedAt,
		"meal_photo_url":           l.MealPhotoURL,
		"photo_labels":             l.PhotoLabels,
		"client_notes":             l.ClientNotes,
		"chosen_option_group":      l.ChosenOptionGroup,
		"substitute_calories_est":  l.SubstituteCaloriesEst,
		"dietitian_override_score": l.DietitianOverrideScore,
		"dietitian_note":           l.DietitianNote,
		"reviewed_at":              l.ReviewedAt,
	})
	if err != nil {
		return err
	}
	l.Version++
	return nil
}

func (s *Store) SaveCompliance(ctx context.Context, mealLogID, version uint, res models.ComplianceResult) (uint, error) {
	err := s.conditionalUpdate(ctx, mealLogID, version, map[string]any{
		"compliance_score":  res.Score,
		"compliance_color":  res.Color,
		"compliance_issues": datatypes.JSONSlice[string](res.Issues),
	})
	if err != nil {
		return 0, err
	}
	return version + 1, nil
}

// conditionalUpdate applies cols and bumps the version only if the row still
// has version. Zero rows affected means either a lost race or a missing row.
func (s *Store) conditionalUpdate(ctx context.Context, id, version uint, cols map[string]any) error {
	cols["version"] = version + 1
	res := s.db.WithContext(ctx).
		Model(&models.MealLog{}).
		Where("id = ? AND version = ?", id, version).
		Updates(cols)
	if res.Error != nil {
		return services.Dependency("update meal log", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current models.MealLog
	err := s.db.WithContext(ctx).Select("id", "version").First(&current, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.NotFound("meal log", id)
	}
	if err != nil {
		return services.Dependency("update meal log", err)
	}
	return services.ErrConflict
}
