package repository

import (
	"context"
	"errors"

	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/services"

	"gorm.io/gorm"
)

func (s *Store) UpsertDevice(ctx context.Context, dev *models.UserDevice) (*models.UserDevice, error) {
	db := s.db.WithContext(ctx)
	var existing models.UserDevice
	err := db.Where("user_id = ? AND token_hash = ?", dev.UserID, dev.TokenHash).First(&existing).Error
	switch {
	case err == nil:
		existing.OrgID = dev.OrgID
		existing.EndpointARN = dev.EndpointARN
		existing.Platform = dev.Platform
		existing.Enabled = true
		existing.UpdatedAt = dev.UpdatedAt
		if err := db.Save(&existing).Error; err != nil {
			return nil, services.Dependency("save device", err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(dev).Error; err != nil {
			return nil, services.Dependency("create device", err)
		}
		return dev, nil
	default:
		return nil, services.Dependency("load device", err)
	}
}

func (s *Store) ListOrgDevices(ctx context.Context, orgID uint, roles []models.Role) ([]models.UserDevice, error) {
	var out []models.UserDevice
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = user_devices.user_id AND users.deleted_at IS NULL").
		Where("user_devices.org_id = ? AND user_devices.enabled = ? AND users.disabled = ? AND users.role IN ?",
			orgID, true, false, roles).
		Find(&out).Error
	if err != nil {
		return nil, services.Dependency("list devices", err)
	}
	return out, nil
}

func (s *Store) SetDevicesEnabled(ctx context.Context, orgID, userID uint, enabled bool) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.UserDevice{}).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Update("enabled", enabled)
	if res.Error != nil {
		return 0, services.Dependency("update devices", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CreateAlert(ctx context.Context, a *models.Alert) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return services.Dependency("create alert", err)
	}
	return nil
}
