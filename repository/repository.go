// Package repository implements the service stores on top of gorm.
package repository

import (
	"errors"
	"fmt"

	"github.com/OKpoorav/DietKaro-sub002/services"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store implements every store interface of the services package.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

var (
	_ services.ClientProfileStore = (*Store)(nil)
	_ services.FoodItemStore      = (*Store)(nil)
	_ services.MealLogStore       = (*Store)(nil)
	_ services.DietPlanStore      = (*Store)(nil)
	_ services.DeviceStore        = (*Store)(nil)
	_ services.AlertStore         = (*Store)(nil)
)

// lookupErr maps a single-row read error onto the service taxonomy.
func lookupErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.NotFound(what, id)
	}
	return services.Dependency(fmt.Sprintf("load %s %d", what, id), err)
}
