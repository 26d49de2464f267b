package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/config"
	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func TestGetClientProfile(t *testing.T) {
	db := newTestDB(t)
	core, logs := observer.New(zap.ErrorLevel)
	store := New(db, zap.New(core))
	ctx := context.Background()

	c := models.Client{
		OrgID:       1,
		FullName:    "Asha",
		Allergies:   datatypes.JSONSlice[string]{"peanut"},
		DietPattern: "vegetarian",
		FoodRestrictions: datatypes.JSON(`[
			{"foodCategory":"eggs","type":"day_based","avoidDays":["tuesday"],"severity":"strict"},
			{"foodName":"rice","type":"sometimes","severity":"strict"}
		]`),
	}
	require.NoError(t, db.Create(&c).Error)

	p, err := store.GetClientProfile(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"peanut"}, p.Allergies)
	require.Len(t, p.FoodRestrictions, 1, "the undecodable rule is dropped")
	assert.Equal(t, models.DayBasedRule{AvoidDays: []models.Weekday{models.Tuesday}}, p.FoodRestrictions[0].Rule)
	assert.Equal(t, 1, logs.FilterMessage("undecodable food restriction").Len())

	_, err = store.GetClientProfile(ctx, 2, c.ID)
	assert.ErrorIs(t, err, services.ErrNotFound, "other organizations cannot read the client")
}

func TestUpdateDietaryProfile(t *testing.T) {
	db := newTestDB(t)
	store := New(db, nil)
	ctx := context.Background()

	c := models.Client{OrgID: 1, FullName: "Ravi"}
	require.NoError(t, db.Create(&c).Error)

	err := store.UpdateDietaryProfile(ctx, &models.ClientProfile{
		ClientID:    c.ID,
		OrgID:       1,
		DietPattern: "vegan",
		Dislikes:    []string{"okra"},
		FoodRestrictions: []models.FoodRestriction{{
			Target:   models.RestrictionTarget{FoodCategory: "dairy"},
			Rule:     models.QuantityRule{MaxGramsPerMeal: 100},
			Severity: models.RestrictionFlexible,
		}},
	})
	require.NoError(t, err)

	p, err := store.GetClientProfile(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "vegan", p.DietPattern)
	assert.Equal(t, []string{"okra"}, p.Dislikes)
	require.Len(t, p.FoodRestrictions, 1)
	assert.Equal(t, models.QuantityRule{MaxGramsPerMeal: 100}, p.FoodRestrictions[0].Rule)

	err = store.UpdateDietaryProfile(ctx, &models.ClientProfile{ClientID: c.ID, OrgID: 2})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGetFoodItem_SharedCatalog(t *testing.T) {
	db := newTestDB(t)
	store := New(db, nil)
	ctx := context.Background()

	shared := models.FoodItem{OrgID: 0, Name: "Brown Rice", Category: "grains"}
	private := models.FoodItem{OrgID: 1, Name: "House Dal", Category: "pulses", DietaryTags: datatypes.JSONSlice[string]{"vegan"}}
	require.NoError(t, db.Create(&shared).Error)
	require.NoError(t, db.Create(&private).Error)

	f, err := store.GetFoodItem(ctx, 2, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brown Rice", f.Name)

	f, err = store.GetFoodItem(ctx, 1, private.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan"}, f.DietaryTags)

	_, err = store.GetFoodItem(ctx, 2, private.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestMealLogVersioning(t *testing.T) {
	db := newTestDB(t)
	store := New(db, nil)
	ctx := context.Background()

	l := models.MealLog{OrgID: 1, ClientID: 9, MealType: models.MealLunch, ScheduledDate: monday, Status: models.StatusPending, Version: 1}
	require.NoError(t, db.Create(&l).Error)

	loaded, err := store.GetMealLog(ctx, 1, l.ID)
	require.NoError(t, err)
	loaded.Status = models.StatusSkipped
	require.NoError(t, store.SaveMealLog(ctx, loaded))
	assert.Equal(t, uint(2), loaded.Version)

	stale := l
	stale.Status = models.StatusEaten
	assert.ErrorIs(t, store.SaveMealLog(ctx, &stale), services.ErrConflict)

	score, color := 10, models.SeverityRed
	v, err := store.SaveCompliance(ctx, l.ID, 2, models.ComplianceResult{Score: &score, Color: &color, Issues: []string{"skipped"}})
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)

	_, err = store.SaveCompliance(ctx, l.ID, 2, models.ComplianceResult{Issues: []string{}})
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = store.SaveCompliance(ctx, 999, 1, models.ComplianceResult{Issues: []string{}})
	assert.ErrorIs(t, err, services.ErrNotFound)

	got, err := store.GetMealLog(ctx, 1, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, got.Status)
	require.NotNil(t, got.ComplianceScore)
	assert.Equal(t, 10, *got.ComplianceScore)
	assert.Equal(t, []string{"skipped"}, []string(got.ComplianceIssues))

	_, err = store.GetMealLog(ctx, 2, l.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListMealLogs_HalfOpenRange(t *testing.T) {
	db := newTestDB(t)
	store := New(db, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.MealLog{
			OrgID: 1, ClientID: 9, MealType: models.MealDinner,
			ScheduledDate: monday.AddDate(0, 0, i), Status: models.StatusPending, Version: 1,
		}).Error)
	}

	logs, err := store.ListMealLogs(context.Background(), 1, 9, monday, monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].ScheduledDate.Equal(monday))
}

func TestCountMatchingFoods(t *testing.T) {
	db := newTestDB(t)
	store := New(db, nil)
	ctx := context.Background()

	egg := models.FoodItem{Name: "Boiled Egg", Category: "eggs", DietaryTags: datatypes.JSONSlice[string]{"eggetarian"}}
	curry := models.FoodItem{Name: "Egg Curry", Category: "curries", DietaryTags: datatypes.JSONSlice[string]{"eggs"}}
	oats := models.FoodItem{Name: "Oats", Category: "grains"}
	for _, f := range []*models.FoodItem{&egg, &curry, &oats} {
		require.NoError(t, db.Create(f).Error)
	}

	plan := models.DietPlan{OrgID: 1, ClientID: 9, Name: "Cut"}
	require.NoError(t, db.Create(&plan).Error)
	breakfast := models.PlannedMeal{DietPlanID: plan.ID, MealType: models.MealBreakfast, Items: []models.PlannedMealItem{
		{FoodItemID: egg.ID, OptionGroup: 0},
		{FoodItemID: oats.ID, OptionGroup: 1},
	}}
	dinner := models.PlannedMeal{DietPlanID: plan.ID, MealType: models.MealDinner, Items: []models.PlannedMealItem{
		{FoodItemID: curry.ID, OptionGroup: 0},
	}}
	require.NoError(t, db.Create(&breakfast).Error)
	require.NoError(t, db.Create(&dinner).Error)

	logs := []models.MealLog{
		// default option eaten: counts the egg
		{PlannedMealID: breakfast.ID, ScheduledDate: monday, Status: models.StatusEaten},
		// alternative option eaten: oats only
		{PlannedMealID: breakfast.ID, ScheduledDate: monday.AddDate(0, 0, 1), Status: models.StatusEaten, ChosenOptionGroup: ptr(1)},
		// substituted and pending meals did not contain the planned food
		{PlannedMealID: breakfast.ID, ScheduledDate: monday.AddDate(0, 0, 2), Status: models.StatusSubstituted},
		{PlannedMealID: dinner.ID, ScheduledDate: monday.AddDate(0, 0, 2), Status: models.StatusPending},
		{PlannedMealID: dinner.ID, ScheduledDate: monday.AddDate(0, 0, 1), Status: models.StatusEaten},
		// before the window
		{PlannedMealID: breakfast.ID, ScheduledDate: monday.AddDate(0, 0, -1), Status: models.StatusEaten},
	}
	for i := range logs {
		logs[i].OrgID, logs[i].ClientID, logs[i].MealType, logs[i].Version = 1, 9, models.MealBreakfast, 1
		require.NoError(t, db.Create(&logs[i]).Error)
	}

	count := func(target models.RestrictionTarget) int {
		n, err := store.CountMatchingFoods(ctx, 9, target, monday)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, count(models.RestrictionTarget{FoodID: egg.ID}))
	assert.Equal(t, 2, count(models.RestrictionTarget{FoodCategory: "Eggs"}), "category matches dietary tags too")
	assert.Equal(t, 2, count(models.RestrictionTarget{FoodName: "egg"}))
	assert.Equal(t, 1, count(models.RestrictionTarget{FoodName: "oats"}))
	assert.Equal(t, 0, count(models.RestrictionTarget{}))
}

func TestDevices(t *testing.T) {
	db := newTestDB(t)
	store := New(db, nil)
	ctx := context.Background()

	dietitian := models.User{OrgID: 1, Email: "d@example.com", Role: models.RoleDietitian}
	client := models.User{OrgID: 1, Email: "c@example.com", Role: models.RoleClient}
	require.NoError(t, db.Create(&dietitian).Error)
	require.NoError(t, db.Create(&client).Error)

	first, err := store.UpsertDevice(ctx, &models.UserDevice{OrgID: 1, UserID: dietitian.ID, Platform: "android", TokenHash: "h1", EndpointARN: "arn:1", Enabled: true})
	require.NoError(t, err)
	again, err := store.UpsertDevice(ctx, &models.UserDevice{OrgID: 1, UserID: dietitian.ID, Platform: "android", TokenHash: "h1", EndpointARN: "arn:2", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same token refreshes the row")
	_, err = store.UpsertDevice(ctx, &models.UserDevice{OrgID: 1, UserID: client.ID, Platform: "ios", TokenHash: "h2", EndpointARN: "arn:3", Enabled: true})
	require.NoError(t, err)

	devs, err := store.ListOrgDevices(ctx, 1, []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleDietitian})
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "arn:2", devs[0].EndpointARN)

	n, err := store.SetDevicesEnabled(ctx, 1, dietitian.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	devs, err = store.ListOrgDevices(ctx, 1, []models.Role{models.RoleDietitian})
	require.NoError(t, err)
	assert.Empty(t, devs)

	a := &models.Alert{OrgID: 1, ClientID: 9, Type: "compliance_red", Message: "x"}
	require.NoError(t, store.CreateAlert(ctx, a))
	assert.NotZero(t, a.ID)
}

func ptr[T any](v T) *T { return &v }
