package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/config"
	"github.com/OKpoorav/DietKaro-sub002/controllers"
	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/repository"
	"github.com/OKpoorav/DietKaro-sub002/services"
	"github.com/OKpoorav/DietKaro-sub002/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var secret = []byte("test-secret")

type apiFixture struct {
	router *gin.Engine
	db     *gorm.DB
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	metrics := services.NewMetrics(reg)
	store := repository.New(db, log)
	weights := config.DefaultScoringWeights()

	validation := services.NewValidationService(services.ValidationDeps{
		Clients: store, Foods: store, Logs: store,
		Cache:   services.NewValidationCache(),
		Metrics: metrics, Log: log, Workers: 4,
		Now: time.Now,
	})
	scorer := services.NewComplianceScorer(weights)
	adherence := services.NewAdherenceService(services.AdherenceDeps{
		Logs: store, Scorer: scorer, Hysteresis: weights.TrendHysteresis,
		Location: time.UTC, CacheTTL: time.Minute, Log: log,
	})
	hub := services.NewRealtimeHub(log)
	push := services.NewPushService(store, nil, "", log)
	compliance := services.NewComplianceService(services.ComplianceDeps{
		Logs: store, Plans: store, Scorer: scorer,
		Notifier: services.NewAlertBus(store, hub, push, log),
		Derived:  []services.ClientInvalidator{validation, adherence},
		Metrics:  metrics, Log: log,
	})

	router := SetupRouter(Controllers{
		Validation: controllers.NewValidationController(validation),
		Adherence:  controllers.NewAdherenceController(adherence, time.UTC),
		MealLogs:   controllers.NewMealLogController(services.NewMealLogService(store, services.NewPhotoService(nil, nil, log), compliance, log)),
		Profiles:   controllers.NewProfileController(services.NewProfileService(store, validation, log)),
		Devices:    controllers.NewDeviceController(push),
		Realtime:   controllers.NewRealtimeController(hub),
	}, secret, reg, log)
	return &apiFixture{router: router, db: db}
}

func token(t *testing.T, userID, orgID uint, role models.Role) string {
	t.Helper()
	tok, err := utils.GenerateJWT(userID, orgID, role, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *apiFixture) seedClient(t *testing.T, orgID uint, pattern string) (models.Client, models.FoodItem) {
	t.Helper()
	c := models.Client{OrgID: orgID, FullName: "Asha", DietPattern: pattern}
	require.NoError(t, f.db.Create(&c).Error)
	curry := models.FoodItem{Name: "Chicken Curry", Category: "non_veg", DietaryTags: datatypes.JSONSlice[string]{"non_veg"}}
	require.NoError(t, f.db.Create(&curry).Error)
	return c, curry
}

func TestHealthz(t *testing.T) {
	f := newAPI(t)
	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	f := newAPI(t)
	c, curry := f.seedClient(t, 1, "vegan")
	path := fmt.Sprintf("/api/clients/%d/validate", c.ID)
	body := gin.H{"foodId": curry.ID, "currentDay": "tuesday", "mealType": "lunch"}

	w := f.do(t, http.MethodPost, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, path, "not-a-jwt", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, path, token(t, 5, 1, models.RoleClient), body)
	assert.Equal(t, http.StatusForbidden, w.Code, "clients cannot validate")

	w = f.do(t, http.MethodDelete, "/api/validation-cache", token(t, 5, 1, models.RoleDietitian), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "only owners and admins clear the whole cache")

	w = f.do(t, http.MethodDelete, "/api/validation-cache", token(t, 5, 1, models.RoleOwner), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestValidateEndpoint(t *testing.T) {
	f := newAPI(t)
	c, curry := f.seedClient(t, 1, "vegan")
	tok := token(t, 7, 1, models.RoleDietitian)
	path := fmt.Sprintf("/api/clients/%d/validate", c.ID)

	w := f.do(t, http.MethodPost, path, tok, gin.H{"foodId": curry.ID, "currentDay": "Tuesday", "mealType": "lunch"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[models.ValidationResult](t, w)
	assert.Equal(t, models.SeverityRed, res.Severity)
	assert.False(t, res.CanAdd)
	require.NotEmpty(t, res.Alerts)
	assert.Equal(t, models.AlertDietPattern, res.Alerts[0].Type)

	w = f.do(t, http.MethodPost, path, tok, gin.H{"foodId": curry.ID, "mealType": "lunch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "currentDay", decode[map[string]any](t, w)["field"])

	w = f.do(t, http.MethodPost, path, tok, gin.H{"foodId": 999, "currentDay": "tuesday", "mealType": "lunch"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, path, token(t, 7, 2, models.RoleDietitian), gin.H{"foodId": curry.ID, "currentDay": "tuesday", "mealType": "lunch"})
	assert.Equal(t, http.StatusNotFound, w.Code, "the client belongs to another organization")

	w = f.do(t, http.MethodPost, "/api/clients/abc/validate", tok, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateBatchEndpoint(t *testing.T) {
	f := newAPI(t)
	c, curry := f.seedClient(t, 1, "")
	tok := token(t, 7, 1, models.RoleDietitian)
	path := fmt.Sprintf("/api/clients/%d/validate/batch", c.ID)

	w := f.do(t, http.MethodPost, path, tok, gin.H{"foodIds": []uint{curry.ID, curry.ID}, "currentDay": "monday", "mealType": "dinner"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[services.BatchValidationResult](t, w)
	require.Len(t, res.Results, 2)
	assert.Equal(t, models.SeverityGreen, res.Results[1].Severity)

	ids := make([]uint, services.MaxBatchFoods+1)
	for i := range ids {
		ids[i] = curry.ID
	}
	w = f.do(t, http.MethodPost, path, tok, gin.H{"foodIds": ids, "currentDay": "monday", "mealType": "dinner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "foodIds", decode[map[string]any](t, w)["field"])
}

func TestDietaryProfileUpdateIsVisibleToValidation(t *testing.T) {
	f := newAPI(t)
	c, curry := f.seedClient(t, 1, "")
	tok := token(t, 7, 1, models.RoleDietitian)
	validate := func() models.Severity {
		w := f.do(t, http.MethodPost, fmt.Sprintf("/api/clients/%d/validate", c.ID), tok,
			gin.H{"foodId": curry.ID, "currentDay": "tuesday", "mealType": "dinner"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[models.ValidationResult](t, w).Severity
	}
	require.Equal(t, models.SeverityGreen, validate())

	w := f.do(t, http.MethodPut, fmt.Sprintf("/api/clients/%d/dietary-profile", c.ID), tok, json.RawMessage(`{
		"foodRestrictions": [{"foodCategory": "non_veg", "type": "day_based", "avoidDays": ["tuesday"], "severity": "strict"}]
	}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.SeverityRed, validate())

	w = f.do(t, http.MethodPut, fmt.Sprintf("/api/clients/%d/dietary-profile", c.ID), tok, json.RawMessage(`{
		"foodRestrictions": [{"foodCategory": "non_veg", "type": "day_based", "severity": "strict"}]
	}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "foodRestrictions[0]", decode[map[string]any](t, w)["field"])
}

func TestMealLogScoringFeedsAdherence(t *testing.T) {
	f := newAPI(t)
	c, curry := f.seedClient(t, 1, "")
	plan := models.DietPlan{OrgID: 1, ClientID: c.ID, Name: "Maintain", DailyCalories: 1800, MealsPerDay: 3}
	require.NoError(t, f.db.Create(&plan).Error)
	meal := models.PlannedMeal{DietPlanID: plan.ID, MealType: models.MealLunch, TimeOfDay: "13:00", TargetCalories: 600,
		Items: []models.PlannedMealItem{{FoodItemID: curry.ID, Calories: 600}}}
	require.NoError(t, f.db.Create(&meal).Error)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	l := models.MealLog{OrgID: 1, ClientID: c.ID, PlannedMealID: meal.ID, MealType: models.MealLunch,
		ScheduledDate: day, Status: models.StatusPending, Version: 1}
	require.NoError(t, f.db.Create(&l).Error)

	clientTok := token(t, 5, 1, models.RoleClient)
	staffTok := token(t, 7, 1, models.RoleDietitian)
	dailyPath := fmt.Sprintf("/api/clients/%d/adherence/daily?date=2024-03-04", c.ID)

	w := f.do(t, http.MethodGet, dailyPath, staffTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	daily := decode[models.DailyAdherence](t, w)
	require.NotNil(t, daily.Score)
	assert.Equal(t, 0.0, *daily.Score, "a past pending meal counts as zero")

	w = f.do(t, http.MethodPatch, fmt.Sprintf("/api/meal-logs/%d/status", l.ID), clientTok, gin.H{"status": "eaten"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[models.ComplianceResult](t, w)
	require.NotNil(t, res.Score)
	assert.Equal(t, 90, *res.Score, "logged long after the grace window")
	assert.Equal(t, []string{services.IssueLateLog}, res.Issues)

	w = f.do(t, http.MethodGet, dailyPath, staffTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	daily = decode[models.DailyAdherence](t, w)
	assert.Equal(t, 90.0, *daily.Score, "scoring dropped the cached day")
	assert.Equal(t, 1, daily.MealsLogged)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/meal-logs/%d/review", l.ID), clientTok, gin.H{"overrideScore": 20})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/meal-logs/%d/review", l.ID), staffTok, gin.H{"overrideScore": 20, "note": "not eaten"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 20, *decode[models.ComplianceResult](t, w).Score)

	var alerts int64
	require.NoError(t, f.db.Model(&models.Alert{}).Where("client_id = ?", c.ID).Count(&alerts).Error)
	assert.Equal(t, int64(1), alerts, "the RED override raised an alert")

	w = f.do(t, http.MethodPatch, fmt.Sprintf("/api/meal-logs/%d/status", l.ID), token(t, 5, 2, models.RoleClient), gin.H{"status": "eaten"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/clients/%d/adherence/history?days=400", c.ID), staffTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPI(t)
	c, curry := f.seedClient(t, 1, "")
	f.do(t, http.MethodPost, fmt.Sprintf("/api/clients/%d/validate", c.ID), token(t, 7, 1, models.RoleAdmin),
		gin.H{"foodId": curry.ID, "currentDay": "friday", "mealType": "breakfast"})

	w := f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `dietkaro_validation_cache_lookups_total{result="miss"} 1`))
}
