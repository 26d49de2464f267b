package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"gorm.io/gorm"
)

type fakeClients struct {
	mu       sync.Mutex
	profiles map[uint]*models.ClientProfile
	reads    int
	err      error
}

func newFakeClients(ps ...*models.ClientProfile) *fakeClients {
	f := &fakeClients{profiles: make(map[uint]*models.ClientProfile)}
	for _, p := range ps {
		f.profiles[p.ClientID] = p
	}
	return f
}

func (f *fakeClients) GetClientProfile(_ context.Context, orgID, clientID uint) (*models.ClientProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[clientID]
	if !ok || p.OrgID != orgID {
		return nil, NotFound("client", clientID)
	}
	return p, nil
}

func (f *fakeClients) UpdateDietaryProfile(_ context.Context, p *models.ClientProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.profiles[p.ClientID]; !ok || cur.OrgID != p.OrgID {
		return NotFound("client", p.ClientID)
	}
	f.profiles[p.ClientID] = p
	return nil
}

func (f *fakeClients) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type fakeFoods struct {
	foods map[uint]models.FoodSnapshot
}

func newFakeFoods(fs ...models.FoodSnapshot) *fakeFoods {
	f := &fakeFoods{foods: make(map[uint]models.FoodSnapshot)}
	for _, food := range fs {
		f.foods[food.ID] = food
	}
	return f
}

func (f *fakeFoods) GetFoodItem(_ context.Context, _, foodID uint) (*models.FoodSnapshot, error) {
	food, ok := f.foods[foodID]
	if !ok {
		return nil, NotFound("food item", foodID)
	}
	return &food, nil
}

// fakeLogs keeps meal logs in memory with the same version discipline as
// the gorm store.
type fakeLogs struct {
	mu     sync.Mutex
	logs   map[uint]*models.MealLog
	counts map[string]int
	// conflicts makes the next n SaveCompliance calls lose a race.
	conflicts int
	// beforeSave runs inside SaveCompliance before the version check.
	beforeSave func(l *models.MealLog)
	saves      int
}

func newFakeLogs(ls ...*models.MealLog) *fakeLogs {
	f := &fakeLogs{logs: make(map[uint]*models.MealLog), counts: make(map[string]int)}
	for _, l := range ls {
		if l.Version == 0 {
			l.Version = 1
		}
		f.logs[l.ID] = l
	}
	return f
}

func (f *fakeLogs) GetMealLog(_ context.Context, orgID, id uint) (*models.MealLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.logs[id]
	if !ok || l.OrgID != orgID {
		return nil, NotFound("meal log", id)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLogs) ListMealLogs(_ context.Context, orgID, clientID uint, from, to time.Time) ([]models.MealLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MealLog
	for _, l := range f.logs {
		if l.OrgID == orgID && l.ClientID == clientID && !l.ScheduledDate.Before(from) && l.ScheduledDate.Before(to) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLogs) CountMatchingFoods(_ context.Context, _ uint, target models.RestrictionTarget, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[strings.ToLower(target.Label())+"@"+since.Format(time.RFC3339)], nil
}

func (f *fakeLogs) SaveMealLog(_ context.Context, l *models.MealLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.logs[l.ID]
	if !ok {
		return NotFound("meal log", l.ID)
	}
	if cur.Version != l.Version {
		return ErrConflict
	}
	cp := *l
	cp.Version++
	f.logs[l.ID] = &cp
	l.Version++
	return nil
}

func (f *fakeLogs) SaveCompliance(_ context.Context, id, version uint, res models.ComplianceResult) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	cur, ok := f.logs[id]
	if !ok {
		return 0, NotFound("meal log", id)
	}
	if f.beforeSave != nil {
		f.beforeSave(cur)
		f.beforeSave = nil
	}
	if f.conflicts > 0 {
		f.conflicts--
		cur.Version++
		return 0, ErrConflict
	}
	if cur.Version != version {
		return 0, ErrConflict
	}
	cur.ComplianceScore = res.Score
	cur.ComplianceColor = res.Color
	cur.ComplianceIssues = res.Issues
	cur.Version++
	return cur.Version, nil
}

type fakePlans struct {
	meals map[uint]*models.PlannedMeal
	plan  *models.DietPlan
}

func (f *fakePlans) GetPlannedMeal(_ context.Context, id uint) (*models.PlannedMeal, *models.DietPlan, error) {
	m, ok := f.meals[id]
	if !ok {
		return nil, nil, NotFound("planned meal", id)
	}
	return m, f.plan, nil
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []uint
}

func (r *recordingInvalidator) InvalidateClient(_, clientID uint) {
	r.mu.Lock()
	r.calls = append(r.calls, clientID)
	r.mu.Unlock()
}

type recordingNotifier struct {
	results []models.ComplianceResult
}

func (r *recordingNotifier) ComplianceScored(_ context.Context, _ *models.MealLog, res models.ComplianceResult) {
	r.results = append(r.results, res)
}

func ptr[T any](v T) *T { return &v }

func gormModel(id uint) gorm.Model { return gorm.Model{ID: id} }
