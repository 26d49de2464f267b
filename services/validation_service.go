package services

import (
	"context"
	"sync"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxBatchFoods caps validateBatch.
const MaxBatchFoods = 50

type BatchValidationResult struct {
	Results          []*models.ValidationResult `json:"results"`
	ProcessingTimeMs int64                      `json:"processingTimeMs"`
}

// ValidationService validates candidate foods against a client's restriction
// profile, memoizing results in a ValidationCache.
type ValidationService struct {
	clients  ClientProfileStore
	foods    FoodItemStore
	logs     MealLogStore
	cache    *ValidationCache
	resolver *SeverityResolver
	metrics  *Metrics
	log      *zap.Logger
	workers  int
	now      func() time.Time
}

type ValidationDeps struct {
	Clients ClientProfileStore
	Foods   FoodItemStore
	Logs    MealLogStore
	Cache   *ValidationCache
	Metrics *Metrics
	Log     *zap.Logger
	Workers int
	Now     func() time.Time
}

func NewValidationService(d ValidationDeps) *ValidationService {
	if d.Workers < 1 {
		d.Workers = 1
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &ValidationService{
		clients:  d.Clients,
		foods:    d.Foods,
		logs:     d.Logs,
		cache:    d.Cache,
		resolver: NewSeverityResolver(d.Log),
		metrics:  d.Metrics,
		log:      d.Log,
		workers:  d.Workers,
		now:      d.Now,
	}
}

// Validate evaluates one food for one client in vctx.
func (s *ValidationService) Validate(ctx context.Context, orgID, clientID, foodID uint, vctx models.ValidationContext) (*models.ValidationResult, error) {
	defer s.metrics.observe("validate", time.Now())
	if err := checkContext(vctx); err != nil {
		return nil, err
	}
	if foodID == 0 {
		return nil, InvalidArgument("foodId", "is required")
	}

	key := s.key(orgID, clientID, foodID, vctx)
	if res, ok := s.cache.Get(key); ok {
		s.metrics.cacheLookup(true)
		return res, nil
	}
	s.metrics.cacheLookup(false)

	gen := s.cache.Generation(key)
	profile, err := s.clients.GetClientProfile(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluate(ctx, orgID, profile, foodID, vctx)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, res, gen)
	return res, nil
}

// ValidateBatch validates up to MaxBatchFoods foods with one profile read.
// Uncached foods are evaluated concurrently; any failure fails the batch.
func (s *ValidationService) ValidateBatch(ctx context.Context, orgID, clientID uint, foodIDs []uint, vctx models.ValidationContext) (*BatchValidationResult, error) {
	start := time.Now()
	defer s.metrics.observe("validate_batch", start)
	if err := checkContext(vctx); err != nil {
		return nil, err
	}
	switch {
	case len(foodIDs) == 0:
		return nil, InvalidArgument("foodIds", "must not be empty")
	case len(foodIDs) > MaxBatchFoods:
		return nil, InvalidArgument("foodIds", "at most %d foods per batch, got %d", MaxBatchFoods, len(foodIDs))
	}
	for _, id := range foodIDs {
		if id == 0 {
			return nil, InvalidArgument("foodIds", "contains an empty id")
		}
	}

	results := make([]*models.ValidationResult, len(foodIDs))
	gens := make([]Generation, len(foodIDs))
	var misses []int
	for i, id := range foodIDs {
		key := s.key(orgID, clientID, id, vctx)
		if res, ok := s.cache.Get(key); ok {
			s.metrics.cacheLookup(true)
			results[i] = res
			continue
		}
		s.metrics.cacheLookup(false)
		gens[i] = s.cache.Generation(key)
		misses = append(misses, i)
	}

	if len(misses) > 0 {
		profile, err := s.clients.GetClientProfile(ctx, orgID, clientID)
		if err != nil {
			return nil, err
		}

		// duplicate ids in one batch are evaluated once
		var mu sync.Mutex
		computed := make(map[uint]*models.ValidationResult, len(misses))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for _, i := range misses {
			id := foodIDs[i]
			mu.Lock()
			_, seen := computed[id]
			if !seen {
				computed[id] = nil
			}
			mu.Unlock()
			if seen {
				continue
			}
			g.Go(func() error {
				res, err := s.evaluate(gctx, orgID, profile, id, vctx)
				if err != nil {
					return err
				}
				mu.Lock()
				computed[id] = res
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, i := range misses {
			res := computed[foodIDs[i]]
			s.cache.Put(s.key(orgID, clientID, foodIDs[i], vctx), res, gens[i])
			results[i] = res.Clone()
		}
	}

	return &BatchValidationResult{
		Results:          results,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// InvalidateClientCache drops the client's cached results. Called whenever
// the client's dietary profile or meal history changes.
func (s *ValidationService) InvalidateClientCache(orgID, clientID uint) {
	n := s.cache.InvalidateClient(orgID, clientID)
	s.metrics.invalidated("client")
	s.log.Info("validation cache invalidated",
		zap.Uint("org_id", orgID), zap.Uint("client_id", clientID), zap.Int("entries", n))
}

// InvalidateClient satisfies ClientInvalidator.
func (s *ValidationService) InvalidateClient(orgID, clientID uint) {
	s.InvalidateClientCache(orgID, clientID)
}

// ClearCache drops every cached result. Callers restrict it to owners/admins.
func (s *ValidationService) ClearCache() {
	n := s.cache.ClearAll()
	s.metrics.invalidated("all")
	s.log.Info("validation cache cleared", zap.Int("entries", n))
}

func (s *ValidationService) key(orgID, clientID, foodID uint, vctx models.ValidationContext) CacheKey {
	return CacheKey{
		OrgID:    orgID,
		ClientID: clientID,
		FoodID:   foodID,
		Day:      vctx.CurrentDay,
		MealType: vctx.MealType,
		Date:     s.now().Format("2006-01-02"),
	}
}

// evaluate loads the food and the frequency history, then resolves.
func (s *ValidationService) evaluate(ctx context.Context, orgID uint, profile *models.ClientProfile, foodID uint, vctx models.ValidationContext) (*models.ValidationResult, error) {
	food, err := s.foods.GetFoodItem(ctx, orgID, foodID)
	if err != nil {
		return nil, err
	}
	history, err := s.frequencyHistory(ctx, profile, *food)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ResolveInput{
		Food:    *food,
		Profile: profile,
		Context: vctx,
		History: history,
	}), nil
}

// frequencyHistory runs the lookback queries for frequency rules whose
// target matches the food. Other rules are stateless and need none.
func (s *ValidationService) frequencyHistory(ctx context.Context, profile *models.ClientProfile, food models.FoodSnapshot) (map[int]FrequencyCounts, error) {
	var history map[int]FrequencyCounts
	now := s.now()
	today := dayStart(now)
	week := startOfWeek(now)
	for i, r := range profile.FoodRestrictions {
		rule, ok := r.Rule.(models.FrequencyRule)
		if !ok || r.Validate() != nil {
			continue
		}
		if matched, _ := matchTarget(r.Target, food); !matched {
			continue
		}
		var counts FrequencyCounts
		if rule.MaxPerDay > 0 {
			n, err := s.logs.CountMatchingFoods(ctx, profile.ClientID, r.Target, today)
			if err != nil {
				return nil, err
			}
			counts.Today = n
		}
		if rule.MaxPerWeek > 0 {
			n, err := s.logs.CountMatchingFoods(ctx, profile.ClientID, r.Target, week)
			if err != nil {
				return nil, err
			}
			counts.Week = n
		}
		if history == nil {
			history = make(map[int]FrequencyCounts)
		}
		history[i] = counts
	}
	return history, nil
}

func checkContext(vctx models.ValidationContext) error {
	if vctx.CurrentDay == "" {
		return InvalidArgument("currentDay", "is required")
	}
	if _, ok := models.ParseWeekday(string(vctx.CurrentDay)); !ok {
		return InvalidArgument("currentDay", "unknown weekday %q", vctx.CurrentDay)
	}
	if vctx.MealType == "" {
		return InvalidArgument("mealType", "is required")
	}
	if _, ok := models.ParseMealType(string(vctx.MealType)); !ok {
		return InvalidArgument("mealType", "unknown meal type %q", vctx.MealType)
	}
	return nil
}
