package services

import (
	"context"
	"sync"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"go.uber.org/zap"
)

// MaxHistoryDays bounds complianceHistory.
const MaxHistoryDays = 365

// AdherenceService aggregates stored compliance scores into daily, weekly
// and trailing-window views. It never writes meal logs.
type AdherenceService struct {
	logs       MealLogStore
	scorer     *ComplianceScorer
	hysteresis float64
	loc        *time.Location
	now        func() time.Time
	cache      *dayCache
	log        *zap.Logger
}

type AdherenceDeps struct {
	Logs       MealLogStore
	Scorer     *ComplianceScorer
	Hysteresis float64
	Location   *time.Location
	// CacheTTL caches days before today. Zero disables caching.
	CacheTTL time.Duration
	Now      func() time.Time
	Log      *zap.Logger
}

func NewAdherenceService(d AdherenceDeps) *AdherenceService {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &AdherenceService{
		logs:       d.Logs,
		scorer:     d.Scorer,
		hysteresis: d.Hysteresis,
		loc:        d.Location,
		now:        d.Now,
		cache:      newDayCache(d.CacheTTL, d.Now),
		log:        d.Log,
	}
}

// Daily scores one calendar day of a client.
func (s *AdherenceService) Daily(ctx context.Context, orgID, clientID uint, date time.Time) (*models.DailyAdherence, error) {
	days, err := s.days(ctx, orgID, clientID, dayStart(date.In(s.loc)), 1)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

// Weekly scores the seven days starting at weekStart, or the current
// Monday-based week when weekStart is nil.
func (s *AdherenceService) Weekly(ctx context.Context, orgID, clientID uint, weekStart *time.Time) (*models.WeeklyAdherence, error) {
	start := startOfWeek(s.now().In(s.loc))
	if weekStart != nil {
		start = dayStart(weekStart.In(s.loc))
	}
	days, err := s.days(ctx, orgID, clientID, start, 7)
	if err != nil {
		return nil, err
	}

	var scores []float64
	for _, d := range days {
		if d.Score != nil {
			scores = append(scores, *d.Score)
		}
	}
	out := &models.WeeklyAdherence{
		WeekStart:      start.Format(dateLayout),
		WeekEnd:        start.AddDate(0, 0, 6).Format(dateLayout),
		DailyBreakdown: days,
		Trend:          classifyTrend(scores, s.hysteresis),
	}
	if len(scores) > 0 {
		avg := round2(mean(scores))
		color := s.scorer.Color(avg)
		out.AverageScore, out.Color = &avg, &color
	}
	return out, nil
}

// History scores the trailing window of n days ending today.
func (s *AdherenceService) History(ctx context.Context, orgID, clientID uint, n int) (*models.ComplianceHistory, error) {
	if n < 1 || n > MaxHistoryDays {
		return nil, InvalidArgument("days", "must be between 1 and %d, got %d", MaxHistoryDays, n)
	}
	today := dayStart(s.now().In(s.loc))
	days, err := s.days(ctx, orgID, clientID, today.AddDate(0, 0, -(n-1)), n)
	if err != nil {
		return nil, err
	}

	out := &models.ComplianceHistory{Data: days}
	var scores []float64
	for _, d := range days {
		if d.Score == nil {
			continue
		}
		scores = append(scores, *d.Score)
		// strict comparisons keep the earliest day on ties
		if out.BestDay == nil || *d.Score > out.BestDay.Score {
			out.BestDay = &models.DayScore{Date: d.Date, Score: *d.Score}
		}
		if out.WorstDay == nil || *d.Score < out.WorstDay.Score {
			out.WorstDay = &models.DayScore{Date: d.Date, Score: *d.Score}
		}
	}
	if len(scores) > 0 {
		avg := round2(mean(scores))
		out.AverageScore = &avg
	}
	return out, nil
}

// InvalidateClient drops the cached days of a client.
func (s *AdherenceService) InvalidateClient(orgID, clientID uint) {
	s.cache.dropClient(orgID, clientID)
}

// days computes n consecutive days from start. Cached past days are reused;
// the rest is fetched with one range query.
func (s *AdherenceService) days(ctx context.Context, orgID, clientID uint, start time.Time, n int) ([]models.DailyAdherence, error) {
	today := dayStart(s.now().In(s.loc))
	out := make([]models.DailyAdherence, n)
	missing := make([]bool, n)
	first, last := -1, -1
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i)
		if day.Before(today) {
			if d, ok := s.cache.get(orgID, clientID, day.Format(dateLayout)); ok {
				out[i] = d
				continue
			}
		}
		missing[i] = true
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return out, nil
	}

	from := start.AddDate(0, 0, first)
	to := start.AddDate(0, 0, last+1)
	logs, err := s.logs.ListMealLogs(ctx, orgID, clientID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string][]models.MealLog)
	for _, l := range logs {
		k := l.ScheduledDate.In(s.loc).Format(dateLayout)
		byDay[k] = append(byDay[k], l)
	}

	for i := first; i <= last; i++ {
		if !missing[i] {
			continue
		}
		day := start.AddDate(0, 0, i)
		key := day.Format(dateLayout)
		out[i] = s.daily(key, byDay[key], day.Before(today))
		if day.Before(today) {
			s.cache.put(orgID, clientID, key, out[i])
		}
	}
	return out, nil
}

// daily folds one day's logs. Pending meals count as 0 once the day is
// past and are left out before that.
func (s *AdherenceService) daily(date string, logs []models.MealLog, past bool) models.DailyAdherence {
	d := models.DailyAdherence{
		Date:          date,
		MealsPlanned:  len(logs),
		MealBreakdown: make([]models.MealAdherence, 0, len(logs)),
	}
	var scores []float64
	for _, l := range logs {
		m := models.MealAdherence{
			MealLogID: l.ID,
			MealType:  l.MealType,
			Status:    l.Status,
			Score:     l.ComplianceScore,
			Color:     l.ComplianceColor,
			Issues:    append([]string{}, l.ComplianceIssues...),
		}
		switch {
		case l.Status == models.StatusPending && past:
			m.Counted = true
			scores = append(scores, 0)
		case l.Status != models.StatusPending && l.ComplianceScore != nil:
			m.Counted = true
			scores = append(scores, float64(*l.ComplianceScore))
		}
		if l.Status != models.StatusPending {
			d.MealsLogged++
		}
		d.MealBreakdown = append(d.MealBreakdown, m)
	}
	if len(scores) > 0 {
		score := round2(mean(scores))
		color := s.scorer.Color(score)
		d.Score, d.Color = &score, &color
	}
	return d
}

// classifyTrend compares the mean of the first half of scores with the mean
// of the second half. With an odd count the middle score is ignored.
func classifyTrend(scores []float64, hysteresis float64) models.Trend {
	half := len(scores) / 2
	if half == 0 {
		return models.TrendStable
	}
	first := mean(scores[:half])
	second := mean(scores[len(scores)-half:])
	switch {
	case second-first > hysteresis:
		return models.TrendImproving
	case first-second > hysteresis:
		return models.TrendDeclining
	}
	return models.TrendStable
}

type dayKey struct {
	orgID    uint
	clientID uint
	date     string
}

type cachedDay struct {
	day     models.DailyAdherence
	expires time.Time
}

// dayCache holds computed past days for a short time.
type dayCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	days map[dayKey]cachedDay
}

func newDayCache(ttl time.Duration, now func() time.Time) *dayCache {
	return &dayCache{ttl: ttl, now: now, days: make(map[dayKey]cachedDay)}
}

func (c *dayCache) get(orgID, clientID uint, date string) (models.DailyAdherence, bool) {
	if c.ttl <= 0 {
		return models.DailyAdherence{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := dayKey{orgID, clientID, date}
	e, ok := c.days[k]
	if !ok {
		return models.DailyAdherence{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.days, k)
		return models.DailyAdherence{}, false
	}
	return e.day, true
}

func (c *dayCache) put(orgID, clientID uint, date string, d models.DailyAdherence) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.days[dayKey{orgID, clientID, date}] = cachedDay{day: d, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *dayCache) dropClient(orgID, clientID uint) {
	c.mu.Lock()
	for k := range c.days {
		if k.orgID == orgID && k.clientID == clientID {
			delete(c.days, k)
		}
	}
	c.mu.Unlock()
}
