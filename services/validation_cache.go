package services

import (
	"sync"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"
)

// CacheKey identifies one validation. The full ValidationContext is part of
// the key: the same food can be RED on Tuesday and GREEN on Wednesday. Date
// is the calendar day the result was computed on; frequency rules count
// meals eaten today and this week, so a result never outlives its day.
type CacheKey struct {
	OrgID    uint
	ClientID uint
	FoodID   uint
	Day      models.Weekday
	MealType models.MealType
	Date     string
}

type clientKey struct {
	orgID    uint
	clientID uint
}

func (k CacheKey) client() clientKey { return clientKey{k.OrgID, k.ClientID} }

type cacheEntry struct {
	result   *models.ValidationResult
	storedAt time.Time
}

// ValidationCache memoizes validation results per client.
//
// Every client has a generation counter that InvalidateClient and ClearAll
// advance. A writer snapshots the generation before reading the profile and
// hands it to Put; Put drops the write if the generation moved meanwhile, so
// a computation that raced an invalidation can never resurrect a stale entry.
type ValidationCache struct {
	mu      sync.Mutex
	entries map[clientKey]map[CacheKey]cacheEntry
	dates   map[clientKey]string
	gens    map[clientKey]uint64
	epoch   uint64
	maxAge  time.Duration
	now     func() time.Time
}

type CacheOption func(*ValidationCache)

// WithMaxAge bounds entry lifetime. Zero, the default, keeps entries until
// they are invalidated.
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *ValidationCache) { c.maxAge = d }
}

func withCacheClock(now func() time.Time) CacheOption {
	return func(c *ValidationCache) { c.now = now }
}

func NewValidationCache(opts ...CacheOption) *ValidationCache {
	c := &ValidationCache{
		entries: make(map[clientKey]map[CacheKey]cacheEntry),
		dates:   make(map[clientKey]string),
		gens:    make(map[clientKey]uint64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generation is an opaque token for Put.
type Generation struct {
	epoch uint64
	gen   uint64
}

// Generation returns the current generation of the key's client.
func (c *ValidationCache) Generation(key CacheKey) Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Generation{epoch: c.epoch, gen: c.gens[key.client()]}
}

// Get returns a copy of the cached result.
func (c *ValidationCache) Get(key CacheKey) (*models.ValidationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.client()][key]
	if !ok {
		return nil, false
	}
	if c.maxAge > 0 && c.now().Sub(e.storedAt) > c.maxAge {
		delete(c.entries[key.client()], key)
		return nil, false
	}
	return e.result.Clone(), true
}

// Put stores result unless the client was invalidated after gen was taken.
// It reports whether the entry was stored. The first Put of a new Date drops
// the client's entries of earlier dates.
func (c *ValidationCache) Put(key CacheKey, result *models.ValidationResult, gen Generation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ck := key.client()
	if gen.epoch != c.epoch || gen.gen != c.gens[ck] {
		return false
	}
	bucket := c.entries[ck]
	if bucket == nil || c.dates[ck] != key.Date {
		bucket = make(map[CacheKey]cacheEntry)
		c.entries[ck] = bucket
		c.dates[ck] = key.Date
	}
	bucket[key] = cacheEntry{result: result.Clone(), storedAt: c.now()}
	return true
}

// InvalidateClient drops every entry of one client and returns how many.
func (c *ValidationCache) InvalidateClient(orgID, clientID uint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ck := clientKey{orgID, clientID}
	n := len(c.entries[ck])
	delete(c.entries, ck)
	delete(c.dates, ck)
	c.gens[ck]++
	return n
}

// ClearAll drops the whole cache and returns how many entries it held.
func (c *ValidationCache) ClearAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	c.entries = make(map[clientKey]map[CacheKey]cacheEntry)
	c.dates = make(map[clientKey]string)
	c.epoch++
	return n
}

// Len returns the number of cached results.
func (c *ValidationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}
