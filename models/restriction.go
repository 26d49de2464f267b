package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type RestrictionKind string

const (
	KindAlways    RestrictionKind = "always"
	KindDayBased  RestrictionKind = "day_based"
	KindTimeBased RestrictionKind = "time_based"
	KindFrequency RestrictionKind = "frequency"
	KindQuantity  RestrictionKind = "quantity"
)

// RestrictionSeverity decides how far a fired rule can escalate.
type RestrictionSeverity string

const (
	RestrictionStrict   RestrictionSeverity = "strict"
	RestrictionFlexible RestrictionSeverity = "flexible"
)

// TimeOfDay is a wall-clock time without date, encoded as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

func (t TimeOfDay) Minutes() int   { return t.Hour*60 + t.Minute }
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RestrictionTarget names what a rule applies to. Exactly one field is set.
type RestrictionTarget struct {
	FoodID       uint   `json:"foodId,omitempty"`
	FoodName     string `json:"foodName,omitempty"`
	FoodCategory string `json:"foodCategory,omitempty"`
}

func (t RestrictionTarget) count() int {
	n := 0
	if t.FoodID != 0 {
		n++
	}
	if strings.TrimSpace(t.FoodName) != "" {
		n++
	}
	if strings.TrimSpace(t.FoodCategory) != "" {
		n++
	}
	return n
}

// Label is a human readable description used in alert messages.
func (t RestrictionTarget) Label() string {
	switch {
	case t.FoodName != "":
		return t.FoodName
	case t.FoodCategory != "":
		return t.FoodCategory
	default:
		return fmt.Sprintf("food #%d", t.FoodID)
	}
}

// RestrictionRule is the closed set of restriction kinds. Only the types in
// this file implement it.
type RestrictionRule interface {
	Kind() RestrictionKind
	check() error
}

type AlwaysRule struct{}

type DayBasedRule struct {
	AvoidDays []Weekday
}

// TimeBasedRule fires on listed meal types, or, when AvoidMeals is empty,
// inside the clock window [AvoidAfter, AvoidBefore) which may wrap midnight.
type TimeBasedRule struct {
	AvoidMeals  []MealType
	AvoidAfter  *TimeOfDay
	AvoidBefore *TimeOfDay
}

type FrequencyRule struct {
	MaxPerDay  uint
	MaxPerWeek uint
}

type QuantityRule struct {
	MaxGramsPerMeal float64
}

func (AlwaysRule) Kind() RestrictionKind    { return KindAlways }
func (DayBasedRule) Kind() RestrictionKind  { return KindDayBased }
func (TimeBasedRule) Kind() RestrictionKind { return KindTimeBased }
func (FrequencyRule) Kind() RestrictionKind { return KindFrequency }
func (QuantityRule) Kind() RestrictionKind  { return KindQuantity }

func (AlwaysRule) check() error { return nil }

func (r DayBasedRule) check() error {
	if len(r.AvoidDays) == 0 {
		return errors.New("avoidDays is required for day_based")
	}
	for _, d := range r.AvoidDays {
		if _, ok := ParseWeekday(string(d)); !ok {
			return fmt.Errorf("unknown weekday %q", d)
		}
	}
	return nil
}

func (r TimeBasedRule) check() error {
	if len(r.AvoidMeals) == 0 && (r.AvoidAfter == nil || r.AvoidBefore == nil) {
		return errors.New("avoidMeals or avoidAfter/avoidBefore is required for time_based")
	}
	for _, m := range r.AvoidMeals {
		if _, ok := ParseMealType(string(m)); !ok {
			return fmt.Errorf("unknown meal type %q", m)
		}
	}
	return nil
}

func (r FrequencyRule) check() error {
	if r.MaxPerDay == 0 && r.MaxPerWeek == 0 {
		return errors.New("maxPerDay or maxPerWeek is required for frequency")
	}
	return nil
}

func (r QuantityRule) check() error {
	if r.MaxGramsPerMeal <= 0 {
		return errors.New("maxGramsPerMeal must be positive for quantity")
	}
	return nil
}

// FoodRestriction is one rule owned by a client profile.
type FoodRestriction struct {
	Target   RestrictionTarget
	Rule     RestrictionRule
	Excludes []string
	Includes []string
	Severity RestrictionSeverity
	Reason   string
}

// Validate reports the first shape problem of the restriction, or nil.
func (r FoodRestriction) Validate() error {
	switch n := r.Target.count(); {
	case n == 0:
		return errors.New("one of foodId, foodName or foodCategory is required")
	case n > 1:
		return errors.New("only one of foodId, foodName or foodCategory may be set")
	}
	if r.Rule == nil {
		return errors.New("type is required")
	}
	if r.Severity != RestrictionStrict && r.Severity != RestrictionFlexible {
		return fmt.Errorf("severity must be strict or flexible, got %q", r.Severity)
	}
	return r.Rule.check()
}

// restrictionJSON is the flat storage/wire shape of a FoodRestriction.
type restrictionJSON struct {
	FoodID          uint                `json:"foodId,omitempty"`
	FoodName        string              `json:"foodName,omitempty"`
	FoodCategory    string              `json:"foodCategory,omitempty"`
	Type            RestrictionKind     `json:"type"`
	AvoidDays       []Weekday           `json:"avoidDays,omitempty"`
	AvoidMeals      []MealType          `json:"avoidMeals,omitempty"`
	AvoidAfter      *TimeOfDay          `json:"avoidAfter,omitempty"`
	AvoidBefore     *TimeOfDay          `json:"avoidBefore,omitempty"`
	MaxPerDay       uint                `json:"maxPerDay,omitempty"`
	MaxPerWeek      uint                `json:"maxPerWeek,omitempty"`
	MaxGramsPerMeal float64             `json:"maxGramsPerMeal,omitempty"`
	Excludes        []string            `json:"excludes,omitempty"`
	Includes        []string            `json:"includes,omitempty"`
	Severity        RestrictionSeverity `json:"severity"`
	Reason          string              `json:"reason,omitempty"`
}

func (r FoodRestriction) MarshalJSON() ([]byte, error) {
	out := restrictionJSON{
		FoodID:       r.Target.FoodID,
		FoodName:     r.Target.FoodName,
		FoodCategory: r.Target.FoodCategory,
		Excludes:     r.Excludes,
		Includes:     r.Includes,
		Severity:     r.Severity,
		Reason:       r.Reason,
	}
	switch rule := r.Rule.(type) {
	case AlwaysRule:
		out.Type = KindAlways
	case DayBasedRule:
		out.Type = KindDayBased
		out.AvoidDays = rule.AvoidDays
	case TimeBasedRule:
		out.Type = KindTimeBased
		out.AvoidMeals = rule.AvoidMeals
		out.AvoidAfter = rule.AvoidAfter
		out.AvoidBefore = rule.AvoidBefore
	case FrequencyRule:
		out.Type = KindFrequency
		out.MaxPerDay = rule.MaxPerDay
		out.MaxPerWeek = rule.MaxPerWeek
	case QuantityRule:
		out.Type = KindQuantity
		out.MaxGramsPerMeal = rule.MaxGramsPerMeal
	default:
		return nil, fmt.Errorf("restriction has no rule")
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the flat shape. It does not validate kind-specific
// fields; call Validate for that.
func (r *FoodRestriction) UnmarshalJSON(b []byte) error {
	var in restrictionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = FoodRestriction{
		Target: RestrictionTarget{
			FoodID:       in.FoodID,
			FoodName:     in.FoodName,
			FoodCategory: in.FoodCategory,
		},
		Excludes: in.Excludes,
		Includes: in.Includes,
		Severity: in.Severity,
		Reason:   in.Reason,
	}
	switch in.Type {
	case KindAlways:
		r.Rule = AlwaysRule{}
	case KindDayBased:
		r.Rule = DayBasedRule{AvoidDays: in.AvoidDays}
	case KindTimeBased:
		r.Rule = TimeBasedRule{AvoidMeals: in.AvoidMeals, AvoidAfter: in.AvoidAfter, AvoidBefore: in.AvoidBefore}
	case KindFrequency:
		r.Rule = FrequencyRule{MaxPerDay: in.MaxPerDay, MaxPerWeek: in.MaxPerWeek}
	case KindQuantity:
		r.Rule = QuantityRule{MaxGramsPerMeal: in.MaxGramsPerMeal}
	default:
		return fmt.Errorf("unknown restriction type %q", in.Type)
	}
	return nil
}
