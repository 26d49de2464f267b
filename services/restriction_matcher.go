package services

import (
	"fmt"
	"strings"

	"github.com/OKpoorav/DietKaro-sub002/models"
)

// MatchOutcome is the verdict of one restriction against one food.
type MatchOutcome struct {
	Fired  bool
	Reason string
	// Fuzzy is set when the target matched only by name substring.
	Fuzzy bool
	// MaxGramsPerMeal is carried by quantity rules.
	MaxGramsPerMeal float64
}

// FrequencyCounts is how many matching foods the client already logged
// today and this week, for frequency rules.
type FrequencyCounts struct {
	Today int
	Week  int
}

// MatchRestriction evaluates r against food in vctx. The restriction must
// already be valid; see models.FoodRestriction.Validate.
func MatchRestriction(r models.FoodRestriction, food models.FoodSnapshot, vctx models.ValidationContext, counts FrequencyCounts) MatchOutcome {
	matched, fuzzy := matchTarget(r.Target, food)
	if !matched {
		return MatchOutcome{}
	}
	if term, ok := carvedOut(food, r.Includes); ok {
		return MatchOutcome{Reason: fmt.Sprintf("allowed by include %q", term)}
	}
	if term, ok := carvedOut(food, r.Excludes); ok {
		return MatchOutcome{Reason: fmt.Sprintf("allowed by exclude %q", term)}
	}

	label := r.Target.Label()
	switch rule := r.Rule.(type) {
	case models.AlwaysRule:
		return MatchOutcome{Fired: true, Fuzzy: fuzzy, Reason: fmt.Sprintf("%s is restricted", label)}

	case models.DayBasedRule:
		for _, d := range rule.AvoidDays {
			if strings.EqualFold(string(d), string(vctx.CurrentDay)) {
				return MatchOutcome{Fired: true, Fuzzy: fuzzy, Reason: fmt.Sprintf("%s is avoided on %s", label, vctx.CurrentDay)}
			}
		}
		return MatchOutcome{}

	case models.TimeBasedRule:
		if len(rule.AvoidMeals) > 0 {
			for _, m := range rule.AvoidMeals {
				if strings.EqualFold(string(m), string(vctx.MealType)) {
					return MatchOutcome{Fired: true, Fuzzy: fuzzy, Reason: fmt.Sprintf("%s is avoided at %s", label, vctx.MealType)}
				}
			}
			return MatchOutcome{}
		}
		if rule.AvoidAfter != nil && rule.AvoidBefore != nil &&
			inWindow(vctx.MealType.SlotTime(), *rule.AvoidAfter, *rule.AvoidBefore) {
			return MatchOutcome{Fired: true, Fuzzy: fuzzy, Reason: fmt.Sprintf("%s is avoided between %s and %s", label, rule.AvoidAfter, rule.AvoidBefore)}
		}
		return MatchOutcome{}

	case models.FrequencyRule:
		if rule.MaxPerDay > 0 && counts.Today >= int(rule.MaxPerDay) {
			return MatchOutcome{Fired: true, Fuzzy: fuzzy, Reason: fmt.Sprintf("%s already eaten %d time(s) today (max %d)", label, counts.Today, rule.MaxPerDay)}
		}
		if rule.MaxPerWeek > 0 && counts.Week >= int(rule.MaxPerWeek) {
			return MatchOutcome{Fired: true, Fuzzy: fuzzy, Reason: fmt.Sprintf("%s already eaten %d time(s) this week (max %d)", label, counts.Week, rule.MaxPerWeek)}
		}
		return MatchOutcome{}

	case models.QuantityRule:
		return MatchOutcome{
			Fired:           true,
			Fuzzy:           fuzzy,
			MaxGramsPerMeal: rule.MaxGramsPerMeal,
			Reason:          fmt.Sprintf("limit %s to %.0fg per meal", label, rule.MaxGramsPerMeal),
		}
	}
	return MatchOutcome{}
}

// matchTarget: id and category are exact (case-insensitive, category also
// checks dietary tags), name is a case-insensitive substring and fuzzy.
func matchTarget(t models.RestrictionTarget, food models.FoodSnapshot) (matched, fuzzy bool) {
	switch {
	case t.FoodID != 0:
		return food.ID == t.FoodID, false
	case t.FoodCategory != "":
		return hasCategory(food, t.FoodCategory), false
	case t.FoodName != "":
		return containsFold(food.Name, t.FoodName), true
	}
	return false, false
}

func carvedOut(food models.FoodSnapshot, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		if hasCategory(food, term) || containsFold(food.Name, term) {
			return term, true
		}
	}
	return "", false
}

func hasCategory(food models.FoodSnapshot, category string) bool {
	category = strings.TrimSpace(category)
	if strings.EqualFold(food.Category, category) {
		return true
	}
	for _, tag := range food.DietaryTags {
		if strings.EqualFold(tag, category) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	sub = strings.ToLower(strings.TrimSpace(sub))
	return sub != "" && strings.Contains(strings.ToLower(s), sub)
}

// inWindow reports whether t lies in [after, before), wrapping midnight when
// after > before.
func inWindow(t, after, before models.TimeOfDay) bool {
	x, a, b := t.Minutes(), after.Minutes(), before.Minutes()
	switch {
	case a < b:
		return x >= a && x < b
	case a > b:
		return x >= a || x < b
	}
	return false
}
