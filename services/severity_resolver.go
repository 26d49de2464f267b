package services

import (
	"fmt"
	"strings"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"go.uber.org/zap"
)

// FuzzyMatchConfidence is reported when the deciding alerts matched only by
// name substring, so the UI can hint at a possible false positive.
const FuzzyMatchConfidence = 0.75

// forbidden categories/tags per diet pattern
var dietPatternConflicts = map[string][]string{
	"vegan":       {"non_veg", "meat", "red_meat", "poultry", "chicken", "mutton", "beef", "pork", "fish", "seafood", "eggs", "egg", "dairy", "honey"},
	"vegetarian":  {"non_veg", "meat", "red_meat", "poultry", "chicken", "mutton", "beef", "pork", "fish", "seafood", "eggs", "egg"},
	"eggetarian":  {"non_veg", "meat", "red_meat", "poultry", "chicken", "mutton", "beef", "pork", "fish", "seafood"},
	"pescatarian": {"meat", "red_meat", "poultry", "chicken", "mutton", "beef", "pork"},
	"jain":        {"non_veg", "meat", "red_meat", "poultry", "chicken", "mutton", "beef", "pork", "fish", "seafood", "eggs", "egg", "root_vegetable", "onion", "garlic", "potato"},
}

// ResolveInput is everything needed to validate one food for one client.
type ResolveInput struct {
	Food    models.FoodSnapshot
	Profile *models.ClientProfile
	Context models.ValidationContext
	// History holds frequency counts keyed by restriction index.
	History map[int]FrequencyCounts
}

// SeverityResolver folds every triggered rule into one traffic light.
type SeverityResolver struct {
	log *zap.Logger
}

func NewSeverityResolver(log *zap.Logger) *SeverityResolver {
	return &SeverityResolver{log: log}
}

type scoredAlert struct {
	alert      models.ValidationAlert
	confidence float64
}

type resolution struct {
	severity models.Severity
	alerts   []scoredAlert
}

func (r *resolution) add(a models.ValidationAlert, fuzzy bool) {
	c := 1.0
	if fuzzy {
		c = FuzzyMatchConfidence
	}
	r.alerts = append(r.alerts, scoredAlert{alert: a, confidence: c})
	if a.Severity.Rank() > r.severity.Rank() {
		r.severity = a.Severity
	}
}

// Resolve evaluates, in order: allergies, intolerances, diet pattern, strict
// restrictions, flexible restrictions, quantity limits, dislikes and finally
// positive matches. Severity only ever rises; every alert is kept.
func (s *SeverityResolver) Resolve(in ResolveInput) *models.ValidationResult {
	p := in.Profile
	res := &resolution{severity: models.SeverityGreen}

	for _, allergy := range p.Allergies {
		if ok, fuzzy := matchTerm(in.Food, allergy, true); ok {
			res.add(models.ValidationAlert{
				Type:           models.AlertAllergy,
				Severity:       models.SeverityRed,
				Message:        fmt.Sprintf("%s conflicts with the client's %s allergy", in.Food.Name, allergy),
				Recommendation: "Do not add; choose an allergen-free alternative.",
			}, fuzzy)
		}
	}

	for _, intolerance := range p.Intolerances {
		if ok, fuzzy := matchTerm(in.Food, intolerance, true); ok {
			res.add(models.ValidationAlert{
				Type:           models.AlertIntolerance,
				Severity:       models.SeverityRed,
				Message:        fmt.Sprintf("%s conflicts with the client's %s intolerance", in.Food.Name, intolerance),
				Recommendation: "Replace with a tolerated alternative.",
			}, fuzzy)
		}
	}

	if tag, ok := dietPatternConflict(in.Food, p.DietPattern, p.EggAllowed); ok {
		res.add(models.ValidationAlert{
			Type:           models.AlertDietPattern,
			Severity:       models.SeverityRed,
			Message:        fmt.Sprintf("%s (%s) is not allowed on a %s diet", in.Food.Name, tag, strings.ToLower(p.DietPattern)),
			Recommendation: fmt.Sprintf("Pick a %s option.", strings.ToLower(p.DietPattern)),
		}, false)
	}

	var strict, flexible, quantity []int
	for i, r := range p.FoodRestrictions {
		if err := r.Validate(); err != nil {
			// a malformed rule never matches: fail closed without failing
			// the request
			s.log.Error("malformed food restriction",
				zap.Uint("client_id", p.ClientID), zap.Int("index", i), zap.Error(err))
			continue
		}
		switch {
		case r.Rule.Kind() == models.KindQuantity:
			quantity = append(quantity, i)
		case r.Severity == models.RestrictionStrict:
			strict = append(strict, i)
		default:
			flexible = append(flexible, i)
		}
	}

	for _, i := range append(strict, flexible...) {
		r := p.FoodRestrictions[i]
		out := MatchRestriction(r, in.Food, in.Context, in.History[i])
		if !out.Fired {
			continue
		}
		sev := models.SeverityYellow
		if r.Severity == models.RestrictionStrict {
			sev = models.SeverityRed
		}
		res.add(models.ValidationAlert{
			Type:           restrictionAlertType(r.Rule.Kind()),
			Severity:       sev,
			Message:        withReason(out.Reason, r.Reason),
			Recommendation: restrictionRecommendation(r.Rule.Kind()),
		}, out.Fuzzy)
	}

	for _, i := range quantity {
		r := p.FoodRestrictions[i]
		out := MatchRestriction(r, in.Food, in.Context, in.History[i])
		if !out.Fired {
			continue
		}
		res.add(models.ValidationAlert{
			Type:            models.AlertQuantityExceeded,
			Severity:        models.SeverityYellow,
			Message:         withReason(out.Reason, r.Reason),
			Recommendation:  fmt.Sprintf("Keep the serving at or below %.0fg.", out.MaxGramsPerMeal),
			MaxGramsPerMeal: out.MaxGramsPerMeal,
		}, out.Fuzzy)
	}

	for _, dislike := range p.Dislikes {
		if ok, fuzzy := matchTerm(in.Food, dislike, false); ok {
			res.add(models.ValidationAlert{
				Type:           models.AlertDislike,
				Severity:       models.SeverityYellow,
				Message:        fmt.Sprintf("The client dislikes %s", dislike),
				Recommendation: "Consider an alternative the client enjoys.",
			}, fuzzy)
		}
	}

	if len(res.alerts) == 0 {
		for _, liked := range p.LikedFoods {
			if ok, _ := matchTerm(in.Food, liked, false); ok {
				res.add(models.ValidationAlert{
					Type:     models.AlertPreferenceMatch,
					Severity: models.SeverityGreen,
					Message:  fmt.Sprintf("Matches the client's liked food %s", liked),
				}, false)
				break
			}
		}
		for _, cuisine := range p.PreferredCuisines {
			if strings.EqualFold(in.Food.Cuisine, strings.TrimSpace(cuisine)) || hasCategory(in.Food, cuisine) {
				res.add(models.ValidationAlert{
					Type:     models.AlertCuisineMatch,
					Severity: models.SeverityGreen,
					Message:  fmt.Sprintf("Matches the client's preferred %s cuisine", cuisine),
				}, false)
				break
			}
		}
	}

	return res.result(in.Food)
}

func (r *resolution) result(food models.FoodSnapshot) *models.ValidationResult {
	out := &models.ValidationResult{
		FoodID:          food.ID,
		FoodName:        food.Name,
		Severity:        r.severity,
		CanAdd:          r.severity != models.SeverityRed,
		ConfidenceScore: 1.0,
		Alerts:          make([]models.ValidationAlert, 0, len(r.alerts)),
	}
	best := 0.0
	for _, a := range r.alerts {
		out.Alerts = append(out.Alerts, a.alert)
		if a.alert.Severity == r.severity && a.confidence > best {
			best = a.confidence
		}
	}
	if r.severity != models.SeverityGreen {
		out.ConfidenceScore = best
	}
	return out
}

// matchTerm matches a client term (allergy, intolerance, dislike...) against
// a food. Category, tag and allergen-flag hits are exact; category and name
// substring hits are fuzzy.
func matchTerm(food models.FoodSnapshot, term string, checkAllergens bool) (matched, fuzzy bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return false, false
	}
	if checkAllergens {
		for _, flag := range food.AllergenFlags {
			if strings.EqualFold(flag, term) {
				return true, false
			}
		}
	}
	if hasCategory(food, term) {
		return true, false
	}
	if containsFold(food.Category, term) || containsFold(food.Name, term) {
		return true, true
	}
	return false, false
}

func dietPatternConflict(food models.FoodSnapshot, pattern string, eggAllowed bool) (string, bool) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "vegetarian" && eggAllowed {
		pattern = "eggetarian"
	}
	for _, tag := range dietPatternConflicts[pattern] {
		if hasCategory(food, tag) {
			return tag, true
		}
	}
	return "", false
}

func restrictionAlertType(k models.RestrictionKind) models.AlertType {
	switch k {
	case models.KindDayBased:
		return models.AlertDayBasedRestriction
	case models.KindTimeBased:
		return models.AlertTimeBasedRestrict
	case models.KindFrequency:
		return models.AlertFrequencyExceeded
	case models.KindQuantity:
		return models.AlertQuantityExceeded
	default:
		return models.AlertFoodRestriction
	}
}

func restrictionRecommendation(k models.RestrictionKind) string {
	switch k {
	case models.KindDayBased:
		return "Schedule this food on another day."
	case models.KindTimeBased:
		return "Move this food to another meal."
	case models.KindFrequency:
		return "Pick a different food for this meal."
	default:
		return "Choose an alternative."
	}
}

func withReason(msg, reason string) string {
	if reason == "" {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, strings.ReplaceAll(reason, "_", " "))
}
