package services

import (
	"math"

	"github.com/OKpoorav/DietKaro-sub002/config"
	"github.com/OKpoorav/DietKaro-sub002/models"
)

// Issue codes attached to a compliance result.
const (
	IssueLateLog           = "late_log"
	IssueNoPhoto           = "no_photo"
	IssueOptionDeviation   = "option_deviation"
	IssueLargeSubstitution = "large_substitution"
	IssueSkipped           = "skipped"
	IssueSubstituted       = "substituted"
	IssueDietitianOverride = "dietitian_override"
)

// ComplianceScorer turns one meal log into a 0-100 score. It is pure: the
// result depends only on its arguments and the weights.
type ComplianceScorer struct {
	w config.ScoringWeights
}

func NewComplianceScorer(w config.ScoringWeights) *ComplianceScorer {
	return &ComplianceScorer{w: w}
}

// Color maps a score onto the traffic light: >= green is GREEN, >= yellow is
// YELLOW, anything lower is RED.
func (s *ComplianceScorer) Color(score float64) models.Severity {
	switch {
	case score >= float64(s.w.GreenThreshold):
		return models.SeverityGreen
	case score >= float64(s.w.YellowThreshold):
		return models.SeverityYellow
	default:
		return models.SeverityRed
	}
}

// Score derives the compliance result of log from scratch. meal may be nil
// for a log without a planned meal; calorie and option checks are skipped
// then.
func (s *ComplianceScorer) Score(log *models.MealLog, meal *models.PlannedMeal, targets models.PlanTargets) models.ComplianceResult {
	res := models.ComplianceResult{MealLogID: log.ID, Issues: []string{}}
	if log.Status == models.StatusPending || !log.Status.Valid() {
		return res
	}

	var score int
	switch log.Status {
	case models.StatusSkipped:
		score = s.w.SkippedScore
		res.Issues = append(res.Issues, IssueSkipped)

	case models.StatusSubstituted:
		score = s.w.SubstitutionBaseline
		res.Issues = append(res.Issues, IssueSubstituted)
		if ratio, ok := substitutionDelta(log, meal, targets); ok {
			score -= int(math.Round(ratio * s.w.SubstitutionDeltaWeight))
			if ratio > s.w.LargeSubstitutionRatio {
				res.Issues = append(res.Issues, IssueLargeSubstitution)
			}
		}
		score -= s.lateDeduction(log, meal, &res)
		if score < s.w.SubstitutionFloor {
			score = s.w.SubstitutionFloor
		}

	case models.StatusEaten:
		score = 100
		score -= s.lateDeduction(log, meal, &res)
		if log.ChosenOptionGroup != nil && *log.ChosenOptionGroup != 0 {
			score -= s.w.OptionDeviationPenalty
			res.Issues = append(res.Issues, IssueOptionDeviation)
		}
		if targets.RequirePhoto && (log.MealPhotoURL == nil || *log.MealPhotoURL == "") {
			score -= s.w.NoPhotoPenalty
			res.Issues = append(res.Issues, IssueNoPhoto)
		}
	}

	if log.DietitianOverrideScore != nil {
		score = *log.DietitianOverrideScore
		res.Issues = append(res.Issues, IssueDietitianOverride)
	}
	score = clampScore(score)
	color := s.Color(float64(score))
	res.Score = &score
	res.Color = &color
	return res
}

func (s *ComplianceScorer) lateDeduction(log *models.MealLog, meal *models.PlannedMeal, res *models.ComplianceResult) int {
	if log.LoggedAt == nil {
		return 0
	}
	if log.LoggedAt.Sub(log.DueAt(meal)) <= s.w.LateLogGrace {
		return 0
	}
	res.Issues = append(res.Issues, IssueLateLog)
	return s.w.LateLogPenalty
}

// substitutionDelta is |substitute - planned| / planned. ok is false when
// either side is unknown.
func substitutionDelta(log *models.MealLog, meal *models.PlannedMeal, targets models.PlanTargets) (float64, bool) {
	if log.SubstituteCaloriesEst == nil {
		return 0, false
	}
	planned := targets.MealCalories
	if meal != nil {
		if c := meal.OptionCalories(0); c > 0 {
			planned = c
		}
	}
	if planned <= 0 {
		return 0, false
	}
	return math.Abs(*log.SubstituteCaloriesEst-planned) / planned, true
}

func clampScore(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
