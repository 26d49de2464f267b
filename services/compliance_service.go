package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"go.uber.org/zap"
)

// maxScoreAttempts bounds the reread-and-retry loop of ScoreMeal.
const maxScoreAttempts = 3

// ComplianceNotifier is told about every successfully stored score.
type ComplianceNotifier interface {
	ComplianceScored(ctx context.Context, log *models.MealLog, res models.ComplianceResult)
}

// ClientInvalidator drops derived per-client state.
type ClientInvalidator interface {
	InvalidateClient(orgID, clientID uint)
}

type ComplianceService struct {
	logs     MealLogStore
	plans    DietPlanStore
	scorer   *ComplianceScorer
	notifier ComplianceNotifier
	derived  []ClientInvalidator
	metrics  *Metrics
	log      *zap.Logger
}

type ComplianceDeps struct {
	Logs     MealLogStore
	Plans    DietPlanStore
	Scorer   *ComplianceScorer
	Notifier ComplianceNotifier
	// Derived caches to drop after a score changes, e.g. the validation
	// cache (frequency history) and the adherence cache.
	Derived []ClientInvalidator
	Metrics *Metrics
	Log     *zap.Logger
}

func NewComplianceService(d ComplianceDeps) *ComplianceService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &ComplianceService{
		logs:     d.Logs,
		plans:    d.Plans,
		scorer:   d.Scorer,
		notifier: d.Notifier,
		derived:  d.Derived,
		metrics:  d.Metrics,
		log:      d.Log,
	}
}

// ScoreMeal re-derives the compliance of a meal log from its current row and
// stores it with a write conditional on the row version. When another writer
// got there first the row is read again and rescored.
//
// The returned result is the value that was stored. Callers use it as is and
// must not read the row back to learn the score.
func (s *ComplianceService) ScoreMeal(ctx context.Context, orgID, mealLogID uint) (models.ComplianceResult, error) {
	for attempt := 1; attempt <= maxScoreAttempts; attempt++ {
		log, err := s.logs.GetMealLog(ctx, orgID, mealLogID)
		if err != nil {
			return models.ComplianceResult{}, err
		}
		meal, targets, err := s.plannedMeal(ctx, log)
		if err != nil {
			return models.ComplianceResult{}, err
		}

		res := s.scorer.Score(log, meal, targets)
		version, err := s.logs.SaveCompliance(ctx, log.ID, log.Version, res)
		if errors.Is(err, ErrConflict) {
			s.metrics.conflict()
			s.log.Debug("compliance write lost a race, rescoring",
				zap.Uint("meal_log_id", mealLogID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return models.ComplianceResult{}, err
		}

		log.Version = version
		log.ComplianceScore, log.ComplianceColor = res.Score, res.Color
		s.after(ctx, log, res)
		return res, nil
	}
	return models.ComplianceResult{}, &Error{
		Kind: KindConflict,
		Msg:  fmt.Sprintf("meal log %d kept changing while being scored", mealLogID),
	}
}

func (s *ComplianceService) plannedMeal(ctx context.Context, log *models.MealLog) (*models.PlannedMeal, models.PlanTargets, error) {
	if log.PlannedMealID == 0 {
		return nil, models.PlanTargets{}, nil
	}
	meal, plan, err := s.plans.GetPlannedMeal(ctx, log.PlannedMealID)
	if errors.Is(err, ErrNotFound) {
		// the plan was deleted after the log was created; score the bare log
		s.log.Warn("planned meal missing for meal log",
			zap.Uint("meal_log_id", log.ID), zap.Uint("planned_meal_id", log.PlannedMealID))
		return nil, models.PlanTargets{}, nil
	}
	if err != nil {
		return nil, models.PlanTargets{}, err
	}
	return meal, plan.TargetsFor(*meal), nil
}

func (s *ComplianceService) after(ctx context.Context, log *models.MealLog, res models.ComplianceResult) {
	color := "none"
	if res.Color != nil {
		color = string(*res.Color)
	}
	s.metrics.scored(color)
	s.log.Info("meal scored",
		zap.Uint("meal_log_id", log.ID),
		zap.Uint("client_id", log.ClientID),
		zap.String("status", string(log.Status)),
		zap.String("color", color),
		zap.Strings("issues", res.Issues))

	for _, d := range s.derived {
		d.InvalidateClient(log.OrgID, log.ClientID)
	}
	if s.notifier != nil {
		s.notifier.ComplianceScored(ctx, log, res)
	}
}
