package services

import (
	"context"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"go.uber.org/zap"
)

// MealLogService runs the meal-log mutations that change compliance. Each
// one writes the row conditionally on its version and then rescores it.
type MealLogService struct {
	logs       MealLogStore
	photos     *PhotoService
	compliance *ComplianceService
	log        *zap.Logger
	now        func() time.Time
}

func NewMealLogService(logs MealLogStore, photos *PhotoService, compliance *ComplianceService, log *zap.Logger) *MealLogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MealLogService{logs: logs, photos: photos, compliance: compliance, log: log, now: time.Now}
}

type StatusUpdate struct {
	Status                models.MealLogStatus `json:"status" binding:"required"`
	ClientNotes           *string              `json:"clientNotes"`
	ChosenOptionGroup     *int                 `json:"chosenOptionGroup"`
	SubstituteCaloriesEst *float64             `json:"substituteCaloriesEst"`
}

type ReviewInput struct {
	OverrideScore *int   `json:"overrideScore"`
	Note          string `json:"note"`
}

// UpdateStatus records what the client did with a meal.
func (s *MealLogService) UpdateStatus(ctx context.Context, orgID, mealLogID uint, in StatusUpdate) (models.ComplianceResult, error) {
	if !in.Status.Valid() {
		return models.ComplianceResult{}, InvalidArgument("status", "unknown status %q", in.Status)
	}
	if in.ChosenOptionGroup != nil && *in.ChosenOptionGroup < 0 {
		return models.ComplianceResult{}, InvalidArgument("chosenOptionGroup", "must not be negative")
	}
	if in.SubstituteCaloriesEst != nil && *in.SubstituteCaloriesEst < 0 {
		return models.ComplianceResult{}, InvalidArgument("substituteCaloriesEst", "must not be negative")
	}
	return s.mutate(ctx, orgID, mealLogID, func(l *models.MealLog) {
		l.Status = in.Status
		if in.Status == models.StatusPending {
			l.LoggedAt = nil
		} else if l.LoggedAt == nil {
			now := s.now()
			l.LoggedAt = &now
		}
		if in.ClientNotes != nil {
			l.ClientNotes = in.ClientNotes
		}
		l.ChosenOptionGroup = in.ChosenOptionGroup
		l.SubstituteCaloriesEst = nil
		if in.Status == models.StatusSubstituted {
			l.SubstituteCaloriesEst = in.SubstituteCaloriesEst
		}
	})
}

// AttachPhoto uploads a meal photo. The upload happens once; only the row
// write is repeated when it races another update.
func (s *MealLogService) AttachPhoto(ctx context.Context, orgID, mealLogID uint, dataURI string) (models.ComplianceResult, error) {
	if _, err := s.logs.GetMealLog(ctx, orgID, mealLogID); err != nil {
		return models.ComplianceResult{}, err
	}
	photo, err := s.photos.Store(ctx, orgID, mealLogID, dataURI)
	if err != nil {
		return models.ComplianceResult{}, err
	}
	return s.mutate(ctx, orgID, mealLogID, func(l *models.MealLog) {
		l.MealPhotoURL = &photo.URL
		l.PhotoLabels = photo.Labels
	})
}

// Review stores a dietitian's note and optional score override. A nil
// override clears a previous one.
func (s *MealLogService) Review(ctx context.Context, orgID, mealLogID uint, in ReviewInput) (models.ComplianceResult, error) {
	if in.OverrideScore != nil && (*in.OverrideScore < 0 || *in.OverrideScore > 100) {
		return models.ComplianceResult{}, InvalidArgument("overrideScore", "must be between 0 and 100")
	}
	return s.mutate(ctx, orgID, mealLogID, func(l *models.MealLog) {
		now := s.now()
		l.DietitianOverrideScore = in.OverrideScore
		l.DietitianNote = in.Note
		l.ReviewedAt = &now
	})
}

// mutate applies change to the current row and saves it conditionally,
// rereading on conflict, then rescores.
func (s *MealLogService) mutate(ctx context.Context, orgID, mealLogID uint, change func(*models.MealLog)) (models.ComplianceResult, error) {
	var saved bool
	for attempt := 1; attempt <= maxScoreAttempts && !saved; attempt++ {
		l, err := s.logs.GetMealLog(ctx, orgID, mealLogID)
		if err != nil {
			return models.ComplianceResult{}, err
		}
		change(l)
		err = s.logs.SaveMealLog(ctx, l)
		switch {
		case err == nil:
			saved = true
		case KindOf(err) == KindConflict:
			s.log.Warn("meal log update conflict, retrying",
				zap.Uint("meal_log_id", mealLogID), zap.Int("attempt", attempt))
		default:
			return models.ComplianceResult{}, err
		}
	}
	if !saved {
		return models.ComplianceResult{}, &Error{Kind: KindConflict, Msg: "meal log is being updated concurrently"}
	}
	return s.compliance.ScoreMeal(ctx, orgID, mealLogID)
}
