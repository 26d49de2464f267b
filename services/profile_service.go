package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var profileValidate *validator.Validate

func init() {
	profileValidate = validator.New()
	// report json names so the caller sees the field it sent
	profileValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// DietaryProfileInput replaces every dietary field of a client.
type DietaryProfileInput struct {
	Allergies         []string                 `json:"allergies" validate:"max=50,dive,required,max=64"`
	Intolerances      []string                 `json:"intolerances" validate:"max=50,dive,required,max=64"`
	DietPattern       string                   `json:"dietPattern" validate:"omitempty,oneof=vegan vegetarian eggetarian pescatarian jain non_vegetarian"`
	EggAllowed        bool                     `json:"eggAllowed"`
	FoodRestrictions  []models.FoodRestriction `json:"foodRestrictions" validate:"max=100"`
	Dislikes          []string                 `json:"dislikes" validate:"max=100,dive,required,max=64"`
	LikedFoods        []string                 `json:"likedFoods" validate:"max=100,dive,required,max=64"`
	PreferredCuisines []string                 `json:"preferredCuisines" validate:"max=20,dive,required,max=64"`
}

// Validate reports the first invalid field as an InvalidArgument error.
func (in *DietaryProfileInput) Validate() error {
	if err := profileValidate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "DietaryProfileInput.")
			return InvalidArgument(field, "failed %q validation", fe.Tag())
		}
		return InvalidArgument("profile", "%v", err)
	}
	for i, r := range in.FoodRestrictions {
		if err := r.Validate(); err != nil {
			return InvalidArgument(fmt.Sprintf("foodRestrictions[%d]", i), "%v", err)
		}
	}
	return nil
}

type ProfileService struct {
	clients    ClientProfileStore
	validation *ValidationService
	log        *zap.Logger
}

func NewProfileService(clients ClientProfileStore, validation *ValidationService, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{clients: clients, validation: validation, log: log}
}

// UpdateDietaryProfile stores in as the client's profile and drops the
// client's cached validations.
func (s *ProfileService) UpdateDietaryProfile(ctx context.Context, orgID, clientID uint, in DietaryProfileInput) (*models.ClientProfile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	profile := &models.ClientProfile{
		ClientID:          clientID,
		OrgID:             orgID,
		Allergies:         nonNil(in.Allergies),
		Intolerances:      nonNil(in.Intolerances),
		DietPattern:       strings.ToLower(in.DietPattern),
		EggAllowed:        in.EggAllowed,
		FoodRestrictions:  in.FoodRestrictions,
		Dislikes:          nonNil(in.Dislikes),
		LikedFoods:        nonNil(in.LikedFoods),
		PreferredCuisines: nonNil(in.PreferredCuisines),
	}
	if profile.FoodRestrictions == nil {
		profile.FoodRestrictions = []models.FoodRestriction{}
	}
	if err := s.clients.UpdateDietaryProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.log.Info("dietary profile updated",
		zap.Uint("org_id", orgID),
		zap.Uint("client_id", clientID),
		zap.Int("restrictions", len(profile.FoodRestrictions)))
	s.validation.InvalidateClientCache(orgID, clientID)
	return profile, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
