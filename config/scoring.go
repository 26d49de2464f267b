package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScoringWeights holds the business-tunable constants of compliance scoring
// and adherence trend detection.
type ScoringWeights struct {
	GreenThreshold  int `yaml:"green_threshold"`
	YellowThreshold int `yaml:"yellow_threshold"`

	LateLogGrace           time.Duration `yaml:"late_log_grace"`
	LateLogPenalty         int           `yaml:"late_log_penalty"`
	NoPhotoPenalty         int           `yaml:"no_photo_penalty"`
	OptionDeviationPenalty int           `yaml:"option_deviation_penalty"`

	SkippedScore int `yaml:"skipped_score"`

	// Substituted meals start at SubstitutionBaseline and lose
	// SubstitutionDeltaWeight points per 100% calorie delta from the plan.
	SubstitutionBaseline    int     `yaml:"substitution_baseline"`
	SubstitutionDeltaWeight float64 `yaml:"substitution_delta_weight"`
	SubstitutionFloor       int     `yaml:"substitution_floor"`
	LargeSubstitutionRatio  float64 `yaml:"large_substitution_ratio"`

	TrendHysteresis float64 `yaml:"trend_hysteresis"`
}

func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		GreenThreshold:          80,
		YellowThreshold:         50,
		LateLogGrace:            3 * time.Hour,
		LateLogPenalty:          10,
		NoPhotoPenalty:          15,
		OptionDeviationPenalty:  5,
		SkippedScore:            10,
		SubstitutionBaseline:    85,
		SubstitutionDeltaWeight: 50,
		SubstitutionFloor:       40,
		LargeSubstitutionRatio:  0.3,
		TrendHysteresis:         5,
	}
}

// LoadScoringWeights overlays the YAML file at path on the defaults.
func LoadScoringWeights(path string) (ScoringWeights, error) {
	w := DefaultScoringWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("unable to read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("unable to parse scoring config: %w", err)
	}
	if w.YellowThreshold >= w.GreenThreshold {
		return w, fmt.Errorf("yellow_threshold (%d) must be below green_threshold (%d)", w.YellowThreshold, w.GreenThreshold)
	}
	return w, nil
}
