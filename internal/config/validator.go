package config

import (
	"fmt"
	"math"

	"monoscope/internal/core/errors"
)

const weightTolerance = 1e-6

// Validate rejects configuration misuse. This is the only fatal setup error
// in the pipeline: the inference core itself degrades instead of failing.
func Validate(cfg *Config) error {
	if cfg.Version < 1 {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("version must be >= 1, got %d", cfg.Version))
	}

	s := cfg.Inference.Signals
	sum := s.TableWeight + s.CallWeight + s.TokenWeight + s.EventWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("inference.signals weights must sum to 1.0, got %.6f", sum))
	}
	for name, w := range map[string]float64{
		"table_weight": s.TableWeight,
		"call_weight":  s.CallWeight,
		"token_weight": s.TokenWeight,
		"event_weight": s.EventWeight,
		"noise_floor":  s.NoiseFloor,
	} {
		if w < 0 || w > 1 {
			return errors.New(errors.CodeValidationError,
				fmt.Sprintf("inference.signals.%s must be in [0,1], got %.4f", name, w))
		}
	}

	v := cfg.Inference.Viability
	vsum := v.CohesionWeight + v.CouplingWeight + v.DataWeight
	if math.Abs(vsum-1.0) > weightTolerance {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("inference.viability weights must sum to 1.0, got %.6f", vsum))
	}
	if v.MediumViability > v.HighViability {
		return errors.New(errors.CodeValidationError,
			"inference.viability.medium_viability must not exceed high_viability")
	}
	for name, t := range map[string]float64{
		"high_viability":     v.HighViability,
		"medium_viability":   v.MediumViability,
		"small_size_penalty": v.SmallSizePenalty,
		"large_size_penalty": v.LargeSizePenalty,
	} {
		if t < 0 || t > 1 {
			return errors.New(errors.CodeValidationError,
				fmt.Sprintf("inference.viability.%s must be in [0,1], got %.4f", name, t))
		}
	}

	c := cfg.Inference.Consolidation
	for name, t := range map[string]float64{
		"evidence_threshold":      c.EvidenceThreshold,
		"strong_table_jaccard":    c.StrongTableJaccard,
		"strong_call_density":     c.StrongCallDensity,
		"strong_token_similarity": c.StrongTokenSimilarity,
		"high_token_similarity":   c.HighTokenSimilarity,
		"support_ratio":           c.SupportRatio,
		"significant_infra_ratio": c.SignificantInfraRatio,
		"strong_cohesion":         c.StrongCohesion,
		"strong_coupling_max":     c.StrongCouplingMax,
	} {
		if t < 0 || t > 1 {
			return errors.New(errors.CodeValidationError,
				fmt.Sprintf("inference.consolidation.%s must be in [0,1], got %.4f", name, t))
		}
	}
	if c.MaxSizeWithoutHighSimilarity < 1 {
		return errors.New(errors.CodeValidationError,
			"inference.consolidation.max_size_without_high_similarity must be >= 1")
	}
	if c.MinStrongSignals < 1 || c.MinStrongSignals > 4 {
		return errors.New(errors.CodeValidationError,
			"inference.consolidation.min_strong_signals must be between 1 and 4")
	}

	if cfg.Watch.RateLimit < 0 {
		return errors.New(errors.CodeValidationError, "watch.rate_limit must not be negative")
	}

	return nil
}
