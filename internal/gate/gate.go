// Package gate aggregates per-parse confidence and validator flags into the
// single decision of whether a human must review the result before it is
// treated as ground truth.
package gate

import "talent-match/internal/validate"

const (
	DefaultReviewThreshold = 0.6
	DefaultHardPenalty     = 0.25
	DefaultSoftPenalty     = 0.05
)

type Config struct {
	ReviewThreshold float64
	HardFlagPenalty float64
	SoftFlagPenalty float64
}

func DefaultConfig() Config {
	return Config{
		ReviewThreshold: DefaultReviewThreshold,
		HardFlagPenalty: DefaultHardPenalty,
		SoftFlagPenalty: DefaultSoftPenalty,
	}
}

// hardFlags force review regardless of the numeric confidence.
var hardFlags = map[string]bool{
	validate.FlagInvalidDateRange:     true,
	validate.FlagExtractionIncomplete: true,
	validate.FlagCGPAMismatchOverride: true,
}

type Decision struct {
	Confidence  float64
	NeedsReview bool
}

// Evaluate discounts the model confidence per flag class and applies the
// review threshold. Hard flags subtract more than soft flags and force
// review on their own.
func Evaluate(modelConfidence float64, flags []string, cfg Config) Decision {
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = DefaultReviewThreshold
	}
	if cfg.HardFlagPenalty <= 0 {
		cfg.HardFlagPenalty = DefaultHardPenalty
	}
	if cfg.SoftFlagPenalty <= 0 {
		cfg.SoftFlagPenalty = DefaultSoftPenalty
	}

	conf := modelConfidence
	hard := false
	for _, f := range flags {
		if hardFlags[f] {
			hard = true
			conf -= cfg.HardFlagPenalty
		} else {
			conf -= cfg.SoftFlagPenalty
		}
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return Decision{
		Confidence:  conf,
		NeedsReview: conf < cfg.ReviewThreshold || hard,
	}
}
