package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"talent-match/internal/domain/catalog"
	"talent-match/internal/domain/profile"
)

// Weights split the 0-100 scale between the sub-scores. Defaults: required
// skills dominate (60), optional skills 15, eligibility margin 15, freshness
// tie-break 10. Freshness only reorders ties; the eligibility gate has already
// run by the time it is added.
type Weights struct {
	Required  float64
	Optional  float64
	Margin    float64
	Freshness float64

	// MarginCapYears caps the experience margin bonus.
	MarginCapYears float64
	// FreshnessWindow is the age past which a target earns no freshness.
	FreshnessWindow time.Duration
}

func DefaultWeights() Weights {
	return Weights{
		Required:        60,
		Optional:        15,
		Margin:          15,
		Freshness:       10,
		MarginCapYears:  5,
		FreshnessWindow: 30 * 24 * time.Hour,
	}
}

// Tier thresholds. Pairs below TierLowMin are discarded: no Recommendation
// record is created for them.
const (
	TierHighMin   = 80.0
	TierMediumMin = 50.0
	TierLowMin    = 20.0

	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

type Result struct {
	Eligible bool
	// Score is on the external 0-100 scale.
	Score float64
	// Tier is "" when the pair is ineligible or below the discard threshold.
	Tier          string
	Reasons       []string
	MatchedSkills []string
}

// Score computes the match between a canonical profile and one target.
// The hard eligibility gate runs first and short-circuits to score 0.
// Reasons and MatchedSkills are derivable by re-running the same comparison.
func Score(p profile.Profile, t catalog.Target, w Weights, now time.Time) Result {
	if !eligible(p, t) {
		return Result{}
	}

	bySkill := make(map[string]profile.SkillLevel, len(p.Skills))
	for _, s := range p.Skills {
		if !s.Canonical {
			continue
		}
		name := strings.ToLower(s.Name)
		if lvl, ok := bySkill[name]; !ok || s.Level > lvl {
			bySkill[name] = s.Level
		}
	}

	var total float64
	reasons := make([]string, 0, 4)
	matched := make([]string, 0, len(t.RequiredSkills)+len(t.OptionalSkills))

	reqMatched := 0
	for _, r := range t.RequiredSkills {
		lvl, ok := bySkill[strings.ToLower(r.Name)]
		if ok && lvl >= r.Level {
			reqMatched++
			matched = append(matched, strings.ToLower(r.Name))
		}
	}
	if n := len(t.RequiredSkills); n > 0 {
		total += float64(reqMatched) / float64(n) * w.Required
		reasons = append(reasons, fmt.Sprintf("Matched %d/%d required skills", reqMatched, n))
	} else {
		// No required skills listed: the section is trivially satisfied.
		total += w.Required
	}

	optMatched := 0
	for _, r := range t.OptionalSkills {
		if _, ok := bySkill[strings.ToLower(r.Name)]; ok {
			optMatched++
			matched = append(matched, strings.ToLower(r.Name))
		}
	}
	if n := len(t.OptionalSkills); n > 0 {
		total += float64(optMatched) / float64(n) * w.Optional
		reasons = append(reasons, fmt.Sprintf("Matched %d/%d optional skills", optMatched, n))
	}

	margin, marginReasons := marginBonus(p, t, w)
	total += margin
	reasons = append(reasons, marginReasons...)

	total += freshness(t, w, now)

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return Result{
		Eligible:      true,
		Score:         total,
		Tier:          tierFor(total),
		Reasons:       reasons,
		MatchedSkills: matched,
	}
}

func eligible(p profile.Profile, t catalog.Target) bool {
	if t.MinCGPA != nil {
		cgpa := p.BestCGPA()
		if cgpa == nil || *cgpa < *t.MinCGPA {
			return false
		}
	}
	if t.Type == catalog.TargetJob && t.MinExperienceYears > 0 {
		if p.TotalExperienceYears() < t.MinExperienceYears {
			return false
		}
	}
	// Lower rank number is better; the check only applies when both sides
	// are present.
	if t.Type == catalog.TargetCollegeProgram && t.MinJEERank != nil && p.JEERank != nil {
		if *p.JEERank > *t.MinJEERank {
			return false
		}
	}
	return true
}

func marginBonus(p profile.Profile, t catalog.Target, w Weights) (float64, []string) {
	cap := w.MarginCapYears
	if cap <= 0 {
		cap = 1
	}

	ratios := make([]float64, 0, 2)
	reasons := make([]string, 0, 2)

	if t.Type == catalog.TargetJob && t.MinExperienceYears > 0 {
		extra := p.TotalExperienceYears() - t.MinExperienceYears
		r := extra / cap
		if r > 1 {
			r = 1
		}
		if r < 0 {
			r = 0
		}
		ratios = append(ratios, r)
		if years := int(math.Floor(extra)); years >= 1 {
			reasons = append(reasons, fmt.Sprintf("Exceeds minimum experience by %d years", years))
		}
	}

	if t.MinCGPA != nil && *t.MinCGPA < 10 {
		if cgpa := p.BestCGPA(); cgpa != nil {
			r := (*cgpa - *t.MinCGPA) / (10 - *t.MinCGPA)
			if r > 1 {
				r = 1
			}
			if r < 0 {
				r = 0
			}
			ratios = append(ratios, r)
			if *cgpa > *t.MinCGPA {
				reasons = append(reasons, fmt.Sprintf("CGPA %.1f exceeds minimum %.1f", *cgpa, *t.MinCGPA))
			}
		}
	}

	if len(ratios) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	return sum / float64(len(ratios)) * w.Margin, reasons
}

func freshness(t catalog.Target, w Weights, now time.Time) float64 {
	if t.FreshnessAt == nil || w.FreshnessWindow <= 0 {
		return 0
	}
	age := now.Sub(*t.FreshnessAt)
	if age < 0 {
		age = 0
	}
	if age >= w.FreshnessWindow {
		return 0
	}
	return w.Freshness * (1 - float64(age)/float64(w.FreshnessWindow))
}

// tierFor buckets a score; "" means discard.
func tierFor(score float64) string {
	switch {
	case score >= TierHighMin:
		return TierHigh
	case score >= TierMediumMin:
		return TierMedium
	case score >= TierLowMin:
		return TierLow
	default:
		return ""
	}
}
