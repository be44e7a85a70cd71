package scoring

import (
	"strings"
	"testing"
	"time"

	"talent-match/internal/domain/catalog"
	"talent-match/internal/domain/profile"

	"github.com/google/uuid"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func canonicalSkill(name string, level profile.SkillLevel) profile.Skill {
	return profile.Skill{Name: name, Level: level, Canonical: true}
}

func TestScore_RequiredAndOptionalCoverage(t *testing.T) {
	p := profile.Profile{
		Personal: profile.Personal{Name: "A"},
		Skills: []profile.Skill{
			canonicalSkill("python", profile.LevelAdvanced),
			canonicalSkill("sql", profile.LevelIntermediate),
		},
	}
	now := time.Now().UTC()
	job := catalog.Target{
		ID:   uuid.New(),
		Type: catalog.TargetJob,
		Name: "Backend Engineer",
		RequiredSkills: []catalog.SkillRequirement{
			{Name: "python", Level: profile.LevelIntermediate},
			{Name: "react", Level: profile.LevelBasic},
		},
		OptionalSkills: []catalog.SkillRequirement{
			{Name: "sql", Level: profile.LevelBasic},
		},
		FreshnessAt: &now,
	}

	res := Score(p, job, DefaultWeights(), now)
	if !res.Eligible {
		t.Fatalf("expected eligible")
	}
	if !containsReason(res.Reasons, "Matched 1/2 required skills") {
		t.Fatalf("missing required-skill reason, got %v", res.Reasons)
	}
	if !containsReason(res.Reasons, "Matched 1/1 optional skills") {
		t.Fatalf("missing optional-skill reason, got %v", res.Reasons)
	}
	if res.Score <= TierMediumMin || res.Score >= TierHighMin {
		t.Fatalf("expected medium-band score, got %v", res.Score)
	}
	if res.Tier != TierMedium {
		t.Fatalf("expected medium tier, got %q", res.Tier)
	}
	if len(res.MatchedSkills) != 2 {
		t.Fatalf("expected 2 matched skills, got %v", res.MatchedSkills)
	}
}

func TestScore_LevelRequirementBlocksMatch(t *testing.T) {
	p := profile.Profile{
		Skills: []profile.Skill{canonicalSkill("python", profile.LevelBasic)},
	}
	job := catalog.Target{
		ID:   uuid.New(),
		Type: catalog.TargetJob,
		Name: "ML Engineer",
		RequiredSkills: []catalog.SkillRequirement{
			{Name: "python", Level: profile.LevelAdvanced},
		},
	}

	res := Score(p, job, DefaultWeights(), time.Now())
	if !containsReason(res.Reasons, "Matched 0/1 required skills") {
		t.Fatalf("basic < advanced must not match, got %v", res.Reasons)
	}
	if len(res.MatchedSkills) != 0 {
		t.Fatalf("expected no matched skills, got %v", res.MatchedSkills)
	}
}

func TestScore_UnrecognizedSkillsExcluded(t *testing.T) {
	p := profile.Profile{
		Skills: []profile.Skill{
			{Name: "quantum basket weaving", Level: profile.LevelAdvanced, Canonical: false},
		},
	}
	job := catalog.Target{
		ID:   uuid.New(),
		Type: catalog.TargetJob,
		Name: "Weaver",
		RequiredSkills: []catalog.SkillRequirement{
			{Name: "quantum basket weaving", Level: profile.LevelBasic},
		},
	}

	res := Score(p, job, DefaultWeights(), time.Now())
	if len(res.MatchedSkills) != 0 {
		t.Fatalf("non-canonical skill must not match strictly, got %v", res.MatchedSkills)
	}
}

func TestScore_EligibilityGateCGPA(t *testing.T) {
	p := profile.Profile{
		Education: []profile.Education{{Degree: "B.Tech", CGPA: fptr(6.0)}},
	}
	program := catalog.Target{
		ID:      uuid.New(),
		Type:    catalog.TargetCollegeProgram,
		Name:    "M.Tech CS",
		MinCGPA: fptr(7.5),
	}

	res := Score(p, program, DefaultWeights(), time.Now())
	if res.Eligible {
		t.Fatalf("expected ineligible")
	}
	if res.Score != 0 || res.Tier != "" {
		t.Fatalf("ineligible pair must score 0 with no tier, got %v/%q", res.Score, res.Tier)
	}
}

func TestScore_EligibilityGateJEERank(t *testing.T) {
	base := profile.Profile{JEERank: iptr(15000)}
	program := catalog.Target{
		ID:         uuid.New(),
		Type:       catalog.TargetCollegeProgram,
		Name:       "B.Tech EE",
		MinJEERank: iptr(10000),
	}
	if res := Score(base, program, DefaultWeights(), time.Now()); res.Eligible {
		t.Fatalf("rank 15000 worse than cutoff 10000, expected ineligible")
	}

	better := profile.Profile{JEERank: iptr(5000)}
	if res := Score(better, program, DefaultWeights(), time.Now()); !res.Eligible {
		t.Fatalf("rank 5000 beats cutoff 10000, expected eligible")
	}

	// Rank check only applies when both sides are present.
	unknown := profile.Profile{}
	if res := Score(unknown, program, DefaultWeights(), time.Now()); !res.Eligible {
		t.Fatalf("missing applicant rank must not fail the gate")
	}
}

func TestScore_EligibilityMonotonicity(t *testing.T) {
	job := catalog.Target{
		ID:                 uuid.New(),
		Type:               catalog.TargetJob,
		Name:               "Senior Engineer",
		MinCGPA:            fptr(7.0),
		MinExperienceYears: 2,
	}
	a := profile.Profile{
		Education:  []profile.Education{{CGPA: fptr(7.5)}},
		Experience: []profile.Experience{{Title: "Dev", Duration: "3 years"}},
	}
	if !Score(a, job, DefaultWeights(), time.Now()).Eligible {
		t.Fatalf("baseline applicant should be eligible")
	}

	stronger := profile.Profile{
		Education:  []profile.Education{{CGPA: fptr(9.0)}},
		Experience: []profile.Experience{{Title: "Dev", Duration: "6 years"}},
	}
	if !Score(stronger, job, DefaultWeights(), time.Now()).Eligible {
		t.Fatalf("strictly stronger applicant must stay eligible")
	}
}

func TestScore_ExperienceMarginReason(t *testing.T) {
	p := profile.Profile{
		Experience: []profile.Experience{{Title: "Dev", Duration: "4 years"}},
	}
	job := catalog.Target{
		ID:                 uuid.New(),
		Type:               catalog.TargetJob,
		Name:               "Engineer",
		MinExperienceYears: 2,
	}

	res := Score(p, job, DefaultWeights(), time.Now())
	if !containsReason(res.Reasons, "Exceeds minimum experience by 2 years") {
		t.Fatalf("expected experience margin reason, got %v", res.Reasons)
	}
}

func TestScore_BoundsAndTiers(t *testing.T) {
	now := time.Now().UTC()
	p := profile.Profile{
		Education: []profile.Education{{CGPA: fptr(9.5)}},
		Skills: []profile.Skill{
			canonicalSkill("go", profile.LevelAdvanced),
			canonicalSkill("postgresql", profile.LevelAdvanced),
		},
		Experience: []profile.Experience{{Title: "Dev", Duration: "10 years"}},
	}
	job := catalog.Target{
		ID:   uuid.New(),
		Type: catalog.TargetJob,
		Name: "Staff Engineer",
		RequiredSkills: []catalog.SkillRequirement{
			{Name: "go", Level: profile.LevelIntermediate},
			{Name: "postgresql", Level: profile.LevelBasic},
		},
		OptionalSkills:     []catalog.SkillRequirement{{Name: "go"}},
		MinExperienceYears: 2,
		MinCGPA:            fptr(7.0),
		FreshnessAt:        &now,
	}

	res := Score(p, job, DefaultWeights(), now)
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("score out of bounds: %v", res.Score)
	}
	if res.Tier != TierHigh {
		t.Fatalf("expected high tier, got %q (score %v)", res.Tier, res.Score)
	}
}

func TestScore_BelowDiscardThresholdHasNoTier(t *testing.T) {
	p := profile.Profile{}
	old := time.Now().Add(-365 * 24 * time.Hour)
	job := catalog.Target{
		ID:   uuid.New(),
		Type: catalog.TargetJob,
		Name: "Specialist",
		RequiredSkills: []catalog.SkillRequirement{
			{Name: "rust", Level: profile.LevelAdvanced},
			{Name: "kubernetes", Level: profile.LevelAdvanced},
		},
		FreshnessAt: &old,
	}

	res := Score(p, job, DefaultWeights(), time.Now())
	if res.Score >= TierLowMin {
		t.Fatalf("expected score below discard threshold, got %v", res.Score)
	}
	if res.Tier != "" {
		t.Fatalf("expected empty tier, got %q", res.Tier)
	}
}

func TestScore_FreshnessNeverFlipsEligibility(t *testing.T) {
	now := time.Now().UTC()
	p := profile.Profile{Education: []profile.Education{{CGPA: fptr(5.0)}}}
	job := catalog.Target{
		ID:          uuid.New(),
		Type:        catalog.TargetJob,
		Name:        "Engineer",
		MinCGPA:     fptr(8.0),
		FreshnessAt: &now,
	}

	if res := Score(p, job, DefaultWeights(), now); res.Eligible || res.Score != 0 {
		t.Fatalf("freshness must not make an ineligible candidate eligible")
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if strings.Contains(r, want) {
			return true
		}
	}
	return false
}
