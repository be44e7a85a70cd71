package catalog

import (
	"errors"
	"time"

	"talent-match/internal/domain/profile"

	"github.com/google/uuid"
)

type TargetType string

const (
	TargetJob            TargetType = "job"
	TargetCollegeProgram TargetType = "college_program"
)

type SkillRequirement struct {
	Name  string             `json:"name"`
	Level profile.SkillLevel `json:"level"`
}

// Job is a read-only snapshot of an approved posting. The approval state is
// decided externally; repositories only ever return active rows.
type Job struct {
	ID                 uuid.UUID
	Title              string
	Company            string
	Location           string
	RequiredSkills     []SkillRequirement
	OptionalSkills     []SkillRequirement
	MinExperienceYears float64
	MinCGPA            *float64
	PostedAt           *time.Time
}

type CollegeProgram struct {
	ID             uuid.UUID
	Name           string
	Institution    string
	RequiredSkills []SkillRequirement
	OptionalSkills []SkillRequirement
	MinCGPA        *float64
	MinJEERank     *int
	Seats          int
	UpdatedAt      *time.Time
}

// Target is the unified view the scoring engine consumes.
type Target struct {
	ID                 uuid.UUID
	Type               TargetType
	Name               string
	RequiredSkills     []SkillRequirement
	OptionalSkills     []SkillRequirement
	MinExperienceYears float64
	MinCGPA            *float64
	MinJEERank         *int
	// FreshnessAt feeds the tie-break weight only.
	FreshnessAt *time.Time
}

var ErrMalformedTarget = errors.New("malformed target")

func (j Job) Target() Target {
	return Target{
		ID:                 j.ID,
		Type:               TargetJob,
		Name:               j.Title,
		RequiredSkills:     j.RequiredSkills,
		OptionalSkills:     j.OptionalSkills,
		MinExperienceYears: j.MinExperienceYears,
		MinCGPA:            j.MinCGPA,
		FreshnessAt:        j.PostedAt,
	}
}

func (p CollegeProgram) Target() Target {
	return Target{
		ID:             p.ID,
		Type:           TargetCollegeProgram,
		Name:           p.Name,
		RequiredSkills: p.RequiredSkills,
		OptionalSkills: p.OptionalSkills,
		MinCGPA:        p.MinCGPA,
		MinJEERank:     p.MinJEERank,
		FreshnessAt:    p.UpdatedAt,
	}
}

// Validate rejects targets that cannot be scored. A malformed catalog row is
// skipped with a warning, never a pipeline abort.
func (t Target) Validate() error {
	if t.ID == uuid.Nil {
		return ErrMalformedTarget
	}
	if t.Name == "" {
		return ErrMalformedTarget
	}
	if t.Type != TargetJob && t.Type != TargetCollegeProgram {
		return ErrMalformedTarget
	}
	for _, r := range append(append([]SkillRequirement{}, t.RequiredSkills...), t.OptionalSkills...) {
		if r.Name == "" {
			return ErrMalformedTarget
		}
	}
	return nil
}
