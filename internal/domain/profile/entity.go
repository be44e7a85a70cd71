package profile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SkillLevel is the ordinal proficiency scale used for matching.
type SkillLevel int

const (
	LevelUnknown SkillLevel = iota
	LevelBasic
	LevelIntermediate
	LevelAdvanced
)

func ParseSkillLevel(s string) SkillLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "beginner":
		return LevelBasic
	case "intermediate":
		return LevelIntermediate
	case "advanced", "expert":
		return LevelAdvanced
	default:
		return LevelUnknown
	}
}

func (l SkillLevel) String() string {
	switch l {
	case LevelBasic:
		return "basic"
	case LevelIntermediate:
		return "intermediate"
	case LevelAdvanced:
		return "advanced"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the enum string so API responses and the profile JSONB
// carry "basic"/"intermediate"/"advanced", never the internal ordinal.
func (l SkillLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the enum strings; ordinals written by older rows
// still decode.
func (l *SkillLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = ParseSkillLevel(s)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("skill level must be a string or integer: %s", data)
	}
	if n < int(LevelUnknown) || n > int(LevelAdvanced) {
		*l = LevelUnknown
		return nil
	}
	*l = SkillLevel(n)
	return nil
}

type Personal struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Education struct {
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	CGPA        *float64 `json:"cgpa"`
	Grade       string   `json:"grade"`
	YearStart   *int     `json:"year_start"`
	YearEnd     *int     `json:"year_end"`
}

type Skill struct {
	Name  string     `json:"name"`
	Level SkillLevel `json:"level"`
	// Canonical is true when Name comes from the controlled vocabulary.
	// Unrecognized skills stay visible but are excluded from strict matching.
	Canonical bool `json:"canonical"`
}

type Experience struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Profile is the single canonical shape all downstream code consumes. It is
// produced once at the validator boundary; nothing reads raw extractor output
// past that point.
type Profile struct {
	Personal       Personal     `json:"personal"`
	Education      []Education  `json:"education"`
	Skills         []Skill      `json:"skills"`
	Experience     []Experience `json:"experience"`
	Projects       []Project    `json:"projects"`
	Certifications []string     `json:"certifications"`
	JEERank        *int         `json:"jee_rank"`
}

// BestCGPA returns the highest validated CGPA across education entries.
func (p Profile) BestCGPA() *float64 {
	var best *float64
	for i := range p.Education {
		c := p.Education[i].CGPA
		if c == nil {
			continue
		}
		if best == nil || *c > *best {
			best = c
		}
	}
	return best
}

var durationRe = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(year|yr|month|mo)`)

// TotalExperienceYears sums the duration strings of experience entries.
// Entries whose duration cannot be parsed count as one year, matching the
// original heuristic for unparseable dates.
func (p Profile) TotalExperienceYears() float64 {
	total := 0.0
	for _, e := range p.Experience {
		matches := durationRe.FindAllStringSubmatch(e.Duration, -1)
		if len(matches) == 0 {
			total += 1
			continue
		}
		for _, m := range matches {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if strings.HasPrefix(strings.ToLower(m[2]), "mo") {
				total += v / 12
			} else {
				total += v
			}
		}
	}
	return total
}

// Draft is the structured extractor's raw output, before deterministic
// validation. CGPA is a string because models emit "8.2", "8.2/10" and "82%"
// interchangeably; the validator owns normalization.
type Draft struct {
	Personal       DraftPersonal     `json:"personal"`
	Education      []DraftEducation  `json:"education"`
	Skills         []DraftSkill      `json:"skills"`
	Experience     []DraftExperience `json:"experience"`
	Projects       []DraftProject    `json:"projects"`
	Certifications []string          `json:"certifications"`
	JEERank        *int              `json:"jee_rank"`
	Confidence     *float64          `json:"llm_confidence"`
}

type DraftPersonal struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type DraftEducation struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	CGPA        string `json:"cgpa"`
	Grade       string `json:"grade"`
	YearStart   *int   `json:"year_start"`
	YearEnd     *int   `json:"year_end"`
}

type DraftSkill struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

type DraftExperience struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

type DraftProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NumericSnippets are regex hits pulled from the raw document text, used as
// deterministic cross-checks against the model output.
type NumericSnippets struct {
	CGPA       string   `json:"cgpa,omitempty"`
	Percentage string   `json:"percentage,omitempty"`
	JEERank    string   `json:"jee_rank,omitempty"`
	Years      []string `json:"years,omitempty"`
}

// ParseResult wraps a validated profile for one parse attempt. Results are
// append-only; a re-upload supersedes by moving the applicant's current
// pointer, never by mutating an old row.
type ParseResult struct {
	ID               uuid.UUID `json:"id"`
	ApplicantID      uuid.UUID `json:"applicant_id"`
	ContentHash      string    `json:"content_hash"`
	Profile          Profile   `json:"profile"`
	Confidence       float64   `json:"confidence"`
	Flags            []string  `json:"flags"`
	NeedsReview      bool      `json:"needs_review"`
	ExtractorVersion string    `json:"extractor_version"`
	ExtractionMethod string    `json:"extraction_method"`
	CreatedAt        time.Time `json:"created_at"`
}

// RawDocument is the immutable content-store record.
type RawDocument struct {
	ContentHash string    `json:"content_hash"`
	MimeType    string    `json:"mime_type"`
	ByteSize    int64     `json:"byte_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Hints are the optional fields supplied at the upload boundary.
type Hints struct {
	Location    string `json:"location,omitempty"`
	JEERank     *int   `json:"jee_rank,omitempty"`
	Preferences string `json:"preferences,omitempty"`
}
