// Package validate holds the deterministic validator and canonicalizer. Every
// function here is pure: same input, same output, no external calls. This is
// the single place the raw extractor draft becomes the canonical profile.
package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"talent-match/internal/domain/profile"
)

const (
	FlagCGPAOutOfRange       = "cgpa_out_of_range"
	FlagInvalidDateRange     = "invalid_date_range"
	FlagUnrecognizedSkill    = "unrecognized_skill"
	FlagCGPAMismatchOverride = "cgpa_mismatch_overridden"
	FlagJEERankMismatch      = "jee_rank_mismatch_overridden"
	FlagExtractionIncomplete = "extraction_incomplete"
)

// Config lives here rather than on a struct because the validator is
// stateless; callers pass thresholds explicitly so tests stay bit-exact.
type Config struct {
	// CGPAMismatchThreshold is the maximum difference tolerated between the
	// model's CGPA and the deterministic snippet value before the snippet
	// wins.
	CGPAMismatchThreshold float64
}

var ratioRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*/\s*([0-9]+(?:\.[0-9]+)?)$`)
var percentRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*%$`)

var recognizedGrades = map[string]bool{
	"A+": true, "A": true, "B+": true, "B": true, "C": true, "D": true,
}

// NormalizeCGPA accepts the grade forms resumes actually carry: "8.2",
// "8.2/10", "82%", plain percentages on a 100 scale. The result is on the
// 10-point scale, or nil with a flag when the value cannot be trusted.
func NormalizeCGPA(raw string) (*float64, []string) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return nil, nil
	}

	var v float64
	if m := ratioRe.FindStringSubmatch(raw); m != nil {
		num, err1 := strconv.ParseFloat(m[1], 64)
		denom, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || denom == 0 {
			return nil, []string{FlagCGPAOutOfRange}
		}
		v = num / denom * 10
	} else if m := percentRe.FindStringSubmatch(raw); m != nil {
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, []string{FlagCGPAOutOfRange}
		}
		v = num / 10
	} else {
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, []string{FlagCGPAOutOfRange}
		}
		switch {
		case num <= 10:
			v = num
		case num <= 100:
			// Percentage written without the sign.
			v = num / 10
		default:
			return nil, []string{FlagCGPAOutOfRange}
		}
	}

	if v < 0 || v > 10 {
		// Rejected, not guessed: the value is nulled rather than clipped.
		return nil, []string{FlagCGPAOutOfRange}
	}
	v = math.Round(v*100) / 100
	return &v, nil
}

// RecognizedGrade reports whether a letter grade is in the accepted set.
func RecognizedGrade(g string) bool {
	return recognizedGrades[strings.ToUpper(strings.TrimSpace(g))]
}

// Normalize turns a raw draft into the canonical profile plus accumulated
// flags. Validator issues are never errors; a partially valid profile is more
// useful downstream than none.
func Normalize(d profile.Draft, snips profile.NumericSnippets, cfg Config) (profile.Profile, []string) {
	flags := make([]string, 0, 4)

	p := profile.Profile{
		Personal: profile.Personal{
			Name:  strings.TrimSpace(d.Personal.Name),
			Email: strings.TrimSpace(d.Personal.Email),
			Phone: strings.TrimSpace(d.Personal.Phone),
		},
		Certifications: d.Certifications,
		JEERank:        d.JEERank,
	}

	for _, e := range d.Education {
		edu, eduFlags := normalizeEducation(e)
		p.Education = append(p.Education, edu)
		flags = append(flags, eduFlags...)
	}

	p.Skills, flags = canonicalizeSkills(d.Skills, flags)

	for _, e := range d.Experience {
		p.Experience = append(p.Experience, profile.Experience{
			Title:    strings.TrimSpace(e.Title),
			Company:  strings.TrimSpace(e.Company),
			Duration: strings.TrimSpace(e.Duration),
		})
	}
	for _, pr := range d.Projects {
		p.Projects = append(p.Projects, profile.Project{
			Name:        strings.TrimSpace(pr.Name),
			Description: strings.TrimSpace(pr.Description),
		})
	}

	flags = crossCheck(&p, snips, cfg, flags)

	return p, dedupFlags(flags)
}

func normalizeEducation(e profile.DraftEducation) (profile.Education, []string) {
	var flags []string
	edu := profile.Education{
		Institution: strings.TrimSpace(e.Institution),
		Degree:      strings.TrimSpace(e.Degree),
		YearStart:   e.YearStart,
		YearEnd:     e.YearEnd,
	}

	raw := strings.TrimSpace(e.CGPA)
	if raw == "" {
		raw = strings.TrimSpace(e.Grade)
	}
	if raw != "" {
		if RecognizedGrade(raw) {
			edu.Grade = strings.ToUpper(raw)
		} else {
			cgpa, cgpaFlags := NormalizeCGPA(raw)
			edu.CGPA = cgpa
			flags = append(flags, cgpaFlags...)
		}
	}

	if edu.YearStart != nil && edu.YearEnd != nil && *edu.YearEnd < *edu.YearStart {
		edu.YearStart = nil
		edu.YearEnd = nil
		flags = append(flags, FlagInvalidDateRange)
	}

	return edu, flags
}

func canonicalizeSkills(in []profile.DraftSkill, flags []string) ([]profile.Skill, []string) {
	// Dedup post-canonicalization, keeping the highest declared level.
	best := make(map[string]profile.Skill, len(in))
	order := make([]string, 0, len(in))

	for _, s := range in {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		canonical, ok := Canonicalize(name)
		if !ok {
			flags = append(flags, FlagUnrecognizedSkill)
		}
		level := profile.ParseSkillLevel(s.Level)
		if level == profile.LevelUnknown {
			level = profile.LevelBasic
		}

		key := strings.ToLower(canonical)
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = profile.Skill{Name: canonical, Level: level, Canonical: ok}
			continue
		}
		if level > existing.Level {
			existing.Level = level
			best[key] = existing
		}
	}

	out := make([]profile.Skill, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out, flags
}

// crossCheck applies the deterministic numeric snippets against the model
// output; on disagreement past the threshold the snippet wins.
func crossCheck(p *profile.Profile, snips profile.NumericSnippets, cfg Config, flags []string) []string {
	if snips.CGPA != "" {
		det, detFlags := NormalizeCGPA(snips.CGPA)
		flags = append(flags, detFlags...)
		if det != nil {
			applied := false
			for i := range p.Education {
				cur := p.Education[i].CGPA
				if cur == nil {
					continue
				}
				if math.Abs(*cur-*det) > cfg.CGPAMismatchThreshold {
					p.Education[i].CGPA = det
					flags = append(flags, FlagCGPAMismatchOverride)
				}
				applied = true
				break
			}
			if !applied && len(p.Education) > 0 {
				p.Education[0].CGPA = det
			}
		}
	}

	if snips.JEERank != "" {
		if det, err := strconv.Atoi(strings.TrimSpace(snips.JEERank)); err == nil {
			if p.JEERank != nil && *p.JEERank != det {
				flags = append(flags, FlagJEERankMismatch)
			}
			p.JEERank = &det
		}
	}

	return flags
}

func dedupFlags(flags []string) []string {
	seen := make(map[string]bool, len(flags))
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
