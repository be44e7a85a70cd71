package validate

import (
	"testing"

	"talent-match/internal/domain/profile"
)

func TestNormalizeCGPA_Scales(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"8.2", 8.2},
		{"8.2/10", 8.2},
		{"3.5/4", 8.75},
		{"82%", 8.2},
		{"82", 8.2},
		{"10", 10},
		{"0", 0},
	}
	for _, c := range cases {
		got, flags := NormalizeCGPA(c.in)
		if got == nil {
			t.Fatalf("NormalizeCGPA(%q) = nil (flags %v)", c.in, flags)
		}
		if *got != c.want {
			t.Fatalf("NormalizeCGPA(%q) = %v, want %v", c.in, *got, c.want)
		}
		if len(flags) != 0 {
			t.Fatalf("NormalizeCGPA(%q) unexpected flags %v", c.in, flags)
		}
	}
}

func TestNormalizeCGPA_Rejected(t *testing.T) {
	for _, in := range []string{"150", "-1", "abc", "8/0"} {
		got, flags := NormalizeCGPA(in)
		if got != nil {
			t.Fatalf("NormalizeCGPA(%q) = %v, want nil", in, *got)
		}
		if !hasFlag(flags, FlagCGPAOutOfRange) {
			t.Fatalf("NormalizeCGPA(%q) missing %s flag, got %v", in, FlagCGPAOutOfRange, flags)
		}
	}
}

func TestNormalize_RangeInvariant(t *testing.T) {
	d := profile.Draft{
		Personal: profile.DraftPersonal{Name: "Asha Rao"},
		Education: []profile.DraftEducation{
			{Institution: "IIT", Degree: "B.Tech", CGPA: "11.2"},
			{Institution: "School", Degree: "XII", CGPA: "91%"},
		},
	}
	p, flags := Normalize(d, profile.NumericSnippets{}, Config{CGPAMismatchThreshold: 0.5})

	if p.Education[0].CGPA != nil {
		t.Fatalf("out-of-range CGPA must be nulled, got %v", *p.Education[0].CGPA)
	}
	if !hasFlag(flags, FlagCGPAOutOfRange) {
		t.Fatalf("expected %s flag, got %v", FlagCGPAOutOfRange, flags)
	}
	if p.Education[1].CGPA == nil || *p.Education[1].CGPA != 9.1 {
		t.Fatalf("percentage should normalize to 9.1, got %v", p.Education[1].CGPA)
	}
	for _, e := range p.Education {
		if e.CGPA != nil && (*e.CGPA < 0 || *e.CGPA > 10) {
			t.Fatalf("range invariant violated: %v", *e.CGPA)
		}
	}
}

func TestNormalize_InvalidDateRange(t *testing.T) {
	ys, ye := 2024, 2020
	d := profile.Draft{
		Education: []profile.DraftEducation{
			{Institution: "IIT", Degree: "B.Tech", YearStart: &ys, YearEnd: &ye},
		},
	}
	p, flags := Normalize(d, profile.NumericSnippets{}, Config{})

	if p.Education[0].YearStart != nil || p.Education[0].YearEnd != nil {
		t.Fatalf("inverted year range must null both years")
	}
	if !hasFlag(flags, FlagInvalidDateRange) {
		t.Fatalf("expected %s flag, got %v", FlagInvalidDateRange, flags)
	}
}

func TestNormalize_SkillCanonicalizationAndDedup(t *testing.T) {
	d := profile.Draft{
		Skills: []profile.DraftSkill{
			{Name: "ReactJS", Level: "basic"},
			{Name: "react.js", Level: "advanced"},
			{Name: "Node", Level: "intermediate"},
			{Name: "Underwater Yodeling", Level: "advanced"},
		},
	}
	p, flags := Normalize(d, profile.NumericSnippets{}, Config{})

	if len(p.Skills) != 3 {
		t.Fatalf("expected 3 skills after dedup, got %d: %v", len(p.Skills), p.Skills)
	}
	react := p.Skills[0]
	if react.Name != "react" || !react.Canonical {
		t.Fatalf("ReactJS should canonicalize to react, got %+v", react)
	}
	if react.Level != profile.LevelAdvanced {
		t.Fatalf("dedup must keep the highest level, got %v", react.Level)
	}
	if p.Skills[1].Name != "node.js" {
		t.Fatalf("Node should canonicalize to node.js, got %q", p.Skills[1].Name)
	}
	yodeling := p.Skills[2]
	if yodeling.Canonical {
		t.Fatalf("unknown skill must not be canonical")
	}
	if yodeling.Name != "Underwater Yodeling" {
		t.Fatalf("unknown skill kept verbatim, got %q", yodeling.Name)
	}
	if !hasFlag(flags, FlagUnrecognizedSkill) {
		t.Fatalf("expected %s flag, got %v", FlagUnrecognizedSkill, flags)
	}
}

func TestNormalize_SnippetCGPAOverride(t *testing.T) {
	d := profile.Draft{
		Education: []profile.DraftEducation{
			{Institution: "IIT", Degree: "B.Tech", CGPA: "9.8"},
		},
	}
	p, flags := Normalize(d, profile.NumericSnippets{CGPA: "7.2"}, Config{CGPAMismatchThreshold: 0.5})

	if p.Education[0].CGPA == nil || *p.Education[0].CGPA != 7.2 {
		t.Fatalf("snippet value must win on mismatch, got %v", p.Education[0].CGPA)
	}
	if !hasFlag(flags, FlagCGPAMismatchOverride) {
		t.Fatalf("expected %s flag, got %v", FlagCGPAMismatchOverride, flags)
	}
}

func TestNormalize_SnippetWithinThresholdKept(t *testing.T) {
	d := profile.Draft{
		Education: []profile.DraftEducation{
			{Institution: "IIT", Degree: "B.Tech", CGPA: "7.4"},
		},
	}
	p, flags := Normalize(d, profile.NumericSnippets{CGPA: "7.2"}, Config{CGPAMismatchThreshold: 0.5})

	if *p.Education[0].CGPA != 7.4 {
		t.Fatalf("within threshold the model value stands, got %v", *p.Education[0].CGPA)
	}
	if hasFlag(flags, FlagCGPAMismatchOverride) {
		t.Fatalf("no override flag expected, got %v", flags)
	}
}

func TestNormalize_LetterGradeRecognized(t *testing.T) {
	d := profile.Draft{
		Education: []profile.DraftEducation{
			{Institution: "School", Degree: "XII", Grade: "A+"},
		},
	}
	p, flags := Normalize(d, profile.NumericSnippets{}, Config{})

	if p.Education[0].Grade != "A+" {
		t.Fatalf("letter grade should pass through, got %q", p.Education[0].Grade)
	}
	if p.Education[0].CGPA != nil {
		t.Fatalf("letter grade must not produce a CGPA")
	}
	if len(flags) != 0 {
		t.Fatalf("unexpected flags %v", flags)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	d := profile.Draft{
		Personal: profile.DraftPersonal{Name: "Asha Rao"},
		Skills: []profile.DraftSkill{
			{Name: "Python", Level: "advanced"},
			{Name: "k8s", Level: "basic"},
		},
		Education: []profile.DraftEducation{{Institution: "IIT", Degree: "B.Tech", CGPA: "8.2/10"}},
	}
	snips := profile.NumericSnippets{CGPA: "8.2"}
	cfg := Config{CGPAMismatchThreshold: 0.5}

	p1, f1 := Normalize(d, snips, cfg)
	p2, f2 := Normalize(d, snips, cfg)

	if len(p1.Skills) != len(p2.Skills) {
		t.Fatalf("non-deterministic skill output")
	}
	for i := range p1.Skills {
		if p1.Skills[i] != p2.Skills[i] {
			t.Fatalf("non-deterministic skill at %d: %+v vs %+v", i, p1.Skills[i], p2.Skills[i])
		}
	}
	if len(f1) != len(f2) {
		t.Fatalf("non-deterministic flags: %v vs %v", f1, f2)
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
