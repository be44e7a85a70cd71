package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"talent-match/internal/domain/profile"
	"talent-match/internal/validate"
	pkgerrors "talent-match/pkg/errors"
)

// Generator is the model call surface; satisfied by *Client.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Model() string
}

// DraftCache stores finished drafts keyed by content hash and extractor
// version so re-uploads of the same bytes never hit the model again.
type DraftCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// DraftCacheKey builds the cache key for a document's extraction output.
// Bumping the extractor version invalidates every cached draft.
func DraftCacheKey(contentHash, version string) string {
	return fmt.Sprintf("draft:%s:%s", contentHash, version)
}

type ProfileExtractor struct {
	gen      Generator
	cache    DraftCache
	version  string
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewProfileExtractor(gen Generator, cache DraftCache, version string, log zerolog.Logger) *ProfileExtractor {
	if version == "" {
		version = "v1"
	}
	return &ProfileExtractor{
		gen:      gen,
		cache:    cache,
		version:  version,
		cacheTTL: 7 * 24 * time.Hour,
		log:      log,
	}
}

func (p *ProfileExtractor) Version() string { return p.version }

// cachedDraft is the cache payload: the draft plus the flags raised while
// producing it, so a cache hit replays the exact same extraction outcome.
type cachedDraft struct {
	Draft profile.Draft `json:"draft"`
	Flags []string      `json:"flags"`
}

// ExtractProfile turns document text into a structured draft. The first
// model call uses the strict prompt; a schema violation triggers exactly one
// repair call that echoes the validation failure. If that also fails the
// method degrades to a partial draft carrying the extraction_incomplete flag
// instead of failing the parse.
func (p *ProfileExtractor) ExtractProfile(ctx context.Context, contentHash, docText string, hints profile.Hints) (profile.Draft, []string, error) {
	key := DraftCacheKey(contentHash, p.version)
	if p.cache != nil {
		var hit cachedDraft
		if ok, err := p.cache.GetJSON(ctx, key, &hit); err == nil && ok {
			p.log.Debug().Str("content_hash", contentHash).Msg("draft cache hit")
			return hit.Draft, hit.Flags, nil
		}
	}

	raw, err := p.gen.Generate(ctx, p.gen.Model(), strictPrompt(docText, hints))
	if err != nil {
		p.log.Warn().Err(err).Str("content_hash", contentHash).Msg("extraction model call failed")
		return partialDraft(), []string{validate.FlagExtractionIncomplete}, nil
	}

	draft, decodeErr := decodeDraft(raw)
	if decodeErr == nil {
		p.store(ctx, key, cachedDraft{Draft: draft})
		return draft, nil, nil
	}

	p.log.Info().Err(decodeErr).Str("content_hash", contentHash).Msg("schema violation, issuing repair call")
	raw2, err := p.gen.Generate(ctx, p.gen.Model(), repairPrompt(docText, raw, decodeErr))
	if err != nil {
		return partialDraft(), []string{validate.FlagExtractionIncomplete}, nil
	}

	draft, decodeErr = decodeDraft(raw2)
	if decodeErr != nil {
		p.log.Warn().Err(decodeErr).Str("content_hash", contentHash).Msg("repair call still violates schema, degrading to partial draft")
		return partialDraft(), []string{validate.FlagExtractionIncomplete}, nil
	}

	p.store(ctx, key, cachedDraft{Draft: draft})
	return draft, nil, nil
}

func (p *ProfileExtractor) store(ctx context.Context, key string, v cachedDraft) {
	if p.cache == nil {
		return
	}
	if err := p.cache.SetJSON(ctx, key, v, p.cacheTTL); err != nil {
		p.log.Warn().Err(err).Msg("draft cache write failed")
	}
}

func partialDraft() profile.Draft {
	return profile.Draft{}
}

// decodeDraft parses the model output strictly: unknown fields are rejected
// and a draft without a name is not a profile.
func decodeDraft(raw string) (profile.Draft, error) {
	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return profile.Draft{}, fmt.Errorf("%w: empty model output", pkgerrors.ErrSchemaViolation)
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var d profile.Draft
	if err := dec.Decode(&d); err != nil {
		return profile.Draft{}, fmt.Errorf("%w: %v", pkgerrors.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(d.Personal.Name) == "" {
		return profile.Draft{}, fmt.Errorf("%w: personal.name is required", pkgerrors.ErrSchemaViolation)
	}
	if d.Confidence != nil && (*d.Confidence < 0 || *d.Confidence > 1) {
		return profile.Draft{}, fmt.Errorf("%w: llm_confidence must be within [0,1]", pkgerrors.ErrSchemaViolation)
	}
	return d, nil
}

const draftSchema = `{
  "personal": {"name": "Full name", "email": "email", "phone": "phone"},
  "education": [{"institution": "", "degree": "", "cgpa": "8.2/10", "grade": "", "year_start": 2018, "year_end": 2022}],
  "skills": [{"name": "python", "level": "basic|intermediate|advanced"}],
  "experience": [{"title": "", "company": "", "duration": "2 years"}],
  "projects": [{"name": "", "description": ""}],
  "certifications": [""],
  "jee_rank": null,
  "llm_confidence": 0.9
}`

func strictPrompt(docText string, hints profile.Hints) string {
	var b strings.Builder
	b.WriteString("You are a resume parser. Extract information from the following resume text and return ONLY valid JSON matching this schema. Omit fields you cannot find rather than guessing. Use null for unknown numbers.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(draftSchema)
	b.WriteString("\n\nPrefer these canonical skill names when they apply:\n")
	b.WriteString(strings.Join(canonicalSkillNames(), ", "))
	if hints.Location != "" {
		b.WriteString("\n\nUploader-declared location: " + hints.Location)
	}
	if hints.JEERank != nil {
		fmt.Fprintf(&b, "\nUploader-declared JEE rank: %d", *hints.JEERank)
	}
	b.WriteString("\n\nResume Text:\n")
	b.WriteString(docText)
	b.WriteString("\n\nReturn ONLY the JSON object, no markdown fences, no other text.")
	return b.String()
}

func repairPrompt(docText, badOutput string, violation error) string {
	var b strings.Builder
	b.WriteString("Your previous output was rejected by the schema validator.\n\nValidation error:\n")
	b.WriteString(violation.Error())
	b.WriteString("\n\nPrevious output:\n")
	b.WriteString(truncate(badOutput, 4000))
	b.WriteString("\n\nRe-extract from the resume text below and return ONLY valid JSON matching this schema:\n")
	b.WriteString(draftSchema)
	b.WriteString("\n\nResume Text:\n")
	b.WriteString(docText)
	b.WriteString("\n\nReturn ONLY the JSON object.")
	return b.String()
}

func canonicalSkillNames() []string {
	names := make([]string, 0, len(validate.Synonyms))
	for name := range validate.Synonyms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
