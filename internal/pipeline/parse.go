// Package pipeline runs the asynchronous parse flow: blob to text to draft
// to validated profile to gated parse result, then a re-score. Jobs arrive
// over the queue; per-applicant serialization and supersede ordering are
// enforced here.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"talent-match/internal/config"
	"talent-match/internal/domain/profile"
	"talent-match/internal/extract"
	"talent-match/internal/gate"
	"talent-match/internal/infrastructure/queue"
	"talent-match/internal/repository"
	"talent-match/internal/validate"
	pkgerrors "talent-match/pkg/errors"
)

// Parse status values exposed through the status key.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusSuperseded = "superseded"
	StatusUnreadable = "failed:unreadable"
)

func LockKey(applicantID uuid.UUID) string {
	return "parse:lock:" + applicantID.String()
}

func DedupKey(applicantID uuid.UUID, contentHash string) string {
	return fmt.Sprintf("parse:done:%s:%s", applicantID, contentHash)
}

func StatusKey(applicantID uuid.UUID) string {
	return "parse:status:" + applicantID.String()
}

type BlobStore interface {
	Get(contentHash string) ([]byte, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (extract.Result, error)
}

type StructuredExtractor interface {
	ExtractProfile(ctx context.Context, contentHash, docText string, hints profile.Hints) (profile.Draft, []string, error)
	Version() string
}

// Coordinator is the Redis surface for locks, dedup markers and the parse
// status key.
type Coordinator interface {
	SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

// Scorer re-scores an applicant against the catalog after a profile change.
type Scorer interface {
	ScoreApplicant(ctx context.Context, applicantID uuid.UUID) (int, error)
}

type Notifier interface {
	ParseCompleted(applicantID, parseResultID uuid.UUID, needsReview bool)
	ParseFailed(applicantID uuid.UUID, reason string)
	RecommendationsReady(applicantID uuid.UUID, count int)
}

type applicantStore interface {
	Get(ctx context.Context, id uuid.UUID) (repository.Applicant, error)
	LatestTriggerSeq(ctx context.Context, id uuid.UUID) (int64, error)
	SetCurrentParseResult(ctx context.Context, id, parseResultID uuid.UUID, seq int64) (bool, error)
}

type parseResultStore interface {
	Insert(ctx context.Context, pr profile.ParseResult) error
	GetByID(ctx context.Context, id uuid.UUID) (profile.ParseResult, error)
}

type Service struct {
	blobs      BlobStore
	applicants applicantStore
	results    parseResultStore
	extractor  TextExtractor
	structured StructuredExtractor
	coord      Coordinator
	scorer     Scorer
	notifier   Notifier
	cfg        config.ParsingConfig
	log        zerolog.Logger
}

func NewService(
	blobs BlobStore,
	applicants applicantStore,
	results parseResultStore,
	extractor TextExtractor,
	structured StructuredExtractor,
	coord Coordinator,
	scorer Scorer,
	notifier Notifier,
	cfg config.ParsingConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		blobs:      blobs,
		applicants: applicants,
		results:    results,
		extractor:  extractor,
		structured: structured,
		coord:      coord,
		scorer:     scorer,
		notifier:   notifier,
		cfg:        cfg,
		log:        log,
	}
}

// HandleJob processes one parse job end to end. A nil return acks the
// message; an error return requeues it. Terminal document failures are
// recorded and acked so they never loop.
func (s *Service) HandleJob(ctx context.Context, job queue.ParseJob) error {
	log := s.log.With().
		Str("applicant_id", job.ApplicantID.String()).
		Str("content_hash", job.ContentHash).
		Int64("trigger_seq", job.TriggerSeq).
		Logger()

	latest, err := s.applicants.LatestTriggerSeq(ctx, job.ApplicantID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicantNotFound) {
			log.Error().Msg("parse job for unknown applicant, dropping")
			return nil
		}
		return err
	}
	if job.TriggerSeq < latest {
		// A fresher upload exists; this parse would be superseded anyway.
		log.Info().Int64("latest_seq", latest).Msg("discarding superseded parse job")
		return nil
	}

	// One parse per applicant at a time across all workers.
	locked, err := s.coord.SetIfNotExists(ctx, LockKey(job.ApplicantID), job.ContentHash, s.cfg.ParseLockTTL)
	if err != nil {
		return err
	}
	if !locked {
		return pkgerrors.NewRetryableError(fmt.Errorf("applicant parse in progress"), "parse lock held")
	}
	defer func() {
		_ = s.coord.Delete(context.WithoutCancel(ctx), LockKey(job.ApplicantID))
	}()

	runCtx := ctx
	if s.cfg.ParseLockTTL > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.ParseLockTTL)
		defer cancel()
	}

	s.setStatus(runCtx, job.ApplicantID, StatusProcessing)

	// Same bytes parsed recently for this applicant: repoint and skip the
	// whole extraction. The stored result carries the review flag the
	// completion event must repeat.
	if id, ok, _ := s.coord.GetString(runCtx, DedupKey(job.ApplicantID, job.ContentHash)); ok {
		if prID, perr := uuid.Parse(id); perr == nil {
			if prev, gerr := s.results.GetByID(runCtx, prID); gerr == nil {
				return s.finish(runCtx, job, prev.ID, prev.NeedsReview, log)
			}
			log.Warn().Str("parse_result_id", prID.String()).Msg("dedup marker points at missing parse result, re-extracting")
		}
	}

	applicant, err := s.applicants.Get(runCtx, job.ApplicantID)
	if err != nil {
		return err
	}

	data, err := s.blobs.Get(job.ContentHash)
	if err != nil {
		return fmt.Errorf("load blob: %w", err)
	}

	extracted, err := s.extractor.Extract(runCtx, data, job.MimeType)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUnreadableDocument) || errors.Is(err, pkgerrors.ErrExtractionFailed) {
			log.Warn().Err(err).Msg("document unreadable, parse terminal")
			s.setStatus(runCtx, job.ApplicantID, StatusUnreadable)
			s.notifier.ParseFailed(job.ApplicantID, "unreadable document")
			return nil
		}
		return err
	}

	draft, draftFlags, err := s.structured.ExtractProfile(runCtx, job.ContentHash, extracted.Text, applicant.Hints)
	if err != nil {
		return err
	}

	prof, valFlags := validate.Normalize(draft, extracted.Snippets, validate.Config{
		CGPAMismatchThreshold: s.cfg.CGPAMismatchThreshold,
	})
	flags := mergeFlags(draftFlags, valFlags)

	confidence := s.cfg.DefaultModelConfidence
	if draft.Confidence != nil {
		confidence = *draft.Confidence
	}
	decision := gate.Evaluate(confidence, flags, gate.Config{
		ReviewThreshold: s.cfg.ReviewThreshold,
		HardFlagPenalty: s.cfg.HardFlagPenalty,
		SoftFlagPenalty: s.cfg.SoftFlagPenalty,
	})

	method := string(extracted.Method)
	pr := profile.ParseResult{
		ID:               uuid.New(),
		ApplicantID:      job.ApplicantID,
		ContentHash:      job.ContentHash,
		Profile:          prof,
		Confidence:       decision.Confidence,
		Flags:            flags,
		NeedsReview:      decision.NeedsReview,
		ExtractorVersion: s.structured.Version(),
		ExtractionMethod: method,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.results.Insert(runCtx, pr); err != nil {
		return fmt.Errorf("insert parse result: %w", err)
	}

	if s.cfg.DedupWindow > 0 {
		_ = s.coord.SetString(runCtx, DedupKey(job.ApplicantID, job.ContentHash), pr.ID.String(), s.cfg.DedupWindow)
	}

	return s.finish(runCtx, job, pr.ID, decision.NeedsReview, log)
}

// finish moves the current profile pointer and triggers the re-score. The
// pointer update is guarded by the trigger sequence, so a parse raced by a
// fresher upload lands as superseded without touching the profile.
func (s *Service) finish(ctx context.Context, job queue.ParseJob, parseResultID uuid.UUID, needsReview bool, log zerolog.Logger) error {
	current, err := s.applicants.SetCurrentParseResult(ctx, job.ApplicantID, parseResultID, job.TriggerSeq)
	if err != nil {
		return err
	}
	if !current {
		log.Info().Str("parse_result_id", parseResultID.String()).Msg("parse result superseded before activation")
		s.setStatus(ctx, job.ApplicantID, StatusSuperseded)
		return nil
	}

	s.setStatus(ctx, job.ApplicantID, StatusCompleted)
	s.notifier.ParseCompleted(job.ApplicantID, parseResultID, needsReview)

	count, err := s.scorer.ScoreApplicant(ctx, job.ApplicantID)
	if err != nil {
		// The parse itself succeeded; a scoring fault must not requeue it.
		log.Warn().Err(err).Msg("re-score after parse failed")
		return nil
	}
	s.notifier.RecommendationsReady(job.ApplicantID, count)
	return nil
}

func (s *Service) setStatus(ctx context.Context, applicantID uuid.UUID, status string) {
	ttl := s.cfg.DedupWindow
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := s.coord.SetString(ctx, StatusKey(applicantID), status, ttl); err != nil {
		s.log.Warn().Err(err).Str("applicant_id", applicantID.String()).Msg("parse status write failed")
	}
}

func mergeFlags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, f := range append(append([]string{}, a...), b...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
