package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"talent-match/internal/domain/catalog"
	"talent-match/internal/domain/profile"
	"talent-match/internal/domain/recommendation"
	"talent-match/internal/domain/scoring"
	"talent-match/internal/pipeline"
	"talent-match/internal/repository"
)

type CurrentProfileReader interface {
	GetCurrent(ctx context.Context, applicantID uuid.UUID) (profile.ParseResult, error)
}

type ScoringUsecase interface {
	ScoreApplicant(ctx context.Context, applicantID uuid.UUID) (int, error)
}

// Scoring fans the catalog across a worker pool and serializes the upserts
// in a single writer, so scores compute in parallel but the store never sees
// concurrent writes for one applicant.
type Scoring struct {
	profiles CurrentProfileReader
	catalog  repository.CatalogRepository
	recs     repository.RecommendationRepository
	weights  scoring.Weights
	workers  int
	log      zerolog.Logger
}

func NewScoringUsecase(
	profiles CurrentProfileReader,
	cat repository.CatalogRepository,
	recs repository.RecommendationRepository,
	weights scoring.Weights,
	workers int,
	log zerolog.Logger,
) *Scoring {
	if workers <= 0 {
		workers = 4
	}
	return &Scoring{
		profiles: profiles,
		catalog:  cat,
		recs:     recs,
		weights:  weights,
		workers:  workers,
		log:      log,
	}
}

func (u *Scoring) ScoreApplicant(ctx context.Context, applicantID uuid.UUID) (int, error) {
	pr, err := u.profiles.GetCurrent(ctx, applicantID)
	if err != nil {
		if errors.Is(err, repository.ErrParseResultNotFound) {
			u.log.Info().Str("applicant_id", applicantID.String()).Msg("no current profile, nothing to score")
			return 0, nil
		}
		return 0, err
	}

	targets, err := u.loadTargets(ctx)
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	scored := make(chan recommendation.Recommendation, len(targets))

	pool := pipeline.NewWorkerPool(u.workers, len(targets))
	results := pool.Run(ctx)
	for _, t := range targets {
		t := t
		pool.Submit(func(ctx context.Context) error {
			res := scoring.Score(pr.Profile, t, u.weights, now)
			if !res.Eligible || res.Tier == "" {
				return nil
			}
			scored <- recommendation.Recommendation{
				ID:          uuid.New(),
				ApplicantID: applicantID,
				TargetID:    t.ID,
				TargetType:  t.Type,
				Score:       res.Score,
				Tier:        res.Tier,
				Explain: recommendation.Explain{
					Reasons:       res.Reasons,
					MatchedSkills: res.MatchedSkills,
				},
			}
			return nil
		})
	}
	pool.Close()
	for range results {
	}
	close(scored)

	count := 0
	for rec := range scored {
		if err := u.recs.Upsert(ctx, rec); err != nil {
			u.log.Warn().Err(err).
				Str("applicant_id", applicantID.String()).
				Str("target_id", rec.TargetID.String()).
				Msg("recommendation upsert failed")
			continue
		}
		count++
	}

	u.log.Info().
		Str("applicant_id", applicantID.String()).
		Int("targets", len(targets)).
		Int("stored", count).
		Msg("re-score finished")
	return count, nil
}

// loadTargets merges the active catalog into the unified scoring view,
// skipping malformed rows with a warning instead of aborting the run.
func (u *Scoring) loadTargets(ctx context.Context) ([]catalog.Target, error) {
	jobs, err := u.catalog.ListActiveJobs(ctx)
	if err != nil {
		return nil, err
	}
	programs, err := u.catalog.ListApprovedPrograms(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Target, 0, len(jobs)+len(programs))
	for _, j := range jobs {
		t := j.Target()
		if err := t.Validate(); err != nil {
			u.log.Warn().Str("target_id", j.ID.String()).Str("target_type", "job").Msg("skipping malformed target")
			continue
		}
		out = append(out, t)
	}
	for _, p := range programs {
		t := p.Target()
		if err := t.Validate(); err != nil {
			u.log.Warn().Str("target_id", p.ID.String()).Str("target_type", "college_program").Msg("skipping malformed target")
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
