package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"talent-match/internal/domain/recommendation"
	"talent-match/internal/repository"
	pkgerrors "talent-match/pkg/errors"
)

type RecommendationUsecase interface {
	List(ctx context.Context, applicantID uuid.UUID, targetType, tier string) ([]recommendation.Recommendation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to string) (recommendation.Recommendation, error)
}

type Recommendations struct {
	recs       repository.RecommendationRepository
	applicants repository.ApplicantRepository
	log        zerolog.Logger
}

func NewRecommendationUsecase(
	recs repository.RecommendationRepository,
	applicants repository.ApplicantRepository,
	log zerolog.Logger,
) *Recommendations {
	return &Recommendations{recs: recs, applicants: applicants, log: log}
}

func (u *Recommendations) List(ctx context.Context, applicantID uuid.UUID, targetType, tier string) ([]recommendation.Recommendation, error) {
	if _, err := u.applicants.Get(ctx, applicantID); err != nil {
		return nil, err
	}
	return u.recs.ListByApplicant(ctx, applicantID, repository.RecommendationFilter{
		TargetType: targetType,
		Tier:       tier,
	})
}

// UpdateStatus applies an externally triggered status move after checking it
// is a legal funnel transition. Ownership and authorization are the caller's
// concern.
func (u *Recommendations) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (recommendation.Recommendation, error) {
	target, ok := recommendation.ParseStatus(to)
	if !ok {
		return recommendation.Recommendation{}, fmt.Errorf("%w: unknown status %q", pkgerrors.ErrInvalidStatusChange, to)
	}

	rec, err := u.recs.GetByID(ctx, id)
	if err != nil {
		return recommendation.Recommendation{}, err
	}

	if !recommendation.CanTransition(rec.Status, target) {
		return recommendation.Recommendation{}, fmt.Errorf("%w: %s -> %s", pkgerrors.ErrInvalidStatusChange, rec.Status, target)
	}

	if err := u.recs.UpdateStatus(ctx, id, target); err != nil {
		return recommendation.Recommendation{}, err
	}

	u.log.Info().
		Str("recommendation_id", id.String()).
		Str("from", string(rec.Status)).
		Str("to", string(target)).
		Msg("recommendation status updated")

	rec.Status = target
	return rec, nil
}
