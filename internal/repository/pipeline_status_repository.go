package repository

import (
	"context"

	"talent-match/internal/database"
)

type PipelineParseSummary struct {
	ParseResults int
	NeedsReview  int
	OCRParses    int
}

type PipelineScoringSummary struct {
	Recommendations int
	AverageScore    float64
	HighTier        int
}

type PipelineStatusRepository interface {
	GetParseSummary(ctx context.Context) (PipelineParseSummary, error)
	GetScoringSummary(ctx context.Context) (PipelineScoringSummary, error)
	CountApplicants(ctx context.Context) (int, error)
}

type PostgresPipelineStatusRepository struct {
	db database.DB
}

func NewPostgresPipelineStatusRepository(db database.DB) *PostgresPipelineStatusRepository {
	return &PostgresPipelineStatusRepository{db: db}
}

func (r *PostgresPipelineStatusRepository) GetParseSummary(ctx context.Context) (PipelineParseSummary, error) {
	var out PipelineParseSummary
	row := r.db.QueryRow(ctx, `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE needs_review),
		       COUNT(1) FILTER (WHERE extraction_method = 'ocr')
		FROM parse_results`)
	if err := row.Scan(&out.ParseResults, &out.NeedsReview, &out.OCRParses); err != nil {
		return PipelineParseSummary{}, err
	}
	return out, nil
}

func (r *PostgresPipelineStatusRepository) GetScoringSummary(ctx context.Context) (PipelineScoringSummary, error) {
	var out PipelineScoringSummary
	row := r.db.QueryRow(ctx, `
		SELECT COUNT(1),
		       COALESCE(AVG(score), 0),
		       COUNT(1) FILTER (WHERE tier = 'high')
		FROM recommendations`)
	if err := row.Scan(&out.Recommendations, &out.AverageScore, &out.HighTier); err != nil {
		return PipelineScoringSummary{}, err
	}
	return out, nil
}

func (r *PostgresPipelineStatusRepository) CountApplicants(ctx context.Context) (int, error) {
	var n int
	row := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM applicants`)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
