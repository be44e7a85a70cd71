package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"talent-match/internal/database"
	"talent-match/internal/domain/recommendation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrRecommendationNotFound = errors.New("recommendation not found")

type RecommendationFilter struct {
	TargetType string
	Tier       string
}

type RecommendationRepository interface {
	// Upsert refreshes score, tier and explanation for the (applicant,
	// target) pair. Status is never touched: a recommendation an applicant
	// has acted on keeps its progressed status across re-scores.
	Upsert(ctx context.Context, rec recommendation.Recommendation) error
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, f RecommendationFilter) ([]recommendation.Recommendation, error)
	GetByID(ctx context.Context, id uuid.UUID) (recommendation.Recommendation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to recommendation.Status) error
}

type PostgresRecommendationRepository struct {
	db database.DB
}

func NewPostgresRecommendationRepository(db database.DB) *PostgresRecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

func (r *PostgresRecommendationRepository) Upsert(ctx context.Context, rec recommendation.Recommendation) error {
	explainJSON, err := json.Marshal(rec.Explain)
	if err != nil {
		return fmt.Errorf("marshal explain: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO recommendations
			(id, applicant_id, target_id, target_type, score, tier, explain, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (applicant_id, target_id, target_type) DO UPDATE SET
			score      = EXCLUDED.score,
			tier       = EXCLUDED.tier,
			explain    = EXCLUDED.explain,
			updated_at = now()`,
		rec.ID, rec.ApplicantID, rec.TargetID, rec.TargetType,
		rec.Score, rec.Tier, explainJSON, recommendation.StatusRecommended,
	)
	return err
}

func (r *PostgresRecommendationRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, f RecommendationFilter) ([]recommendation.Recommendation, error) {
	query := `
		SELECT id, applicant_id, target_id, target_type, score, tier, explain, status, created_at, updated_at
		FROM recommendations
		WHERE applicant_id = $1`
	args := []any{applicantID}

	if f.TargetType != "" {
		args = append(args, f.TargetType)
		query += fmt.Sprintf(" AND target_type = $%d", len(args))
	}
	if f.Tier != "" {
		args = append(args, f.Tier)
		query += fmt.Sprintf(" AND tier = $%d", len(args))
	}
	query += " ORDER BY score DESC, updated_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]recommendation.Recommendation, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (recommendation.Recommendation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, applicant_id, target_id, target_type, score, tier, explain, status, created_at, updated_at
		FROM recommendations WHERE id = $1`, id)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return recommendation.Recommendation{}, ErrRecommendationNotFound
		}
		return recommendation.Recommendation{}, err
	}
	return rec, nil
}

func (r *PostgresRecommendationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to recommendation.Status) error {
	affected, err := r.db.Exec(ctx, `
		UPDATE recommendations SET status = $2, updated_at = now() WHERE id = $1`,
		id, to,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecommendationNotFound
	}
	return nil
}

func scanRecommendation(row database.Row) (recommendation.Recommendation, error) {
	var (
		rec         recommendation.Recommendation
		explainJSON []byte
	)
	err := row.Scan(
		&rec.ID, &rec.ApplicantID, &rec.TargetID, &rec.TargetType,
		&rec.Score, &rec.Tier, &explainJSON, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return recommendation.Recommendation{}, err
	}
	if err := json.Unmarshal(explainJSON, &rec.Explain); err != nil {
		return recommendation.Recommendation{}, fmt.Errorf("unmarshal explain: %w", err)
	}
	return rec, nil
}
