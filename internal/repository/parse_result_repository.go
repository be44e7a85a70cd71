package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"talent-match/internal/database"
	"talent-match/internal/domain/profile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrParseResultNotFound = errors.New("parse result not found")

type ParseResultRepository interface {
	Insert(ctx context.Context, pr profile.ParseResult) error
	GetByID(ctx context.Context, id uuid.UUID) (profile.ParseResult, error)
	// GetCurrent resolves the applicant's current profile pointer.
	GetCurrent(ctx context.Context, applicantID uuid.UUID) (profile.ParseResult, error)
}

type PostgresParseResultRepository struct {
	db database.DB
}

func NewPostgresParseResultRepository(db database.DB) *PostgresParseResultRepository {
	return &PostgresParseResultRepository{db: db}
}

func (r *PostgresParseResultRepository) Insert(ctx context.Context, pr profile.ParseResult) error {
	profileJSON, err := json.Marshal(pr.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	flags := pr.Flags
	if flags == nil {
		flags = []string{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO parse_results
			(id, applicant_id, content_hash, profile, confidence, flags,
			 needs_review, extractor_version, extraction_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pr.ID, pr.ApplicantID, pr.ContentHash, profileJSON, pr.Confidence, flagsJSON,
		pr.NeedsReview, pr.ExtractorVersion, pr.ExtractionMethod, pr.CreatedAt,
	)
	return err
}

func (r *PostgresParseResultRepository) GetByID(ctx context.Context, id uuid.UUID) (profile.ParseResult, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, applicant_id, content_hash, profile, confidence, flags,
		       needs_review, extractor_version, extraction_method, created_at
		FROM parse_results WHERE id = $1`, id)
	return scanParseResult(row)
}

func (r *PostgresParseResultRepository) GetCurrent(ctx context.Context, applicantID uuid.UUID) (profile.ParseResult, error) {
	row := r.db.QueryRow(ctx, `
		SELECT pr.id, pr.applicant_id, pr.content_hash, pr.profile, pr.confidence, pr.flags,
		       pr.needs_review, pr.extractor_version, pr.extraction_method, pr.created_at
		FROM applicants a
		JOIN parse_results pr ON pr.id = a.current_parse_result_id
		WHERE a.id = $1`, applicantID)
	return scanParseResult(row)
}

func scanParseResult(row database.Row) (profile.ParseResult, error) {
	var (
		pr          profile.ParseResult
		profileJSON []byte
		flagsJSON   []byte
	)
	err := row.Scan(
		&pr.ID, &pr.ApplicantID, &pr.ContentHash, &profileJSON, &pr.Confidence, &flagsJSON,
		&pr.NeedsReview, &pr.ExtractorVersion, &pr.ExtractionMethod, &pr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return profile.ParseResult{}, ErrParseResultNotFound
		}
		return profile.ParseResult{}, err
	}
	if err := json.Unmarshal(profileJSON, &pr.Profile); err != nil {
		return profile.ParseResult{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	if err := json.Unmarshal(flagsJSON, &pr.Flags); err != nil {
		return profile.ParseResult{}, fmt.Errorf("unmarshal flags: %w", err)
	}
	return pr, nil
}
