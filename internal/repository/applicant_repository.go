package repository

import (
	"context"
	"database/sql"
	"errors"

	"talent-match/internal/database"
	"talent-match/internal/domain/profile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrApplicantNotFound = errors.New("applicant not found")

type Applicant struct {
	ID                   uuid.UUID
	Name                 string
	Email                string
	Hints                profile.Hints
	CurrentParseResultID *uuid.UUID
	LatestTriggerSeq     int64
}

type ApplicantRepository interface {
	// UpsertHints creates the applicant row on first upload and merges the
	// optional hints without clobbering older non-empty values.
	UpsertHints(ctx context.Context, id uuid.UUID, hints profile.Hints) error
	Get(ctx context.Context, id uuid.UUID) (Applicant, error)

	// BumpTriggerSeq assigns the next trigger sequence for an upload. The
	// sequence orders competing parses for the same applicant.
	BumpTriggerSeq(ctx context.Context, id uuid.UUID) (int64, error)
	LatestTriggerSeq(ctx context.Context, id uuid.UUID) (int64, error)

	// SetCurrentParseResult moves the current profile pointer, but only when
	// seq is still the applicant's latest trigger. Returns false when a
	// fresher upload has superseded this parse.
	SetCurrentParseResult(ctx context.Context, id, parseResultID uuid.UUID, seq int64) (bool, error)
}

type PostgresApplicantRepository struct {
	db database.DB
}

func NewPostgresApplicantRepository(db database.DB) *PostgresApplicantRepository {
	return &PostgresApplicantRepository{db: db}
}

func (r *PostgresApplicantRepository) UpsertHints(ctx context.Context, id uuid.UUID, hints profile.Hints) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO applicants (id, location_hint, jee_rank_hint, preferences)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			location_hint = CASE WHEN EXCLUDED.location_hint <> '' THEN EXCLUDED.location_hint ELSE applicants.location_hint END,
			jee_rank_hint = COALESCE(EXCLUDED.jee_rank_hint, applicants.jee_rank_hint),
			preferences   = CASE WHEN EXCLUDED.preferences <> '' THEN EXCLUDED.preferences ELSE applicants.preferences END,
			updated_at    = now()`,
		id, hints.Location, hints.JEERank, hints.Preferences,
	)
	return err
}

func (r *PostgresApplicantRepository) Get(ctx context.Context, id uuid.UUID) (Applicant, error) {
	var a Applicant
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, location_hint, jee_rank_hint, preferences,
		       current_parse_result_id, latest_trigger_seq
		FROM applicants WHERE id = $1`, id)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email,
		&a.Hints.Location, &a.Hints.JEERank, &a.Hints.Preferences,
		&a.CurrentParseResultID, &a.LatestTriggerSeq,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return Applicant{}, ErrApplicantNotFound
		}
		return Applicant{}, err
	}
	return a, nil
}

func (r *PostgresApplicantRepository) BumpTriggerSeq(ctx context.Context, id uuid.UUID) (int64, error) {
	var seq int64
	row := r.db.QueryRow(ctx, `
		UPDATE applicants
		SET latest_trigger_seq = latest_trigger_seq + 1, updated_at = now()
		WHERE id = $1
		RETURNING latest_trigger_seq`, id)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrApplicantNotFound
		}
		return 0, err
	}
	return seq, nil
}

func (r *PostgresApplicantRepository) LatestTriggerSeq(ctx context.Context, id uuid.UUID) (int64, error) {
	var seq int64
	row := r.db.QueryRow(ctx, `SELECT latest_trigger_seq FROM applicants WHERE id = $1`, id)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrApplicantNotFound
		}
		return 0, err
	}
	return seq, nil
}

func (r *PostgresApplicantRepository) SetCurrentParseResult(ctx context.Context, id, parseResultID uuid.UUID, seq int64) (bool, error) {
	affected, err := r.db.Exec(ctx, `
		UPDATE applicants
		SET current_parse_result_id = $2, updated_at = now()
		WHERE id = $1 AND latest_trigger_seq = $3`,
		id, parseResultID, seq,
	)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
