// Package migration applies the schema in order at startup. Statements are
// idempotent and tracked in schema_migrations so a restart is a no-op.
package migration

import (
	"context"
	"fmt"

	"talent-match/internal/database"
)

type step struct {
	version int
	name    string
	ddl     string
}

var steps = []step{
	{1, "raw_documents", `
		CREATE TABLE IF NOT EXISTS raw_documents (
			content_hash TEXT PRIMARY KEY,
			mime_type    TEXT NOT NULL,
			byte_size    BIGINT NOT NULL,
			uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{2, "applicants", `
		CREATE TABLE IF NOT EXISTS applicants (
			id                      UUID PRIMARY KEY,
			name                    TEXT NOT NULL DEFAULT '',
			email                   TEXT NOT NULL DEFAULT '',
			location_hint           TEXT NOT NULL DEFAULT '',
			jee_rank_hint           INT,
			preferences             TEXT NOT NULL DEFAULT '',
			current_parse_result_id UUID,
			latest_trigger_seq      BIGINT NOT NULL DEFAULT 0,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{3, "parse_results", `
		CREATE TABLE IF NOT EXISTS parse_results (
			id                UUID PRIMARY KEY,
			applicant_id      UUID NOT NULL REFERENCES applicants(id),
			content_hash      TEXT NOT NULL REFERENCES raw_documents(content_hash),
			profile           JSONB NOT NULL,
			confidence        DOUBLE PRECISION NOT NULL,
			flags             JSONB NOT NULL DEFAULT '[]',
			needs_review      BOOLEAN NOT NULL DEFAULT FALSE,
			extractor_version TEXT NOT NULL,
			extraction_method TEXT NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{4, "parse_results_applicant_idx", `
		CREATE INDEX IF NOT EXISTS idx_parse_results_applicant
			ON parse_results (applicant_id, created_at DESC)`},
	{5, "jobs", `
		CREATE TABLE IF NOT EXISTS jobs (
			id                   UUID PRIMARY KEY,
			title                TEXT NOT NULL,
			company              TEXT NOT NULL DEFAULT '',
			location             TEXT NOT NULL DEFAULT '',
			min_cgpa             DOUBLE PRECISION,
			min_experience_years DOUBLE PRECISION NOT NULL DEFAULT 0,
			required_skills      JSONB NOT NULL DEFAULT '[]',
			optional_skills      JSONB NOT NULL DEFAULT '[]',
			active               BOOLEAN NOT NULL DEFAULT TRUE,
			posted_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{6, "college_programs", `
		CREATE TABLE IF NOT EXISTS college_programs (
			id              UUID PRIMARY KEY,
			name            TEXT NOT NULL,
			institution     TEXT NOT NULL DEFAULT '',
			min_cgpa        DOUBLE PRECISION,
			min_jee_rank    INT,
			seats           INT NOT NULL DEFAULT 0,
			required_skills JSONB NOT NULL DEFAULT '[]',
			optional_skills JSONB NOT NULL DEFAULT '[]',
			approved        BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{7, "recommendations", `
		CREATE TABLE IF NOT EXISTS recommendations (
			id           UUID PRIMARY KEY,
			applicant_id UUID NOT NULL REFERENCES applicants(id),
			target_id    UUID NOT NULL,
			target_type  TEXT NOT NULL,
			score        DOUBLE PRECISION NOT NULL,
			tier         TEXT NOT NULL,
			explain      JSONB NOT NULL DEFAULT '{}',
			status       TEXT NOT NULL DEFAULT 'recommended',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (applicant_id, target_id, target_type)
		)`},
	{8, "recommendations_applicant_idx", `
		CREATE INDEX IF NOT EXISTS idx_recommendations_applicant
			ON recommendations (applicant_id, score DESC)`},
}

func Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}

	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, s := range steps {
		if applied[s.version] {
			continue
		}
		if _, err := db.Exec(ctx, s.ddl); err != nil {
			return fmt.Errorf("migration %d (%s): %w", s.version, s.name, err)
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`,
			s.version, s.name,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", s.version, err)
		}
	}
	return nil
}
