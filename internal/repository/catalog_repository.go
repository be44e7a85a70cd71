package repository

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"talent-match/internal/database"
	"talent-match/internal/domain/catalog"
)

type CatalogRepository interface {
	// ListActiveJobs returns the active job snapshot; inactive rows never
	// reach the scoring engine.
	ListActiveJobs(ctx context.Context) ([]catalog.Job, error)
	ListApprovedPrograms(ctx context.Context) ([]catalog.CollegeProgram, error)
}

type PostgresCatalogRepository struct {
	db  database.DB
	log zerolog.Logger
}

func NewPostgresCatalogRepository(db database.DB, log zerolog.Logger) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db, log: log}
}

// A malformed catalog row is skipped with a warning rather than failing the
// listing: one bad posting must never block scoring against the rest.
func (r *PostgresCatalogRepository) ListActiveJobs(ctx context.Context) ([]catalog.Job, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, COALESCE(company, ''), COALESCE(location, ''),
		       min_cgpa, min_experience_years, required_skills, optional_skills, posted_at
		FROM jobs
		WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Job, 0)
	for rows.Next() {
		var (
			j        catalog.Job
			required []byte
			optional []byte
		)
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location,
			&j.MinCGPA, &j.MinExperienceYears, &required, &optional, &j.PostedAt); err != nil {
			r.log.Warn().Err(err).Str("target_type", "job").Msg("skipping unreadable catalog row")
			continue
		}
		if err := json.Unmarshal(required, &j.RequiredSkills); err != nil {
			r.log.Warn().Err(err).Str("target_id", j.ID.String()).Str("target_type", "job").Msg("skipping row with malformed required_skills")
			continue
		}
		if err := json.Unmarshal(optional, &j.OptionalSkills); err != nil {
			r.log.Warn().Err(err).Str("target_id", j.ID.String()).Str("target_type", "job").Msg("skipping row with malformed optional_skills")
			continue
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresCatalogRepository) ListApprovedPrograms(ctx context.Context) ([]catalog.CollegeProgram, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(institution, ''),
		       min_cgpa, min_jee_rank, seats, required_skills, optional_skills, updated_at
		FROM college_programs
		WHERE approved`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.CollegeProgram, 0)
	for rows.Next() {
		var (
			p        catalog.CollegeProgram
			required []byte
			optional []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Institution,
			&p.MinCGPA, &p.MinJEERank, &p.Seats, &required, &optional, &p.UpdatedAt); err != nil {
			r.log.Warn().Err(err).Str("target_type", "college_program").Msg("skipping unreadable catalog row")
			continue
		}
		if err := json.Unmarshal(required, &p.RequiredSkills); err != nil {
			r.log.Warn().Err(err).Str("target_id", p.ID.String()).Str("target_type", "college_program").Msg("skipping row with malformed required_skills")
			continue
		}
		if err := json.Unmarshal(optional, &p.OptionalSkills); err != nil {
			r.log.Warn().Err(err).Str("target_id", p.ID.String()).Str("target_type", "college_program").Msg("skipping row with malformed optional_skills")
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
