package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"talent-match/internal/domain/profile"
)

func jobRow(id uuid.UUID, title string, required []byte) []any {
	now := time.Now().UTC()
	return []any{id, title, "Acme", "Pune", nil, 0.0, required, []byte(`[]`), now}
}

func TestListActiveJobs_SkipsMalformedRows(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	db := &fakeDB{rows: &fakeRows{rows: [][]any{
		jobRow(good, "Backend Engineer", []byte(`[{"name":"python","level":"intermediate"}]`)),
		jobRow(bad, "Broken Posting", []byte(`{not json`)),
	}}}

	repo := NewPostgresCatalogRepository(db, zerolog.Nop())
	jobs, err := repo.ListActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("one malformed row must not fail the listing: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want only the well-formed one", len(jobs))
	}
	if jobs[0].ID != good {
		t.Fatalf("surviving job = %s, want %s", jobs[0].ID, good)
	}
	if jobs[0].RequiredSkills[0].Level != profile.LevelIntermediate {
		t.Fatalf("skill level = %v, want LevelIntermediate", jobs[0].RequiredSkills[0].Level)
	}
}

func TestListActiveJobs_SkipsScanFaults(t *testing.T) {
	good := uuid.New()
	db := &fakeDB{rows: &fakeRows{
		rows: [][]any{
			jobRow(uuid.New(), "Unreadable", []byte(`[]`)),
			jobRow(good, "Data Engineer", []byte(`[]`)),
		},
		scanErrs: map[int]error{0: errors.New("corrupt column")},
	}}

	repo := NewPostgresCatalogRepository(db, zerolog.Nop())
	jobs, err := repo.ListActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("a scan fault must not fail the listing: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != good {
		t.Fatalf("expected only the readable job, got %d rows", len(jobs))
	}
}

func TestListApprovedPrograms_SkipsMalformedRows(t *testing.T) {
	good := uuid.New()
	now := time.Now().UTC()
	db := &fakeDB{rows: &fakeRows{rows: [][]any{
		{good, "B.Tech CSE", "IIT", nil, 1000, 120, []byte(`[{"name":"c","level":"basic"}]`), []byte(`[]`), now},
		{uuid.New(), "Broken Program", "IIT", nil, nil, 60, []byte(`"level"`), []byte(`[]`), now},
	}}}

	repo := NewPostgresCatalogRepository(db, zerolog.Nop())
	programs, err := repo.ListApprovedPrograms(context.Background())
	if err != nil {
		t.Fatalf("one malformed row must not fail the listing: %v", err)
	}
	if len(programs) != 1 || programs[0].ID != good {
		t.Fatalf("expected only the well-formed program, got %d rows", len(programs))
	}
	if programs[0].RequiredSkills[0].Level != profile.LevelBasic {
		t.Fatalf("skill level = %v, want LevelBasic", programs[0].RequiredSkills[0].Level)
	}
}
