package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"talent-match/internal/domain/catalog"
	"talent-match/internal/domain/recommendation"
)

func TestUpsert_NeverOverwritesStatus(t *testing.T) {
	db := &fakeDB{execN: 1}
	repo := NewPostgresRecommendationRepository(db)

	rec := recommendation.Recommendation{
		ID:          uuid.New(),
		ApplicantID: uuid.New(),
		TargetID:    uuid.New(),
		TargetType:  catalog.TargetJob,
		Score:       72,
		Tier:        "medium",
		Explain:     recommendation.Explain{Reasons: []string{"required skills matched"}},
	}

	// A re-score issues the same statement for an existing pair; the
	// applicant may have progressed it to applied/interviewing by then.
	for i := 0; i < 2; i++ {
		rec.Score = 72 + float64(i)
		if err := repo.Upsert(context.Background(), rec); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	if len(db.execSQL) != 2 {
		t.Fatalf("got %d exec calls, want 2", len(db.execSQL))
	}
	for _, query := range db.execSQL {
		_, update, found := strings.Cut(query, "DO UPDATE SET")
		if !found {
			t.Fatalf("upsert must resolve conflicts with DO UPDATE, got:\n%s", query)
		}
		if strings.Contains(update, "status") {
			t.Fatalf("the conflict update must leave status untouched, got:\n%s", update)
		}
		for _, col := range []string{"score", "tier", "explain", "updated_at"} {
			if !strings.Contains(update, col) {
				t.Fatalf("conflict update missing %s:\n%s", col, update)
			}
		}
	}

	// New pairs start at the funnel entry.
	args := db.execArgs[0]
	if args[len(args)-1] != recommendation.StatusRecommended {
		t.Fatalf("insert status = %v, want %v", args[len(args)-1], recommendation.StatusRecommended)
	}
}
