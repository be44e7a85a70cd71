package recommendation

import (
	"time"

	"talent-match/internal/domain/catalog"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRecommended  Status = "recommended"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusOffered      Status = "offered"
	StatusAccepted     Status = "accepted"
	StatusRejected     Status = "rejected"
	StatusWithdrawn    Status = "withdrawn"
)

// Explain is rebuilt deterministically on every re-score; it is never
// free-text generated.
type Explain struct {
	Reasons       []string `json:"reasons"`
	MatchedSkills []string `json:"matched_skills"`
}

type Recommendation struct {
	ID          uuid.UUID          `json:"id"`
	ApplicantID uuid.UUID          `json:"applicant_id"`
	TargetID    uuid.UUID          `json:"target_id"`
	TargetType  catalog.TargetType `json:"target_type"`
	Score       float64            `json:"score"`
	Tier        string             `json:"tier"`
	Explain     Explain            `json:"explain"`
	Status      Status             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

var validStatus = map[Status]bool{
	StatusRecommended:  true,
	StatusApplied:      true,
	StatusInterviewing: true,
	StatusOffered:      true,
	StatusAccepted:     true,
	StatusRejected:     true,
	StatusWithdrawn:    true,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, validStatus[st]
}

// rank orders the funnel; a status never moves backwards through an upsert,
// and re-scoring never resurrects a withdrawn or rejected recommendation.
var rank = map[Status]int{
	StatusRecommended:  0,
	StatusApplied:      1,
	StatusInterviewing: 2,
	StatusOffered:      3,
	StatusAccepted:     4,
	StatusRejected:     4,
	StatusWithdrawn:    4,
}

// CanTransition reports whether an explicit applicant/employer action may move
// from one status to another.
func CanTransition(from, to Status) bool {
	if !validStatus[from] || !validStatus[to] {
		return false
	}
	if from == to {
		return false
	}
	// Withdrawal and rejection are allowed from any non-terminal state.
	if to == StatusWithdrawn || to == StatusRejected {
		return rank[from] < rank[to]
	}
	return rank[to] == rank[from]+1
}
