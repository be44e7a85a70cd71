package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventsChannel is the pub/sub channel the worker publishes pipeline events
// on and the server relays to connected sockets.
const EventsChannel = "notify:events"

type ParseCompletedEvent struct {
	Type          string `json:"type"`
	ApplicantID   string `json:"applicant_id"`
	ParseResultID string `json:"parse_result_id"`
	NeedsReview   bool   `json:"needs_review"`
	Timestamp     string `json:"timestamp"`
}

type ParseFailedEvent struct {
	Type        string `json:"type"`
	ApplicantID string `json:"applicant_id"`
	Reason      string `json:"reason"`
	Timestamp   string `json:"timestamp"`
}

type RecommendationsReadyEvent struct {
	Type        string `json:"type"`
	ApplicantID string `json:"applicant_id"`
	Count       int    `json:"count"`
	Timestamp   string `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Notifier turns pipeline progress into events on the shared pub/sub
// channel. The worker and the HTTP server run as separate processes, so
// events cross Redis rather than an in-process hub.
type Notifier struct {
	pub     Publisher
	channel string
	log     zerolog.Logger
}

func NewNotifier(pub Publisher, channel string, log zerolog.Logger) *Notifier {
	if channel == "" {
		channel = EventsChannel
	}
	return &Notifier{pub: pub, channel: channel, log: log}
}

func (n *Notifier) ParseCompleted(applicantID, parseResultID uuid.UUID, needsReview bool) {
	n.emit(ParseCompletedEvent{
		Type:          "parse_completed",
		ApplicantID:   applicantID.String(),
		ParseResultID: parseResultID.String(),
		NeedsReview:   needsReview,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) ParseFailed(applicantID uuid.UUID, reason string) {
	n.emit(ParseFailedEvent{
		Type:        "parse_failed",
		ApplicantID: applicantID.String(),
		Reason:      reason,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) RecommendationsReady(applicantID uuid.UUID, count int) {
	n.emit(RecommendationsReadyEvent{
		Type:        "recommendations_ready",
		ApplicantID: applicantID.String(),
		Count:       count,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) emit(event any) {
	if n == nil || n.pub == nil {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.pub.Publish(ctx, n.channel, b); err != nil {
		n.log.Warn().Err(err).Msg("notify publish failed")
	}
}

// Relay copies events from the subscription onto the hub until ctx is done
// or the source channel closes.
func Relay(ctx context.Context, events <-chan []byte, hub *Hub) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			hub.Broadcast(msg)
		}
	}
}
