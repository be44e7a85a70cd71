// Package queue moves parse jobs between the API server and the worker over
// RabbitMQ. The queue is durable and messages are acked only after the
// handler returns, so a worker crash requeues the job.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"talent-match/internal/config"
)

// ParseJob is the wire message for one parse attempt. TriggerSeq orders
// competing uploads for the same applicant; a worker drops the job when the
// applicant has already moved past this sequence.
type ParseJob struct {
	ApplicantID uuid.UUID `json:"applicant_id"`
	ContentHash string    `json:"content_hash"`
	MimeType    string    `json:"mime_type"`
	TriggerSeq  int64     `json:"trigger_seq"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     zerolog.Logger
}

func NewRabbitMQ(cfg config.QueueConfig, log zerolog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.ParseQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.ParseQueue, err)
	}

	// One unacked message per worker keeps slow parses from starving peers.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	log.Info().Str("queue", q.Name).Msg("connected to rabbitmq")
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

func (r *RabbitMQ) PublishParseJob(ctx context.Context, job ParseJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal parse job: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		pubCtx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// ConsumeParseJobs delivers jobs to handler until ctx is cancelled. A
// handler error nacks the message with requeue so another worker retries it;
// a malformed message is dropped.
func (r *RabbitMQ) ConsumeParseJobs(ctx context.Context, handler func(context.Context, ParseJob) error) error {
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel closed")
			}

			var job ParseJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				r.log.Error().Err(err).Msg("dropping malformed parse job")
				_ = d.Nack(false, false)
				continue
			}

			if err := handler(ctx, job); err != nil {
				r.log.Warn().Err(err).
					Str("applicant_id", job.ApplicantID.String()).
					Msg("parse job failed, requeueing")
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
