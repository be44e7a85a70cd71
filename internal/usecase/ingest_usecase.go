package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"talent-match/internal/domain/profile"
	"talent-match/internal/extract"
	"talent-match/internal/infrastructure/queue"
	"talent-match/internal/pipeline"
	"talent-match/internal/repository"
	pkgerrors "talent-match/pkg/errors"
)

// allowedMimeTypes is the upload boundary allow-list.
var allowedMimeTypes = map[string]bool{
	extract.MimePDF:   true,
	extract.MimeDOCX:  true,
	extract.MimeDOC:   true,
	extract.MimePlain: true,
}

type UploadResult struct {
	ContentHash string `json:"content_hash"`
	ParseStatus string `json:"parse_status"`
	TriggerSeq  int64  `json:"trigger_seq"`
	// Existed is true when identical bytes were uploaded before; the blob is
	// shared and downstream extraction will be served from cache.
	Existed bool `json:"existed"`
}

type BlobPutter interface {
	Put(data []byte, mimeType string) (profile.RawDocument, bool, error)
}

type ParsePublisher interface {
	PublishParseJob(ctx context.Context, job queue.ParseJob) error
}

type StatusStore interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

type IngestUsecase interface {
	UploadDocument(ctx context.Context, applicantID uuid.UUID, data []byte, mimeType string, hints profile.Hints) (UploadResult, error)
	ParseStatus(ctx context.Context, applicantID uuid.UUID) (string, error)
}

type Ingest struct {
	blobs      BlobPutter
	documents  repository.DocumentRepository
	applicants repository.ApplicantRepository
	publisher  ParsePublisher
	status     StatusStore
	log        zerolog.Logger
}

func NewIngestUsecase(
	blobs BlobPutter,
	documents repository.DocumentRepository,
	applicants repository.ApplicantRepository,
	publisher ParsePublisher,
	status StatusStore,
	log zerolog.Logger,
) *Ingest {
	return &Ingest{
		blobs:      blobs,
		documents:  documents,
		applicants: applicants,
		publisher:  publisher,
		status:     status,
		log:        log,
	}
}

// UploadDocument accepts the raw bytes, records them content-addressed and
// enqueues an async parse. The upload returns as soon as the job is queued;
// parse progress is observable through ParseStatus and the notify socket.
func (u *Ingest) UploadDocument(ctx context.Context, applicantID uuid.UUID, data []byte, mimeType string, hints profile.Hints) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty document", pkgerrors.ErrUnreadableDocument)
	}
	if !allowedMimeTypes[mimeType] {
		return UploadResult{}, fmt.Errorf("%w: %s", pkgerrors.ErrUnsupportedMediaType, mimeType)
	}

	doc, existed, err := u.blobs.Put(data, mimeType)
	if err != nil {
		return UploadResult{}, fmt.Errorf("store blob: %w", err)
	}
	if err := u.documents.Upsert(ctx, doc); err != nil {
		return UploadResult{}, fmt.Errorf("record document: %w", err)
	}

	if err := u.applicants.UpsertHints(ctx, applicantID, hints); err != nil {
		return UploadResult{}, fmt.Errorf("upsert applicant: %w", err)
	}

	// Every upload is a new trigger, even for previously seen bytes: the
	// most recent trigger decides the current profile, so a re-upload of an
	// old document must still go through the worker to repoint it.
	seq, err := u.applicants.BumpTriggerSeq(ctx, applicantID)
	if err != nil {
		return UploadResult{}, fmt.Errorf("assign trigger seq: %w", err)
	}

	job := queue.ParseJob{
		ApplicantID: applicantID,
		ContentHash: doc.ContentHash,
		MimeType:    mimeType,
		TriggerSeq:  seq,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := u.publisher.PublishParseJob(ctx, job); err != nil {
		return UploadResult{}, fmt.Errorf("enqueue parse: %w", err)
	}

	if err := u.status.SetString(ctx, pipeline.StatusKey(applicantID), pipeline.StatusQueued, 24*time.Hour); err != nil {
		u.log.Warn().Err(err).Str("applicant_id", applicantID.String()).Msg("parse status write failed")
	}

	u.log.Info().
		Str("applicant_id", applicantID.String()).
		Str("content_hash", doc.ContentHash).
		Int64("trigger_seq", seq).
		Bool("existed", existed).
		Msg("document accepted for parsing")

	return UploadResult{
		ContentHash: doc.ContentHash,
		ParseStatus: pipeline.StatusQueued,
		TriggerSeq:  seq,
		Existed:     existed,
	}, nil
}

func (u *Ingest) ParseStatus(ctx context.Context, applicantID uuid.UUID) (string, error) {
	if _, err := u.applicants.Get(ctx, applicantID); err != nil {
		return "", err
	}
	status, ok, err := u.status.GetString(ctx, pipeline.StatusKey(applicantID))
	if err != nil || !ok {
		return "unknown", err
	}
	return status, nil
}
