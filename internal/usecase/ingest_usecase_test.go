package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"talent-match/internal/contentstore"
	"talent-match/internal/domain/profile"
	"talent-match/internal/infrastructure/queue"
	pkgerrors "talent-match/pkg/errors"
)

type mockBlobPutter struct {
	seen map[string]bool
}

func newMockBlobPutter() *mockBlobPutter { return &mockBlobPutter{seen: map[string]bool{}} }

func (m *mockBlobPutter) Put(data []byte, mimeType string) (profile.RawDocument, bool, error) {
	hash := contentstore.Hash(data)
	existed := m.seen[hash]
	m.seen[hash] = true
	return profile.RawDocument{
		ContentHash: hash,
		MimeType:    mimeType,
		ByteSize:    int64(len(data)),
		UploadedAt:  time.Now().UTC(),
	}, existed, nil
}

type mockDocRepo struct {
	upserts int
}

func (m *mockDocRepo) Upsert(context.Context, profile.RawDocument) error {
	m.upserts++
	return nil
}

func (m *mockDocRepo) Get(context.Context, string) (profile.RawDocument, error) {
	return profile.RawDocument{}, nil
}

type mockPublisher struct {
	jobs []queue.ParseJob
	err  error
}

func (m *mockPublisher) PublishParseJob(_ context.Context, job queue.ParseJob) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type mockStatusStore struct {
	kv map[string]string
}

func newMockStatusStore() *mockStatusStore { return &mockStatusStore{kv: map[string]string{}} }

func (m *mockStatusStore) GetString(_ context.Context, key string) (string, bool, error) {
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *mockStatusStore) SetString(_ context.Context, key, value string, _ time.Duration) error {
	m.kv[key] = value
	return nil
}

func TestUploadDocument_QueuesParse(t *testing.T) {
	applicants := &mockApplicantRepo{}
	pub := &mockPublisher{}
	uc := NewIngestUsecase(newMockBlobPutter(), &mockDocRepo{}, applicants, pub, newMockStatusStore(), zerolog.Nop())

	res, err := uc.UploadDocument(context.Background(), uuid.New(), []byte("resume"), "text/plain", profile.Hints{Location: "Pune"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ParseStatus != "queued" || res.TriggerSeq != 1 {
		t.Fatalf("bad result: %+v", res)
	}
	if len(pub.jobs) != 1 || pub.jobs[0].ContentHash != res.ContentHash {
		t.Fatal("parse job must be enqueued with the content hash")
	}
	if applicants.hintCalls != 1 {
		t.Fatal("hints must be upserted")
	}
}

func TestUploadDocument_SameBytesShareBlobButTriggerNewParse(t *testing.T) {
	applicants := &mockApplicantRepo{}
	pub := &mockPublisher{}
	uc := NewIngestUsecase(newMockBlobPutter(), &mockDocRepo{}, applicants, pub, newMockStatusStore(), zerolog.Nop())

	first, err := uc.UploadDocument(context.Background(), uuid.New(), []byte("resume"), "text/plain", profile.Hints{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := uc.UploadDocument(context.Background(), uuid.New(), []byte("resume"), "text/plain", profile.Hints{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if first.Existed || !second.Existed {
		t.Fatalf("blob dedup mismatch: first=%v second=%v", first.Existed, second.Existed)
	}
	if first.ContentHash != second.ContentHash {
		t.Fatal("identical bytes must share one content hash")
	}
	// Each upload is a distinct trigger even when the bytes are shared.
	if len(pub.jobs) != 2 || pub.jobs[1].TriggerSeq != 2 {
		t.Fatalf("each upload must enqueue its own trigger, jobs=%d", len(pub.jobs))
	}
}

func TestUploadDocument_RejectsUnsupportedMime(t *testing.T) {
	uc := NewIngestUsecase(newMockBlobPutter(), &mockDocRepo{}, &mockApplicantRepo{}, &mockPublisher{}, newMockStatusStore(), zerolog.Nop())

	_, err := uc.UploadDocument(context.Background(), uuid.New(), []byte("gif89a"), "image/gif", profile.Hints{})
	if !errors.Is(err, pkgerrors.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestUploadDocument_RejectsEmptyBody(t *testing.T) {
	uc := NewIngestUsecase(newMockBlobPutter(), &mockDocRepo{}, &mockApplicantRepo{}, &mockPublisher{}, newMockStatusStore(), zerolog.Nop())

	_, err := uc.UploadDocument(context.Background(), uuid.New(), nil, "text/plain", profile.Hints{})
	if !errors.Is(err, pkgerrors.ErrUnreadableDocument) {
		t.Fatalf("expected ErrUnreadableDocument, got %v", err)
	}
}

func TestUploadDocument_PublishFailureSurfaces(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	uc := NewIngestUsecase(newMockBlobPutter(), &mockDocRepo{}, &mockApplicantRepo{}, pub, newMockStatusStore(), zerolog.Nop())

	_, err := uc.UploadDocument(context.Background(), uuid.New(), []byte("resume"), "text/plain", profile.Hints{})
	if err == nil {
		t.Fatal("a failed enqueue must fail the upload")
	}
}
