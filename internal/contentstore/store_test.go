package contentstore

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	data := []byte("%PDF-1.4 fake resume bytes")
	doc, existed, err := s.Put(data, "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if existed {
		t.Fatal("first put must not report existing")
	}
	if doc.ByteSize != int64(len(data)) || doc.MimeType != "application/pdf" {
		t.Fatalf("bad doc record: %+v", doc)
	}

	got, err := s.Get(doc.ContentHash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("blob bytes changed in transit")
	}
}

func TestPutSameBytesIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	data := []byte("same bytes twice")
	first, _, err := s.Put(data, "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	second, existed, err := s.Put(data, "text/plain")
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if !existed {
		t.Fatal("second put of identical bytes must report existing")
	}
	if first.ContentHash != second.ContentHash {
		t.Fatal("identical bytes must hash identically")
	}
}

func TestGetUnknownHash(t *testing.T) {
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Get(Hash([]byte("never stored"))); err == nil {
		t.Fatal("expected error for missing blob")
	}
}
