// Package contentstore is the content-addressed blob store for uploaded
// documents. Blobs are keyed by the SHA-256 of their bytes, so identical
// uploads share one copy and the hash doubles as the dedup key for the rest
// of the pipeline.
package contentstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"talent-match/internal/domain/profile"
)

type Store struct {
	root string
	log  zerolog.Logger
}

func New(root string, log zerolog.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("content store root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create content store root: %w", err)
	}
	return &Store{root: root, log: log}, nil
}

// Hash returns the content hash used as the blob key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.root, hash[:2], hash)
}

// Put stores the blob and returns its document record. When the same bytes
// were stored before, existed is true and the blob is not rewritten.
func (s *Store) Put(data []byte, mimeType string) (profile.RawDocument, bool, error) {
	hash := Hash(data)
	doc := profile.RawDocument{
		ContentHash: hash,
		MimeType:    mimeType,
		ByteSize:    int64(len(data)),
		UploadedAt:  time.Now().UTC(),
	}

	p := s.path(hash)
	if _, err := os.Stat(p); err == nil {
		s.log.Debug().Str("content_hash", hash).Msg("blob already stored")
		return doc, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return profile.RawDocument{}, false, fmt.Errorf("create blob dir: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return profile.RawDocument{}, false, fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return profile.RawDocument{}, false, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return profile.RawDocument{}, false, fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return profile.RawDocument{}, false, fmt.Errorf("finalize blob: %w", err)
	}

	s.log.Info().Str("content_hash", hash).Int("bytes", len(data)).Msg("blob stored")
	return doc, false, nil
}

// Get returns the blob bytes for a content hash.
func (s *Store) Get(hash string) ([]byte, error) {
	if len(hash) < 3 {
		return nil, fmt.Errorf("invalid content hash %q", hash)
	}
	data, err := os.ReadFile(s.path(hash))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", hash, err)
	}
	return data, nil
}
