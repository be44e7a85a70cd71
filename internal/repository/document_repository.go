package repository

import (
	"context"
	"database/sql"
	"errors"

	"talent-match/internal/database"
	"talent-match/internal/domain/profile"

	"github.com/jackc/pgx/v5"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository interface {
	// Upsert records the document metadata; a re-upload of the same bytes is
	// a no-op on the existing row.
	Upsert(ctx context.Context, doc profile.RawDocument) error
	Get(ctx context.Context, contentHash string) (profile.RawDocument, error)
}

type PostgresDocumentRepository struct {
	db database.DB
}

func NewPostgresDocumentRepository(db database.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

func (r *PostgresDocumentRepository) Upsert(ctx context.Context, doc profile.RawDocument) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO raw_documents (content_hash, mime_type, byte_size, uploaded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_hash) DO NOTHING`,
		doc.ContentHash, doc.MimeType, doc.ByteSize, doc.UploadedAt,
	)
	return err
}

func (r *PostgresDocumentRepository) Get(ctx context.Context, contentHash string) (profile.RawDocument, error) {
	var doc profile.RawDocument
	row := r.db.QueryRow(ctx, `
		SELECT content_hash, mime_type, byte_size, uploaded_at
		FROM raw_documents WHERE content_hash = $1`, contentHash)
	if err := row.Scan(&doc.ContentHash, &doc.MimeType, &doc.ByteSize, &doc.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return profile.RawDocument{}, ErrDocumentNotFound
		}
		return profile.RawDocument{}, err
	}
	return doc, nil
}
