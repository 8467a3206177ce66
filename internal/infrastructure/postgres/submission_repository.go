package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SubmissionRepository implements repository.SubmissionRepository using
// PostgreSQL. The ledger is append-only; object storage remains the
// source of truth and a failed insert never fails the upload.
type SubmissionRepository struct {
	db DBTX
}

// Compile-time verification of the repository contract.
var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

// NewSubmissionRepository creates a new SubmissionRepository instance.
func NewSubmissionRepository(db DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create persists a new submission record.
func (r *SubmissionRepository) Create(ctx context.Context, record *model.SubmissionRecord) error {
	const query = `
		INSERT INTO submissions (id, object_key, metadata_key, client_name, email, size_bytes, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.ObjectKey,
		record.MetadataKey,
		record.ClientName,
		record.Email,
		record.SizeBytes,
		record.ContentType,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission record: %w", err)
	}

	return nil
}
