package repository

import (
	"context"

	"github.com/golfmax/fitting-edge/internal/domain/model"
)

// SubmissionRepository persists the intake ledger. The ledger is a
// best-effort record: a failed insert is logged by the caller and never
// fails the upload request.
type SubmissionRepository interface {
	// Create persists a new submission record.
	Create(ctx context.Context, record *model.SubmissionRecord) error
}
