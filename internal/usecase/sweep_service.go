package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golfmax/fitting-edge/internal/domain/repository"
)

const videoKeyPrefix = "videos/"

// SweepService removes orphaned video objects: uploads whose request
// died between the video write and the sidecar write. A video object
// old enough to be outside any in-flight request and still missing its
// ".json" sidecar is garbage.
type SweepService interface {
	// Sweep scans the video prefix once and deletes orphans older than
	// the grace period. Returns how many objects were deleted.
	Sweep(ctx context.Context) (int, error)
}

// SweepServiceConfig holds configuration for SweepService.
type SweepServiceConfig struct {
	// Grace is the minimum age before a sidecar-less object is deleted.
	Grace time.Duration
}

type sweepService struct {
	storage repository.ObjectStorage
	grace   time.Duration
	now     func() time.Time
}

// NewSweepService creates a new SweepService.
func NewSweepService(storage repository.ObjectStorage, cfg SweepServiceConfig) SweepService {
	grace := cfg.Grace
	if grace <= 0 {
		grace = 24 * time.Hour
	}
	return &sweepService{
		storage: storage,
		grace:   grace,
		now:     time.Now,
	}
}

func (s *sweepService) Sweep(ctx context.Context) (int, error) {
	objects, err := s.storage.List(ctx, videoKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list video objects: %w", err)
	}

	sidecars := make(map[string]struct{})
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, ".json") {
			sidecars[obj.Key] = struct{}{}
		}
	}

	cutoff := s.now().Add(-s.grace)
	deleted := 0
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		if _, paired := sidecars[obj.Key+".json"]; paired {
			continue
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}

		if err := s.storage.Delete(ctx, obj.Key); err != nil {
			slog.Warn("failed to delete orphaned video object",
				"object_key", obj.Key,
				"error", err,
			)
			continue
		}
		slog.Info("deleted orphaned video object",
			"object_key", obj.Key,
			"last_modified", obj.LastModified,
		)
		deleted++
	}
	return deleted, nil
}
