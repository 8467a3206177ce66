// Package usecase implements the business logic behind the HTTP
// handlers: review curation with layered caching, and the upload
// intake pipeline.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
	"github.com/golfmax/fitting-edge/internal/infrastructure/metrics"
	"github.com/golfmax/fitting-edge/internal/infrastructure/places"
)

var (
	// ErrMissingConfig is returned when the reviews proxy has no API key
	// or no place id to serve.
	ErrMissingConfig = errors.New("reviews proxy is not configured")
)

// placesClient is the upstream surface the review service needs.
// *places.Client satisfies it; tests substitute a mock.
type placesClient interface {
	// DetailsRequestURL returns the fully-qualified upstream URL for a
	// place. It doubles as the edge cache key.
	DetailsRequestURL(placeID string) string

	// FetchDetails retrieves place details from upstream.
	FetchDetails(ctx context.Context, placeID string) (*places.Details, error)
}

// ReviewService serves curated review payloads for the reviews proxy.
type ReviewService interface {
	// Fetch returns the serialized curated-reviews body for a place.
	// An empty placeID falls back to the configured default.
	Fetch(ctx context.Context, placeID string) ([]byte, error)
}

// ReviewServiceConfig holds configuration for ReviewService.
type ReviewServiceConfig struct {
	// DefaultPlaceID is used when a request names no place.
	DefaultPlaceID string
	// UpstreamTimeout bounds the coalesced upstream fetch.
	UpstreamTimeout time.Duration
	// EdgeWriteTimeout bounds the async edge cache write.
	EdgeWriteTimeout time.Duration
}

// DefaultReviewServiceConfig returns the default configuration.
func DefaultReviewServiceConfig() ReviewServiceConfig {
	return ReviewServiceConfig{
		UpstreamTimeout:  15 * time.Second,
		EdgeWriteTimeout: 5 * time.Second,
	}
}

type reviewService struct {
	places  placesClient
	edge    repository.ResponseCache // shared tier, may be nil
	micro   repository.ResponseCache // per-process tier
	sfGroup singleflight.Group

	defaultPlaceID   string
	upstreamTimeout  time.Duration
	edgeWriteTimeout time.Duration
}

// NewReviewService creates a new ReviewService. places may be nil when
// the proxy is unconfigured; edge may be nil when no shared cache is
// deployed. micro is required.
func NewReviewService(
	placesClient placesClient,
	edge repository.ResponseCache,
	micro repository.ResponseCache,
	cfg ReviewServiceConfig,
) ReviewService {
	upstreamTimeout := cfg.UpstreamTimeout
	if upstreamTimeout <= 0 {
		upstreamTimeout = 15 * time.Second
	}
	edgeWriteTimeout := cfg.EdgeWriteTimeout
	if edgeWriteTimeout <= 0 {
		edgeWriteTimeout = 5 * time.Second
	}
	return &reviewService{
		places:           placesClient,
		edge:             edge,
		micro:            micro,
		defaultPlaceID:   cfg.DefaultPlaceID,
		upstreamTimeout:  upstreamTimeout,
		edgeWriteTimeout: edgeWriteTimeout,
	}
}

// Fetch serves the curated body micro-cache-first, then edge cache, then
// upstream. Concurrent misses for the same place are coalesced with
// singleflight so a cold start issues a single upstream call.
func (s *reviewService) Fetch(ctx context.Context, placeID string) ([]byte, error) {
	if placeID == "" {
		placeID = s.defaultPlaceID
	}
	if s.places == nil || placeID == "" {
		return nil, ErrMissingConfig
	}

	if body := s.microGet(ctx, placeID); body != nil {
		return body, nil
	}

	upstreamURL := s.places.DetailsRequestURL(placeID)

	// The flight gets a detached, bounded context: its result is shared
	// with coalesced callers, so the winner disconnecting must not fail
	// everyone behind it.
	result, err, shared := s.sfGroup.Do(upstreamURL, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), s.upstreamTimeout)
		defer cancel()
		return s.fetchWithCache(fetchCtx, placeID, upstreamURL)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// fetchWithCache implements the cache-aside path behind singleflight.
func (s *reviewService) fetchWithCache(ctx context.Context, placeID, upstreamURL string) ([]byte, error) {
	// Re-check the micro cache: a coalesced caller may arrive just after
	// the winner populated it.
	if body := s.microGet(ctx, placeID); body != nil {
		return body, nil
	}

	if s.edge != nil {
		body, err := s.edge.Get(ctx, upstreamURL)
		if err != nil {
			slog.Warn("edge cache get failed, falling back to upstream",
				"place_id", placeID,
				"error", err,
			)
		}
		if body != nil {
			s.microSet(ctx, placeID, body)
			return body, nil
		}
	}

	details, err := s.places.FetchDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}

	body, err := buildReviewsBody(details)
	if err != nil {
		return nil, err
	}

	s.microSet(ctx, placeID, body)
	s.edgeSet(upstreamURL, body)

	return body, nil
}

func (s *reviewService) microGet(ctx context.Context, placeID string) []byte {
	body, err := s.micro.Get(ctx, placeID)
	if err != nil {
		slog.Warn("micro cache get failed",
			"place_id", placeID,
			"error", err,
		)
		return nil
	}
	return body
}

func (s *reviewService) microSet(ctx context.Context, placeID string, body []byte) {
	if err := s.micro.Set(ctx, placeID, body); err != nil {
		slog.Warn("failed to populate micro cache",
			"place_id", placeID,
			"error", err,
		)
	}
}

// edgeSet writes the shared tier off the request path. The write gets
// its own context so a client disconnect cannot abort it.
func (s *reviewService) edgeSet(upstreamURL string, body []byte) {
	if s.edge == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.edgeWriteTimeout)
		defer cancel()

		if err := s.edge.Set(ctx, upstreamURL, body); err != nil {
			slog.Warn("failed to populate edge cache",
				"error", err,
			)
		}
	}()
}

// buildReviewsBody curates the upstream reviews and serializes the
// response. The summary fields come from upstream when present, and are
// otherwise derived from the full review list before curation so the
// average reflects everything upstream returned.
func buildReviewsBody(details *places.Details) ([]byte, error) {
	curated := model.Curate(details.Reviews)
	if curated == nil {
		curated = []model.Review{}
	}

	payload := model.CuratedReviews{
		Reviews: curated,
		URL:     details.URL,
		Rating:  details.Rating,
		Total:   details.Total,
	}

	if (payload.Rating == nil || payload.Total == nil) && len(details.Reviews) > 0 {
		avg, total := model.Summarize(details.Reviews)
		if payload.Rating == nil {
			payload.Rating = &avg
		}
		if payload.Total == nil {
			payload.Total = &total
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal reviews payload: %w", err)
	}
	return body, nil
}
