package usecase

import (
	"context"
	"io"
	"time"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
	"github.com/golfmax/fitting-edge/internal/infrastructure/places"
)

// mockPlacesClient provides a configurable mock for placesClient.
type mockPlacesClient struct {
	detailsRequestURLFn func(placeID string) string
	fetchDetailsFn      func(ctx context.Context, placeID string) (*places.Details, error)
}

func (m *mockPlacesClient) DetailsRequestURL(placeID string) string {
	if m.detailsRequestURLFn != nil {
		return m.detailsRequestURLFn(placeID)
	}
	return "https://upstream.example.com/details?place_id=" + placeID
}

func (m *mockPlacesClient) FetchDetails(ctx context.Context, placeID string) (*places.Details, error) {
	if m.fetchDetailsFn != nil {
		return m.fetchDetailsFn(ctx, placeID)
	}
	return &places.Details{}, nil
}

// mockResponseCache provides a configurable mock for ResponseCache.
type mockResponseCache struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, body []byte) error
}

func (m *mockResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockResponseCache) Set(ctx context.Context, key string, body []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, body)
	}
	return nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	uploadFn               func(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) error
	presignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	deleteFn               func(ctx context.Context, key string) error
	existsFn               func(ctx context.Context, key string) (bool, error)
	listFn                 func(ctx context.Context, prefix string) ([]repository.ObjectInfo, error)
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, size, contentType, userMetadata)
	}
	return nil
}

func (m *mockObjectStorage) PresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.presignedDownloadURLFn != nil {
		return m.presignedDownloadURLFn(ctx, key, expiry)
	}
	return "https://storage.example.com/" + key, nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

func (m *mockObjectStorage) List(ctx context.Context, prefix string) ([]repository.ObjectInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, prefix)
	}
	return nil, nil
}

// mockSubmissionRepository provides a configurable mock for
// SubmissionRepository.
type mockSubmissionRepository struct {
	createFn func(ctx context.Context, record *model.SubmissionRecord) error
}

func (m *mockSubmissionRepository) Create(ctx context.Context, record *model.SubmissionRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return nil
}

// mockNotifier provides a configurable mock for Notifier.
type mockNotifier struct {
	notifyFn func(ctx context.Context, receipt model.SubmissionReceipt) error
}

func (m *mockNotifier) Notify(ctx context.Context, receipt model.SubmissionReceipt) error {
	if m.notifyFn != nil {
		return m.notifyFn(ctx, receipt)
	}
	return nil
}
