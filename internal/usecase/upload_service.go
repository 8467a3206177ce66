package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
)

const (
	// DefaultMaxUploadBytes caps submission size when no limit is configured.
	DefaultMaxUploadBytes = 300 << 20

	// DefaultSignedLinkTTL is the signed download link lifetime when no
	// TTL is configured.
	DefaultSignedLinkTTL = 24 * time.Hour

	minSignedLinkTTL = 5 * time.Minute
	maxSignedLinkTTL = 7 * 24 * time.Hour

	metadataContentType = "application/json; charset=utf-8"
)

// DefaultAllowedTypes are the MIME types accepted when no allow-list is
// configured. Submissions that declare no type at all are accepted.
var DefaultAllowedTypes = []string{
	"video/mp4",
	"video/quicktime",
	"video/webm",
	"video/mov",
	"video/x-m4v",
}

// ErrStorageWrite is wrapped around any failure to persist the video or
// its metadata sidecar.
var ErrStorageWrite = errors.New("storage write failed")

// MissingFieldError reports a required form field absent from a
// submission.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// UnsupportedTypeError reports a declared MIME type outside the
// allow-list.
type UnsupportedTypeError struct {
	Allowed []string
}

func (e *UnsupportedTypeError) Error() string {
	return "unsupported video type, allowed: " + strings.Join(e.Allowed, ", ")
}

// FileTooLargeError reports a submission over the size cap.
type FileTooLargeError struct {
	MaxBytes int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file exceeds the %d byte limit", e.MaxBytes)
}

// Notifier delivers a submission receipt to the configured side
// channels. notify.Dispatcher and the queue client both satisfy it.
type Notifier interface {
	Notify(ctx context.Context, receipt model.SubmissionReceipt) error
}

// UploadService ingests fitting-video submissions.
type UploadService interface {
	// Process validates a submission, persists the video and its JSON
	// sidecar, and returns the receipt. Signed links, the intake ledger
	// row and notifications are best-effort and never fail the request.
	Process(ctx context.Context, sub model.Submission) (*model.SubmissionReceipt, error)
}

// UploadServiceConfig holds configuration for UploadService.
type UploadServiceConfig struct {
	// MaxBytes caps the submission size. Zero means DefaultMaxUploadBytes.
	MaxBytes int64
	// AllowedTypes is the MIME allow-list. Empty means DefaultAllowedTypes.
	AllowedTypes []string
	// SignedLinkTTL is the download link lifetime, clamped to
	// [5m, 168h]. Zero means DefaultSignedLinkTTL.
	SignedLinkTTL time.Duration
	// NotifyTimeout bounds the async notification dispatch.
	NotifyTimeout time.Duration
}

// DefaultUploadServiceConfig returns the default configuration.
func DefaultUploadServiceConfig() UploadServiceConfig {
	return UploadServiceConfig{
		MaxBytes:      DefaultMaxUploadBytes,
		SignedLinkTTL: DefaultSignedLinkTTL,
		NotifyTimeout: 30 * time.Second,
	}
}

type uploadService struct {
	storage  repository.ObjectStorage
	ledger   repository.SubmissionRepository
	notifier Notifier

	maxBytes      int64
	allowedTypes  []string
	allowedSet    map[string]struct{}
	signedLinkTTL time.Duration
	notifyTimeout time.Duration

	now func() time.Time
}

// NewUploadService creates a new UploadService. storage may be nil when
// no bucket is configured; ledger and notifier may be nil.
func NewUploadService(
	storage repository.ObjectStorage,
	ledger repository.SubmissionRepository,
	notifier Notifier,
	cfg UploadServiceConfig,
) UploadService {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	allowed := cfg.AllowedTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	normalized := make([]string, 0, len(allowed))
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := allowedSet[t]; dup {
			continue
		}
		allowedSet[t] = struct{}{}
		normalized = append(normalized, t)
	}
	notifyTimeout := cfg.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = 30 * time.Second
	}
	return &uploadService{
		storage:       storage,
		ledger:        ledger,
		notifier:      notifier,
		maxBytes:      maxBytes,
		allowedTypes:  normalized,
		allowedSet:    allowedSet,
		signedLinkTTL: clampSignedLinkTTL(cfg.SignedLinkTTL),
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

// clampSignedLinkTTL bounds a configured TTL to what the storage
// backend will actually honor for presigned URLs.
func clampSignedLinkTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return DefaultSignedLinkTTL
	case ttl < minSignedLinkTTL:
		return minSignedLinkTTL
	case ttl > maxSignedLinkTTL:
		return maxSignedLinkTTL
	default:
		return ttl
	}
}

// Process runs the intake pipeline: validate, persist, link, record,
// notify. The sidecar is written after the video so the sweep job can
// treat a sidecar-less video object as an aborted upload.
func (s *uploadService) Process(ctx context.Context, sub model.Submission) (*model.SubmissionReceipt, error) {
	if s.storage == nil {
		return nil, repository.ErrBucketNotConfigured
	}

	if err := s.validate(sub); err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(sub.ContentType))
	if contentType == "" {
		contentType = model.DefaultContentType
	}

	videoKey := model.VideoObjectKey(sub.Fields["name"], sub.FileName, s.now())
	metadataKey := model.MetadataKeyFor(videoKey)

	if err := s.storage.Upload(ctx, videoKey, sub.Body, sub.SizeBytes, contentType, model.SafeMetadata(sub.Fields)); err != nil {
		return nil, fmt.Errorf("%w: video object: %v", ErrStorageWrite, err)
	}

	sidecar, err := s.buildSidecar(sub, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata sidecar: %v", ErrStorageWrite, err)
	}
	if err := s.storage.Upload(ctx, metadataKey, bytes.NewReader(sidecar), int64(len(sidecar)), metadataContentType, nil); err != nil {
		return nil, fmt.Errorf("%w: metadata sidecar: %v", ErrStorageWrite, err)
	}

	receipt := model.SubmissionReceipt{
		Fields:           sub.Fields,
		ObjectKey:        videoKey,
		MetadataKey:      metadataKey,
		OriginalFileName: sub.FileName,
		SizeBytes:        sub.SizeBytes,
		ContentType:      contentType,
	}
	s.attachSignedLinks(ctx, &receipt)

	s.recordSubmission(ctx, receipt)
	s.dispatchNotification(receipt)

	return &receipt, nil
}

// validate checks required fields, the MIME allow-list and the size
// cap, in that order.
func (s *uploadService) validate(sub model.Submission) error {
	for _, field := range model.RequiredFields {
		if strings.TrimSpace(sub.Fields[field]) == "" {
			return &MissingFieldError{Field: field}
		}
	}

	if sub.ContentType != "" {
		declared := strings.ToLower(strings.TrimSpace(sub.ContentType))
		if _, ok := s.allowedSet[declared]; !ok {
			return &UnsupportedTypeError{Allowed: s.allowedTypes}
		}
	}

	if sub.SizeBytes > s.maxBytes {
		return &FileTooLargeError{MaxBytes: s.maxBytes}
	}
	return nil
}

// buildSidecar serializes the submission metadata written next to the
// video object.
func (s *uploadService) buildSidecar(sub model.Submission, contentType string) ([]byte, error) {
	payload := struct {
		Fields           map[string]string `json:"fields"`
		OriginalFileName string            `json:"original_file_name"`
		SizeBytes        int64             `json:"size_bytes"`
		ContentType      string            `json:"content_type"`
		StoredAt         string            `json:"stored_at"`
	}{
		Fields:           sub.Fields,
		OriginalFileName: sub.FileName,
		SizeBytes:        sub.SizeBytes,
		ContentType:      contentType,
		StoredAt:         s.now().UTC().Format(time.RFC3339),
	}
	return json.Marshal(payload)
}

// attachSignedLinks issues best-effort download URLs for the stored
// pair. A failed presign leaves the link empty and logs a warning.
func (s *uploadService) attachSignedLinks(ctx context.Context, receipt *model.SubmissionReceipt) {
	videoURL, err := s.storage.PresignedDownloadURL(ctx, receipt.ObjectKey, s.signedLinkTTL)
	if err != nil {
		slog.Warn("failed to presign video download link",
			"object_key", receipt.ObjectKey,
			"error", err,
		)
		return
	}

	receipt.SignedVideoURL = videoURL
	receipt.SignedExpiresAt = s.now().UTC().Add(s.signedLinkTTL)
	receipt.SignedTTLSeconds = int(s.signedLinkTTL / time.Second)

	metaURL, err := s.storage.PresignedDownloadURL(ctx, receipt.MetadataKey, s.signedLinkTTL)
	if err != nil {
		slog.Warn("failed to presign metadata download link",
			"object_key", receipt.MetadataKey,
			"error", err,
		)
		return
	}
	receipt.SignedMetaURL = metaURL
}

// recordSubmission writes the intake ledger row. Ledger failures are
// logged and never surface to the client.
func (s *uploadService) recordSubmission(ctx context.Context, receipt model.SubmissionReceipt) {
	if s.ledger == nil {
		return
	}

	record := &model.SubmissionRecord{
		ID:          uuid.New(),
		ObjectKey:   receipt.ObjectKey,
		MetadataKey: receipt.MetadataKey,
		ClientName:  receipt.Fields["name"],
		Email:       receipt.Fields["email"],
		SizeBytes:   receipt.SizeBytes,
		ContentType: receipt.ContentType,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		slog.Warn("failed to record submission",
			"object_key", receipt.ObjectKey,
			"error", err,
		)
	}
}

// dispatchNotification fires the side channels off the request path.
// The dispatch gets its own context so the client response never waits
// on a webhook or mail API.
func (s *uploadService) dispatchNotification(receipt model.SubmissionReceipt) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, receipt); err != nil {
			slog.Warn("notification dispatch failed",
				"object_key", receipt.ObjectKey,
				"error", err,
			)
		}
	}()
}
