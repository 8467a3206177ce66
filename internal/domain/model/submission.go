package model

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// objectKeyPrefix groups all intake objects under one storage folder.
	objectKeyPrefix = "videos/"

	// maxSlugLength caps the client-name portion of an object key.
	maxSlugLength = 48

	// maxExtensionLength is the longest filename extension carried into
	// an object key.
	maxExtensionLength = 8

	// maxUserMetadataValue is the longest field value attached to the
	// stored object as user metadata. Longer values still land in the
	// JSON sidecar.
	maxUserMetadataValue = 1024

	// DefaultContentType is assumed when the client declares no MIME
	// type (mobile browsers frequently omit it).
	DefaultContentType = "application/octet-stream"
)

// RequiredFields are the form fields every submission must carry.
var RequiredFields = []string{"name", "email"}

// Submission is one multipart upload in flight. It lives for the
// duration of a single request; Body is the raw file stream and is
// consumed exactly once by the storage write.
type Submission struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Fields      map[string]string
	Body        io.Reader
}

// StoredObjects identifies the video/sidecar pair written for one
// submission. The sidecar key is always the video key plus ".json"; a
// video object with no sidecar is dirty state left to the sweep job.
type StoredObjects struct {
	VideoKey    string
	MetadataKey string
	SizeBytes   int64
	ContentType string
}

// SignedLinks is the best-effort bundle of time-limited download URLs
// issued after a successful write. Empty fields mean the link could not
// be issued; that is never an error.
type SignedLinks struct {
	VideoURL    string
	MetadataURL string
	ExpiresAt   time.Time
	TTL         time.Duration
}

// SubmissionReceipt is the full notification payload assembled once the
// storage write has succeeded. It travels over the webhook, the mail
// template and, when a queue is configured, the notification queue.
type SubmissionReceipt struct {
	Fields           map[string]string `json:"fields"`
	ObjectKey        string            `json:"object_key"`
	MetadataKey      string            `json:"metadata_key"`
	OriginalFileName string            `json:"original_file_name"`
	SizeBytes        int64             `json:"size_bytes"`
	ContentType      string            `json:"content_type"`
	SignedVideoURL   string            `json:"signed_video_url,omitempty"`
	SignedMetaURL    string            `json:"signed_metadata_url,omitempty"`
	SignedExpiresAt  time.Time         `json:"signed_url_expires_at,omitempty"`
	SignedTTLSeconds int               `json:"signed_url_ttl_seconds,omitempty"`
}

// SubmissionRecord is one row of the intake ledger.
type SubmissionRecord struct {
	ID          uuid.UUID
	ObjectKey   string
	MetadataKey string
	ClientName  string
	Email       string
	SizeBytes   int64
	ContentType string
	CreatedAt   time.Time
}

// VideoObjectKey derives the storage key for a submission's video
// object: videos/{timestamp}_{slug(name)}_{random}{ext}. The timestamp
// sorts keys chronologically, the slug keeps keys readable, and the
// random suffix makes concurrent same-second, same-name submissions
// non-colliding.
func VideoObjectKey(clientName, fileName string, now time.Time) string {
	ts := strings.NewReplacer(":", "-", ".", "-").
		Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	random := uuid.NewString()[:8]
	return objectKeyPrefix + ts + "_" + Slugify(clientName) + "_" + random + extensionOf(fileName)
}

// MetadataKeyFor returns the sidecar key paired with a video key.
func MetadataKeyFor(videoKey string) string {
	return videoKey + ".json"
}

// Slugify lowercases a value, collapses every run of non-alphanumeric
// characters to a single hyphen, trims leading and trailing hyphens and
// caps the result at maxSlugLength. An empty result becomes "client".
func Slugify(value string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(value) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "client"
	}
	return slug
}

// extensionOf extracts a sane lowercase extension (dot included) from
// an original filename. Anything longer than maxExtensionLength after
// stripping unsafe characters is dropped entirely.
func extensionOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name[idx:]) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	ext := b.String()
	if len(ext) > maxExtensionLength {
		return ""
	}
	return ext
}

// SafeMetadata filters submission fields down to values short enough to
// ride along as object user metadata.
func SafeMetadata(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v != "" && len(v) <= maxUserMetadataValue {
			out[k] = v
		}
	}
	return out
}
