package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golfmax/fitting-edge/internal/domain/model"
	"github.com/golfmax/fitting-edge/internal/domain/repository"
	"github.com/golfmax/fitting-edge/internal/infrastructure/metrics"
	"github.com/golfmax/fitting-edge/internal/usecase"
)

// multipartMemoryLimit bounds what ParseMultipartForm buffers in memory;
// the video part itself spills to a temp file beyond it.
const multipartMemoryLimit = 32 << 20

// formFieldSlack is how much room the text fields and multipart framing
// get on top of the video size cap when bounding the request body.
const formFieldSlack = 1 << 20

// videoFormField is the multipart part carrying the file.
const videoFormField = "video"

type UploadResponse struct {
	OK        bool   `json:"ok"`
	ObjectKey string `json:"objectKey"`
}

type missingFieldResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

type unsupportedTypeResponse struct {
	Error   string   `json:"error"`
	Allowed []string `json:"allowed"`
}

type fileTooLargeResponse struct {
	Error    string `json:"error"`
	MaxBytes int64  `json:"maxBytes"`
}

// UploadHandler handles the fitting-video intake endpoint.
type UploadHandler struct {
	svc      usecase.UploadService
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler. maxBytes is the video
// size cap; zero means the pipeline default.
func NewUploadHandler(svc usecase.UploadService, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = usecase.DefaultMaxUploadBytes
	}
	return &UploadHandler{svc: svc, maxBytes: maxBytes}
}

// Create handles POST /api/upload.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Cut off over-cap bodies during the read instead of spooling
	// hundreds of megabytes to temp disk first.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formFieldSlack)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.UploadRejected).Inc()
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			w.Header().Set("Cache-Control", "no-store")
			JSON(w, http.StatusRequestEntityTooLarge, fileTooLargeResponse{
				Error:    "file_too_large",
				MaxBytes: h.maxBytes,
			})
			return
		}
		Error(w, http.StatusBadRequest, "invalid_form", "Body must be multipart/form-data")
		return
	}

	file, header, err := r.FormFile(videoFormField)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.UploadRejected).Inc()
		Error(w, http.StatusBadRequest, "missing_video", "Form must include a video file part")
		return
	}
	defer file.Close()

	fields := make(map[string]string, len(r.MultipartForm.Value))
	for key, values := range r.MultipartForm.Value {
		if key == videoFormField || len(values) == 0 {
			continue
		}
		fields[key] = strings.TrimSpace(values[0])
	}

	receipt, err := h.svc.Process(r.Context(), model.Submission{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Fields:      fields,
		Body:        file,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	metrics.UploadsTotal.WithLabelValues(metrics.UploadAccepted).Inc()
	JSON(w, http.StatusCreated, UploadResponse{
		OK:        true,
		ObjectKey: receipt.ObjectKey,
	})
}

func (h *UploadHandler) handleServiceError(w http.ResponseWriter, err error) {
	var missingField *usecase.MissingFieldError
	var unsupported *usecase.UnsupportedTypeError
	var tooLarge *usecase.FileTooLargeError

	switch {
	case errors.As(err, &missingField):
		metrics.UploadsTotal.WithLabelValues(metrics.UploadRejected).Inc()
		w.Header().Set("Cache-Control", "no-store")
		JSON(w, http.StatusBadRequest, missingFieldResponse{
			Error: "missing_field",
			Field: missingField.Field,
		})
	case errors.As(err, &unsupported):
		metrics.UploadsTotal.WithLabelValues(metrics.UploadRejected).Inc()
		w.Header().Set("Cache-Control", "no-store")
		JSON(w, http.StatusUnsupportedMediaType, unsupportedTypeResponse{
			Error:   "unsupported_type",
			Allowed: unsupported.Allowed,
		})
	case errors.As(err, &tooLarge):
		metrics.UploadsTotal.WithLabelValues(metrics.UploadRejected).Inc()
		w.Header().Set("Cache-Control", "no-store")
		JSON(w, http.StatusRequestEntityTooLarge, fileTooLargeResponse{
			Error:    "file_too_large",
			MaxBytes: tooLarge.MaxBytes,
		})
	case errors.Is(err, repository.ErrBucketNotConfigured), errors.Is(err, repository.ErrBucketNotFound):
		metrics.UploadsTotal.WithLabelValues(metrics.UploadStorageError).Inc()
		Error(w, http.StatusInternalServerError, "unconfigured_bucket", "Upload storage is not configured")
	case errors.Is(err, usecase.ErrStorageWrite):
		metrics.UploadsTotal.WithLabelValues(metrics.UploadStorageError).Inc()
		Error(w, http.StatusInternalServerError, "storage_write_failed", "Could not persist the upload")
	default:
		metrics.UploadsTotal.WithLabelValues(metrics.UploadStorageError).Inc()
		Error(w, http.StatusInternalServerError, "exception", "Internal server error")
	}
}
