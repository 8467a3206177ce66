package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golfmax/fitting-edge/internal/infrastructure/places"
	"github.com/golfmax/fitting-edge/internal/usecase"
)

// reviewsCacheControl lets browsers and intermediaries hold a good body
// for half a day, matching the edge cache TTL.
const reviewsCacheControl = "public, max-age=43200"

// ReviewsHandler handles the curated-reviews proxy endpoint.
type ReviewsHandler struct {
	svc usecase.ReviewService
}

// NewReviewsHandler creates a new ReviewsHandler.
func NewReviewsHandler(svc usecase.ReviewService) *ReviewsHandler {
	return &ReviewsHandler{svc: svc}
}

// Get handles GET /api/reviews. The body is served pre-serialized by
// the service so cached and fresh responses are byte-identical.
func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Fetch(r.Context(), r.URL.Query().Get("place_id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", reviewsCacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *ReviewsHandler) handleServiceError(w http.ResponseWriter, err error) {
	var statusErr *places.StatusError
	var rejectedErr *places.RejectedError

	switch {
	case errors.Is(err, usecase.ErrMissingConfig):
		Error(w, http.StatusInternalServerError, "missing_config", "Reviews proxy is not configured")
	case errors.As(err, &statusErr):
		Error(w, http.StatusBadGateway, fmt.Sprintf("google_status_%d", statusErr.Code), "")
	case errors.As(err, &rejectedErr):
		Error(w, http.StatusBadGateway, rejectedErr.Status, rejectedErr.Message)
	default:
		Error(w, http.StatusInternalServerError, "exception", "Internal server error")
	}
}
