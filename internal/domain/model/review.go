package model

import "sort"

const (
	// MaxCuratedReviews caps the public review set; enough for the grid
	// plus the scrolling ticker.
	MaxCuratedReviews = 12

	// MinCuratedRating is the lowest rating shown publicly.
	MinCuratedRating = 4
)

// Review is a single upstream review. Fields mirror the Places Details
// payload verbatim; reviews are never mutated, only filtered, reordered
// and truncated.
type Review struct {
	AuthorName   string `json:"author_name"`
	AvatarURL    string `json:"profile_photo_url,omitempty"`
	Rating       int    `json:"rating"`
	Text         string `json:"text"`
	RelativeTime string `json:"relative_time_description"`
	Time         int64  `json:"time"`
}

// CuratedReviews is the public shape served by the reviews proxy.
// Rating and Total summarize the full upstream review population, not
// the curated subset, so the "X reviews, avg Y" badge stays honest.
type CuratedReviews struct {
	Reviews []Review `json:"reviews"`
	URL     string   `json:"url,omitempty"`
	Rating  *float64 `json:"rating,omitempty"`
	Total   *int     `json:"user_ratings_total,omitempty"`
}

// Curate filters a raw review list to ratings of MinCuratedRating or
// better, orders newest first and truncates to MaxCuratedReviews.
// A review with no rating counts as rating 0 and is dropped. The sort
// is stable: ties on Time keep their input order. The input slice is
// not modified.
func Curate(reviews []Review) []Review {
	kept := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating >= MinCuratedRating {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Time > kept[j].Time
	})

	if len(kept) > MaxCuratedReviews {
		kept = kept[:MaxCuratedReviews]
	}
	return kept
}

// Summarize computes the average rating and count over the full
// pre-filter review list. Used when the upstream payload carries no
// summary fields of its own.
func Summarize(reviews []Review) (avg float64, total int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews)
}
