package model

import (
	"math"
	"testing"
)

func TestCurate_FiltersLowRatings(t *testing.T) {
	tests := []struct {
		name    string
		reviews []Review
		want    []string
	}{
		{
			name: "keeps four stars and up",
			reviews: []Review{
				{AuthorName: "a", Rating: 5, Time: 100},
				{AuthorName: "b", Rating: 4, Time: 90},
				{AuthorName: "c", Rating: 3, Time: 80},
				{AuthorName: "d", Rating: 1, Time: 70},
			},
			want: []string{"a", "b"},
		},
		{
			name: "newer low rating still dropped",
			reviews: []Review{
				{AuthorName: "five", Rating: 5, Time: 100},
				{AuthorName: "three", Rating: 3, Time: 200},
			},
			want: []string{"five"},
		},
		{
			name: "missing rating counts as zero",
			reviews: []Review{
				{AuthorName: "rated", Rating: 4, Time: 10},
				{AuthorName: "unrated", Time: 999},
			},
			want: []string{"rated"},
		},
		{
			name:    "empty input",
			reviews: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Curate(tt.reviews)
			if len(got) != len(tt.want) {
				t.Fatalf("Curate() returned %d reviews, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].AuthorName != name {
					t.Errorf("Curate()[%d].AuthorName = %q, want %q", i, got[i].AuthorName, name)
				}
			}
		})
	}
}

func TestCurate_SortsNewestFirstStable(t *testing.T) {
	reviews := []Review{
		{AuthorName: "old", Rating: 5, Time: 10},
		{AuthorName: "tie-first", Rating: 4, Time: 50},
		{AuthorName: "tie-second", Rating: 5, Time: 50},
		{AuthorName: "new", Rating: 4, Time: 100},
	}

	got := Curate(reviews)

	wantOrder := []string{"new", "tie-first", "tie-second", "old"}
	for i, name := range wantOrder {
		if got[i].AuthorName != name {
			t.Errorf("Curate()[%d].AuthorName = %q, want %q", i, got[i].AuthorName, name)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time > got[i-1].Time {
			t.Errorf("Curate() not sorted descending at index %d", i)
		}
	}
}

func TestCurate_TruncatesToMax(t *testing.T) {
	reviews := make([]Review, 0, 20)
	for i := 0; i < 20; i++ {
		reviews = append(reviews, Review{Rating: 5, Time: int64(i)})
	}

	got := Curate(reviews)

	if len(got) != MaxCuratedReviews {
		t.Errorf("Curate() returned %d reviews, want %d", len(got), MaxCuratedReviews)
	}
	if got[0].Time != 19 {
		t.Errorf("Curate()[0].Time = %d, want 19", got[0].Time)
	}
}

func TestCurate_DoesNotMutateInput(t *testing.T) {
	reviews := []Review{
		{AuthorName: "a", Rating: 5, Time: 1},
		{AuthorName: "b", Rating: 5, Time: 2},
	}

	Curate(reviews)

	if reviews[0].AuthorName != "a" || reviews[1].AuthorName != "b" {
		t.Error("Curate() reordered its input slice")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		reviews   []Review
		wantAvg   float64
		wantTotal int
	}{
		{
			name: "averages over full list including low ratings",
			reviews: []Review{
				{Rating: 5},
				{Rating: 3},
				{Rating: 1},
			},
			wantAvg:   3,
			wantTotal: 3,
		},
		{
			name:      "empty list",
			reviews:   nil,
			wantAvg:   0,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, total := Summarize(tt.reviews)
			if math.Abs(avg-tt.wantAvg) > 1e-9 {
				t.Errorf("Summarize() avg = %v, want %v", avg, tt.wantAvg)
			}
			if total != tt.wantTotal {
				t.Errorf("Summarize() total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}
