package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SortMode selects the upstream review ordering for one collection pass.
type SortMode int

const (
	SortRelevance SortMode = 1
	SortNewest    SortMode = 2
	SortHighest   SortMode = 3
	SortLowest    SortMode = 4
)

func (s SortMode) String() string {
	switch s {
	case SortRelevance:
		return "relevance"
	case SortNewest:
		return "newest"
	case SortHighest:
		return "highest"
	case SortLowest:
		return "lowest"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the upstream sort codes.
func (s SortMode) Valid() bool {
	return s >= SortRelevance && s <= SortLowest
}

// ParseSortMode accepts a mode name or its numeric code. Empty means newest.
func ParseSortMode(v string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "newest":
		return SortNewest, nil
	case "relevance":
		return SortRelevance, nil
	case "highest":
		return SortHighest, nil
	case "lowest":
		return SortLowest, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || !SortMode(n).Valid() {
		return 0, eris.Errorf("model: unknown sort mode %q", v)
	}
	return SortMode(n), nil
}

// Restaurant is one discovered place with the reviews collected for it.
type Restaurant struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	IsUpload bool     `json:"is_upload"`
	Reviews  []Review `json:"reviews"`
}

// Review is one user review. Every field is optional; nil means the
// upstream record did not carry it.
type Review struct {
	ReviewerName         *string `json:"reviewer_name"`
	ReviewerState        *string `json:"reviewer_state"`
	ReviewerID           *string `json:"reviewer_id"`
	ReviewerTotalReviews *int    `json:"reviewer_total_reviews"`
	ReviewerTotalPhotos  *int    `json:"reviewer_total_photos"`
	StarRating           *int    `json:"star_rating"`
	Comment              *string `json:"comment"`
	PhotoURL             *string `json:"photo_url"`
	ServiceType          *string `json:"service_type"`
	MealType             *string `json:"meal_type"`
	Spend                *string `json:"spend"`
	FoodScore            *int    `json:"food_score"`
	ServiceScore         *int    `json:"service_score"`
	AtmosphereScore      *int    `json:"atmosphere_score"`
	CommentDate          *string `json:"comment_date"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
