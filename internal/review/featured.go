package review

import (
	"strings"
	"time"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// FeaturedPages is how many highest-rated pages the featured pass reads.
const FeaturedPages = 3

// Featured reasons.
const (
	ReasonHighRating = "high_rating"
	ReasonHasPhoto   = "has_photo"
)

// FeaturedReview is a review chosen for display with the reasons it qualified.
type FeaturedReview struct {
	ReviewerName    string   `json:"reviewer_name"`
	ReviewerState   string   `json:"reviewer_state"`
	StarRating      int      `json:"star_rating"`
	Comment         string   `json:"comment"`
	PhotoURL        string   `json:"photo_url"`
	CommentDate     string   `json:"comment_date"`
	FoodScore       int      `json:"food_score"`
	ServiceScore    int      `json:"service_score"`
	AtmosphereScore int      `json:"atmosphere_score"`
	Reasons         []string `json:"featured_reason"`
}

// FeaturedSet is the output of the featured pass for one place.
type FeaturedSet struct {
	RestaurantID   string           `json:"restaurant_id"`
	RestaurantName string           `json:"restaurant_name"`
	TotalReviews   int              `json:"total_reviews"`
	Reviews        []FeaturedReview `json:"featured_reviews"`
	Photos         []string         `json:"featured_photos"`
	Top            []ScoredReview   `json:"top_reviews,omitempty"`
	Helpful        []HelpfulReview  `json:"most_helpful,omitempty"`
	CollectedAt    time.Time        `json:"collection_time"`
}

// Rank fills Top and Helpful with the n best reviews by score and by
// reviewer authority.
func (s *FeaturedSet) Rank(reviews []model.Review, n int) {
	s.Top = TopFeatured(reviews, n, s.CollectedAt)
	s.Helpful = MostHelpful(reviews, n)
}

// AnonymousReviewer stands in for a missing reviewer name.
const AnonymousReviewer = "Anonymous"

// SelectFeatured keeps reviews that have a non-empty comment and either a
// rating of at least 4 stars or a photo. Every photo URL seen is listed in
// Photos, featured or not.
func SelectFeatured(id, name string, reviews []model.Review) *FeaturedSet {
	set := &FeaturedSet{
		RestaurantID:   id,
		RestaurantName: name,
		TotalReviews:   len(reviews),
		Reviews:        []FeaturedReview{},
		Photos:         []string{},
		CollectedAt:    time.Now().UTC(),
	}

	for _, r := range reviews {
		var reasons []string
		if star := model.Deref(r.StarRating); star >= 4 {
			reasons = append(reasons, ReasonHighRating)
		}
		photo := strings.TrimSpace(model.Deref(r.PhotoURL))
		if photo != "" {
			reasons = append(reasons, ReasonHasPhoto)
			set.Photos = append(set.Photos, photo)
		}
		comment := strings.TrimSpace(model.Deref(r.Comment))
		if len(reasons) == 0 || comment == "" {
			continue
		}

		reviewer := model.Deref(r.ReviewerName)
		if reviewer == "" {
			reviewer = AnonymousReviewer
		}
		set.Reviews = append(set.Reviews, FeaturedReview{
			ReviewerName:    reviewer,
			ReviewerState:   model.Deref(r.ReviewerState),
			StarRating:      model.Deref(r.StarRating),
			Comment:         model.Deref(r.Comment),
			PhotoURL:        photo,
			CommentDate:     model.Deref(r.CommentDate),
			FoodScore:       model.Deref(r.FoodScore),
			ServiceScore:    model.Deref(r.ServiceScore),
			AtmosphereScore: model.Deref(r.AtmosphereScore),
			Reasons:         reasons,
		})
	}
	return set
}
