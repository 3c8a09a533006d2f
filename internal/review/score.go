package review

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// Score weights. They sum to 1.
const (
	WeightAuthority = 0.35
	WeightQuality   = 0.35
	WeightRecency   = 0.2
	WeightRating    = 0.1
)

// localGuideMarkers identify a Local Guide in reviewer_state.
var localGuideMarkers = []string{"在地嚮導", "Local Guide"}

// ScoreBreakdown holds the weighted total and its parts, each in [0, 1].
type ScoreBreakdown struct {
	Total     float64 `json:"quality_score"`
	Authority float64 `json:"authority"`
	Quality   float64 `json:"quality"`
	Recency   float64 `json:"recency"`
	Rating    float64 `json:"rating"`
}

// ScoredReview is a review ranked by ScoreReview.
type ScoredReview struct {
	ReviewerName         *string        `json:"reviewer_name"`
	StarRating           *int           `json:"star_rating"`
	Comment              *string        `json:"comment"`
	CommentDate          *string        `json:"comment_date"`
	ReviewerTotalReviews *int           `json:"reviewer_total_reviews"`
	ReviewerTotalPhotos  *int           `json:"reviewer_total_photos"`
	PhotoURL             *string        `json:"photo_url"`
	Score                ScoreBreakdown `json:"quality_breakdown"`
}

// HelpfulReview is a review kept by MostHelpful.
type HelpfulReview struct {
	ReviewerName    *string `json:"reviewer_name"`
	ReviewerState   string  `json:"reviewer_state"`
	StarRating      *int    `json:"star_rating"`
	Comment         *string `json:"comment"`
	AuthorityScore  float64 `json:"authority_score"`
	TotalEngagement int     `json:"total_engagement"`
	IsLocalGuide    bool    `json:"is_local_guide"`
}

// IsLocalGuide reports whether the reviewer's state marks a Local Guide.
func IsLocalGuide(r model.Review) bool {
	state := model.Deref(r.ReviewerState)
	for _, m := range localGuideMarkers {
		if strings.Contains(state, m) {
			return true
		}
	}
	return false
}

// AuthorityScore averages the reviewer's review count (full at 100) and
// photo count (full at 50), plus 0.2 for a Local Guide, capped at 1.
func AuthorityScore(r model.Review) float64 {
	reviews := math.Min(float64(model.Deref(r.ReviewerTotalReviews))/100, 1)
	photos := math.Min(float64(model.Deref(r.ReviewerTotalPhotos))/50, 1)
	score := (reviews + photos) / 2
	if IsLocalGuide(r) {
		score += 0.2
	}
	return math.Min(score, 1)
}

// QualityScore weighs comment length (0.4, full at 200 characters), a photo
// (0.3) and any sub-rating (0.3).
func QualityScore(r model.Review) float64 {
	var score float64
	if n := utf8.RuneCountInString(model.Deref(r.Comment)); n > 0 {
		score += math.Min(float64(n)/200, 1) * 0.4
	}
	if model.Deref(r.PhotoURL) != "" {
		score += 0.3
	}
	if r.FoodScore != nil || r.ServiceScore != nil || r.AtmosphereScore != nil {
		score += 0.3
	}
	return math.Min(score, 1)
}

// RecencyScore buckets the review's age in days relative to now. A missing
// or unparsable date scores 0.1.
func RecencyScore(r model.Review, now time.Time) float64 {
	fields := strings.Fields(model.Deref(r.CommentDate))
	if len(fields) == 0 {
		return 0.1
	}
	date, err := time.ParseInLocation("2006/01/02", fields[0], now.Location())
	if err != nil {
		return 0.1
	}

	days := int(math.Floor(now.Sub(date).Hours() / 24))
	switch {
	case days <= 30:
		return 1.0
	case days <= 90:
		return 0.8
	case days <= 180:
		return 0.6
	case days <= 365:
		return 0.4
	default:
		return 0.2
	}
}

// RatingScore maps stars to 0.2 (one or none) through 1.0 (five).
func RatingScore(r model.Review) float64 {
	switch star := model.Deref(r.StarRating); {
	case star >= 5:
		return 1.0
	case star >= 4:
		return 0.8
	case star >= 3:
		return 0.6
	case star >= 2:
		return 0.4
	default:
		return 0.2
	}
}

// ScoreReview computes the weighted score of r as of now. Values are
// rounded to three decimals.
func ScoreReview(r model.Review, now time.Time) ScoreBreakdown {
	authority := AuthorityScore(r)
	quality := QualityScore(r)
	recency := RecencyScore(r, now)
	rating := RatingScore(r)
	total := authority*WeightAuthority + quality*WeightQuality + recency*WeightRecency + rating*WeightRating
	return ScoreBreakdown{
		Total:     round3(total),
		Authority: round3(authority),
		Quality:   round3(quality),
		Recency:   round3(recency),
		Rating:    round3(rating),
	}
}

// TopFeatured returns the n highest-scoring reviews, best first. Ties keep
// feed order.
func TopFeatured(reviews []model.Review, n int, now time.Time) []ScoredReview {
	scored := make([]ScoredReview, 0, len(reviews))
	for _, r := range reviews {
		scored = append(scored, ScoredReview{
			ReviewerName:         r.ReviewerName,
			StarRating:           r.StarRating,
			Comment:              r.Comment,
			CommentDate:          r.CommentDate,
			ReviewerTotalReviews: r.ReviewerTotalReviews,
			ReviewerTotalPhotos:  r.ReviewerTotalPhotos,
			PhotoURL:             r.PhotoURL,
			Score:                ScoreReview(r, now),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Total > scored[j].Score.Total
	})
	if n >= 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// MostHelpful keeps reviews whose authority reaches 0.5, or 0.3 for Local
// Guides, ordered by authority then total engagement. At most n are returned.
func MostHelpful(reviews []model.Review, n int) []HelpfulReview {
	var out []HelpfulReview
	for _, r := range reviews {
		authority := AuthorityScore(r)
		guide := IsLocalGuide(r)
		threshold := 0.5
		if guide {
			threshold = 0.3
		}
		if authority < threshold {
			continue
		}
		out = append(out, HelpfulReview{
			ReviewerName:    r.ReviewerName,
			ReviewerState:   model.Deref(r.ReviewerState),
			StarRating:      r.StarRating,
			Comment:         r.Comment,
			AuthorityScore:  round3(authority),
			TotalEngagement: model.Deref(r.ReviewerTotalReviews) + model.Deref(r.ReviewerTotalPhotos),
			IsLocalGuide:    guide,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AuthorityScore != out[j].AuthorityScore {
			return out[i].AuthorityScore > out[j].AuthorityScore
		}
		return out[i].TotalEngagement > out[j].TotalEngagement
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
