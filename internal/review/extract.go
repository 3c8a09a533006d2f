package review

import (
	"time"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/tree"
)

// Index paths into one raw feed record. Negative indexes count from the end.
var (
	pathReviewerName  = []int{0, 1, 4, 5, 0}
	pathReviewerState = []int{0, 1, 4, 5, 10, 0}
	pathReviewerID    = []int{0, 0}
	pathTotalReviews  = []int{0, 1, 4, 5, 5}
	pathTotalPhotos   = []int{0, 1, 4, 5, 6}
	pathStarRating    = []int{0, 2, 0, 0}
	pathComment       = []int{0, 2, -1, 0, 0}
	pathPhotoURL      = []int{0, 2, 2, 0, 1, 6, 0}
	pathServiceType   = []int{0, 2, 6, 0, 2, 0, 0, 0, 0}
	pathMealType      = []int{0, 2, 6, 1, 2, 0, 0, 0, 0}
	pathSpend         = []int{0, 2, 6, 2, 2, 0, 0, 0, 0}
	pathFoodScore     = []int{0, 2, 6, 3, 11, 0}
	pathServiceScore  = []int{0, 2, 6, 4, 11, 0}
	pathAtmosphere    = []int{0, 2, 6, 5, 11, 0}
	pathDateTuple     = []int{0, 2, 2, 0, 1, 21, 6, -1}
	pathRelativeTime  = []int{0, 1, 6}
)

// Extract builds a Review from one raw record. It never fails; any path
// that is missing or has the wrong type leaves its field nil.
func Extract(record any) model.Review {
	return model.Review{
		ReviewerName:         str(record, pathReviewerName),
		ReviewerState:        str(record, pathReviewerState),
		ReviewerID:           str(record, pathReviewerID),
		ReviewerTotalReviews: integer(record, pathTotalReviews),
		ReviewerTotalPhotos:  integer(record, pathTotalPhotos),
		StarRating:           integer(record, pathStarRating),
		Comment:              scalar(record, pathComment),
		PhotoURL:             scalar(record, pathPhotoURL),
		ServiceType:          str(record, pathServiceType),
		MealType:             str(record, pathMealType),
		Spend:                str(record, pathSpend),
		FoodScore:            integer(record, pathFoodScore),
		ServiceScore:         integer(record, pathServiceScore),
		AtmosphereScore:      integer(record, pathAtmosphere),
		CommentDate:          commentDate(record),
	}
}

// ExtractAll maps Extract over records, keeping order.
func ExtractAll(records []any) []model.Review {
	out := make([]model.Review, 0, len(records))
	for _, r := range records {
		out = append(out, Extract(r))
	}
	return out
}

// commentDate formats the (year, month, day, hour) tuple as
// "YYYY/MM/DD HH:00:00" with the relative-time text appended directly. A
// tuple that is not a real calendar hour is absent.
func commentDate(record any) *string {
	t, ok := tree.IntPrefix(record, 4, pathDateTuple...)
	if !ok {
		return nil
	}
	d := time.Date(t[0], time.Month(t[1]), t[2], t[3], 0, 0, 0, time.UTC)
	if d.Year() != t[0] || int(d.Month()) != t[1] || d.Day() != t[2] || d.Hour() != t[3] {
		return nil
	}
	s := d.Format("2006/01/02 15:04:05")
	if rel, ok := tree.String(record, pathRelativeTime...); ok {
		s += rel
	}
	return &s
}

func str(record any, path []int) *string {
	if s, ok := tree.String(record, path...); ok {
		return &s
	}
	return nil
}

func scalar(record any, path []int) *string {
	if s, ok := tree.Scalar(record, path...); ok {
		return &s
	}
	return nil
}

func integer(record any, path []int) *int {
	if n, ok := tree.Int(record, path...); ok {
		return &n
	}
	return nil
}
