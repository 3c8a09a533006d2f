package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

func TestSelectFeatured(t *testing.T) {
	reviews := []model.Review{
		{ReviewerName: model.Ptr("high"), StarRating: model.Ptr(5), Comment: model.Ptr("Excellent")},
		{ReviewerName: model.Ptr("photo"), StarRating: model.Ptr(2), Comment: model.Ptr("Meh"), PhotoURL: model.Ptr("https://p/1.jpg")},
		{ReviewerName: model.Ptr("low"), StarRating: model.Ptr(3), Comment: model.Ptr("Fine")},
		{ReviewerName: model.Ptr("silent"), StarRating: model.Ptr(5), PhotoURL: model.Ptr("https://p/2.jpg")},
		{StarRating: model.Ptr(4), Comment: model.Ptr("  ")},
		{StarRating: model.Ptr(4), Comment: model.Ptr("No name given")},
	}

	set := SelectFeatured("0xa:0xb", "Noodle House", reviews)
	assert.Equal(t, "0xa:0xb", set.RestaurantID)
	assert.Equal(t, "Noodle House", set.RestaurantName)
	assert.Equal(t, 6, set.TotalReviews)
	assert.Equal(t, []string{"https://p/1.jpg", "https://p/2.jpg"}, set.Photos)

	require.Len(t, set.Reviews, 3)
	assert.Equal(t, "high", set.Reviews[0].ReviewerName)
	assert.Equal(t, []string{ReasonHighRating}, set.Reviews[0].Reasons)

	assert.Equal(t, "photo", set.Reviews[1].ReviewerName)
	assert.Equal(t, []string{ReasonHasPhoto}, set.Reviews[1].Reasons)
	assert.Equal(t, "https://p/1.jpg", set.Reviews[1].PhotoURL)

	assert.Equal(t, AnonymousReviewer, set.Reviews[2].ReviewerName)
	assert.Equal(t, 4, set.Reviews[2].StarRating)
	assert.Equal(t, "", set.Reviews[2].CommentDate)
}

func TestSelectFeatured_Empty(t *testing.T) {
	set := SelectFeatured("id", "name", nil)
	assert.NotNil(t, set.Reviews)
	assert.NotNil(t, set.Photos)
	assert.Equal(t, 0, set.TotalReviews)
}
