package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

func TestReviewFields_Defaults(t *testing.T) {
	f := ReviewFields(model.Review{ReviewerName: model.Ptr("Alice"), StarRating: model.Ptr(4)})

	assert.Equal(t, "Alice", f["reviewer_name"])
	assert.Equal(t, int64(4), f["star_rating"])
	assert.Equal(t, "", f["comment"])
	assert.Equal(t, "", f["comment_date"])
	assert.Equal(t, int64(0), f["food_score"])
	assert.Equal(t, int64(0), f["reviewer_total_photos"])
	assert.Len(t, f, 15)
}

func TestRestaurantFields(t *testing.T) {
	f := RestaurantFields(&model.Restaurant{ID: "0xa:0xb", Name: "Cafe", Address: "Taipei", IsUpload: true})
	assert.Equal(t, map[string]any{"id": "0xa:0xb", "name": "Cafe", "address": "Taipei"}, f)
}

func TestReviewKey(t *testing.T) {
	assert.Equal(t, "rid", ReviewKey(model.Review{ReviewerID: model.Ptr("rid")}))

	anon := model.Review{Comment: model.Ptr("tasty")}
	k1 := ReviewKey(anon)
	k2 := ReviewKey(model.Review{Comment: model.Ptr("tasty")})
	assert.Equal(t, k1, k2, "content key is deterministic")
	assert.Len(t, k1, 36)
	assert.NotEqual(t, k1, ReviewKey(model.Review{Comment: model.Ptr("bland")}))
	assert.NotEqual(t, k1, ReviewKey(model.Review{ReviewerID: model.Ptr(""), Comment: model.Ptr("bland")}))
}

func TestReviewDocs_LastWriteWins(t *testing.T) {
	docs := reviewDocs([]model.Review{
		{ReviewerID: model.Ptr("a"), StarRating: model.Ptr(1)},
		{ReviewerID: model.Ptr("b"), StarRating: model.Ptr(2)},
		{ReviewerID: model.Ptr("a"), StarRating: model.Ptr(5)},
	})
	assert.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].key)
	assert.Equal(t, int64(5), docs[0].fields["star_rating"])
	assert.Equal(t, "b", docs[1].key)
}
