package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

func TestMemorySink_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutRestaurant(ctx, &model.Restaurant{ID: "b", Name: "B", Address: "addr"}))
	require.NoError(t, m.PutRestaurant(ctx, &model.Restaurant{ID: "a", Name: "A", Address: "addr"}))
	require.NoError(t, m.PutReviews(ctx, "a", []model.Review{
		{ReviewerID: model.Ptr("r1"), Comment: model.Ptr("good")},
		{ReviewerID: model.Ptr("r2")},
	}))

	ids, err := m.KnownIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	docs, err := m.RestaurantDocs(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "A", docs[0].Fields["name"])

	reviews := m.Reviews("a")
	assert.Len(t, reviews, 2)
	assert.Equal(t, "good", reviews["r1"]["comment"])
	assert.Empty(t, m.Reviews("b"))
}

func TestMemorySink_FailWith(t *testing.T) {
	m := NewMemory()
	m.FailWith = func(op string, call int) error {
		if op == OpPutRestaurant && call == 1 {
			return errors.New("unavailable")
		}
		return nil
	}

	r := &model.Restaurant{ID: "a", Name: "A", Address: "x"}
	require.Error(t, m.PutRestaurant(context.Background(), r))
	_, ok := m.Restaurant("a")
	assert.False(t, ok)

	require.NoError(t, m.PutRestaurant(context.Background(), r))
	_, ok = m.Restaurant("a")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Calls(OpPutRestaurant))
}
