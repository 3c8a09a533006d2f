package searchindex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/sink"
)

type recordingIndex struct {
	batches [][]Object
	err     error
}

func (r *recordingIndex) SaveObjects(_ context.Context, objects []Object) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, objects)
	return nil
}

func seededSink(t *testing.T, n int) *sink.MemorySink {
	t.Helper()
	m := sink.NewMemory()
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		require.NoError(t, m.PutRestaurant(context.Background(), &model.Restaurant{ID: id, Name: "R" + id, Address: "addr"}))
	}
	return m
}

func TestSyncer_Sync(t *testing.T) {
	idx := &recordingIndex{}
	res, err := NewSyncer(seededSink(t, 5), idx, 2).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Documents)
	assert.Equal(t, 3, res.Batches)

	require.Len(t, idx.batches, 3)
	assert.Len(t, idx.batches[2], 1)
	first := idx.batches[0][0]
	assert.Equal(t, "a", first["objectID"])
	assert.Equal(t, "Ra", first["name"])
	assert.Equal(t, "a", first["id"])
}

func TestSyncer_Empty(t *testing.T) {
	idx := &recordingIndex{}
	res, err := NewSyncer(sink.NewMemory(), idx, 0).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Batches)
	assert.Empty(t, idx.batches)
}

func TestSyncer_IndexError(t *testing.T) {
	idx := &recordingIndex{err: errors.New("quota exceeded")}
	_, err := NewSyncer(seededSink(t, 1), idx, 0).Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestToObject_DoesNotMutateFields(t *testing.T) {
	fields := map[string]any{"name": "X"}
	obj := ToObject(sink.Document{ID: "id1", Fields: fields})
	assert.Equal(t, "id1", obj["objectID"])
	assert.NotContains(t, fields, "objectID")
}

func TestNewAlgolia_RequiresConfig(t *testing.T) {
	_, err := NewAlgolia(AlgoliaConfig{AppID: "app"})
	assert.Error(t, err)

	idx, err := NewAlgolia(AlgoliaConfig{AppID: "app", APIKey: "key", Index: "restaurants"})
	require.NoError(t, err)
	assert.NotNil(t, idx)
}
