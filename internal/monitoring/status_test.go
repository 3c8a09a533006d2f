package monitoring

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/store"
)

func TestStatusCollector_Collect(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "status.db")})
	require.NoError(t, err)
	defer st.Close()

	ok, err := st.CreateRun(ctx, store.RunParams{Kind: store.RunKindCollect})
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, ok.ID, nil))
	bad, err := st.CreateRun(ctx, store.RunParams{Kind: store.RunKindCollect})
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, bad.ID, errors.New("boom")))
	_, err = st.CreateRun(ctx, store.RunParams{Kind: store.RunKindDiscover})
	require.NoError(t, err)

	require.NoError(t, st.UpsertRestaurants(ctx, []model.Restaurant{
		{ID: "a", Name: "A", Address: "x", IsUpload: true},
		{ID: "b", Name: "B", Address: "y"},
	}))

	snap, err := NewStatusCollector(st).Collect(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsComplete)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.Equal(t, 1, snap.RunsRunning)
	assert.InDelta(t, 0.5, snap.RunFailRate, 1e-9)
	assert.Equal(t, 2, snap.Restaurants)
	assert.Equal(t, 1, snap.PendingUploads)
	assert.NotNil(t, snap.LastRun)
}
