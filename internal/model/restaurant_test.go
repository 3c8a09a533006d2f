package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in   string
		want SortMode
	}{
		{"", SortNewest},
		{"newest", SortNewest},
		{"Relevance", SortRelevance},
		{"highest", SortHighest},
		{"lowest", SortLowest},
		{"3", SortHighest},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSortMode("5")
	assert.Error(t, err)
	_, err = ParseSortMode("best")
	assert.Error(t, err)
}

func TestSortMode_String(t *testing.T) {
	assert.Equal(t, "highest", SortHighest.String())
	assert.Equal(t, "unknown", SortMode(9).String())
}

func TestDeref(t *testing.T) {
	assert.Equal(t, 0, Deref[int](nil))
	assert.Equal(t, "x", Deref(Ptr("x")))
}
