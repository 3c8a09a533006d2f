package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/resilience"
)

// fakeFeed serves pages keyed by cursor. An entry in fail makes that cursor
// return an error on every call.
type fakeFeed struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	calls []string
	sorts []model.SortMode
}

func (f *fakeFeed) ReviewPage(_ context.Context, _ string, cursor string, sort model.SortMode) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cursor)
	f.sorts = append(f.sorts, sort)
	if err, ok := f.fail[cursor]; ok {
		return nil, err
	}
	body, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("no page for cursor %q", cursor)
	}
	return []byte(body), nil
}

// feedPage renders a page with n records whose reviewer IDs are prefix-0..n-1.
func feedPage(next *string, prefix string, n int) string {
	cursor := "null"
	if next != nil {
		cursor = fmt.Sprintf("%q", *next)
	}
	records := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			records += ","
		}
		records += fmt.Sprintf(`[["%s-%d"]]`, prefix, i)
	}
	return fmt.Sprintf(`[null,%s,[%s]]`, cursor, records)
}

func fastOptions(maxPages int) Options {
	retry := resilience.NetworkPolicy()
	retry.BaseDelay = time.Millisecond
	return Options{MaxPages: maxPages, Sort: model.SortNewest, PageDelay: time.Millisecond, Retry: retry}
}

func reviewerIDs(records []any) []string {
	out := make([]string, 0, len(records))
	for _, r := range ExtractAll(records) {
		out = append(out, model.Deref(r.ReviewerID))
	}
	return out
}

func TestPager_EmptyCursorOnPageThree(t *testing.T) {
	c2, c3, empty := "c2", "c3", ""
	feed := &fakeFeed{pages: map[string]string{
		"":   feedPage(&c2, "p1", 10),
		"c2": feedPage(&c3, "p2", 10),
		"c3": feedPage(&empty, "p3", 4),
	}}

	res := NewPager(feed, fastOptions(10)).Fetch(context.Background(), "0xabc:0xdef")
	assert.Equal(t, StateExhausted, res.State)
	assert.NoError(t, res.Err)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Records, 24)
	assert.Equal(t, []string{"", "c2", "c3"}, feed.calls)

	ids := reviewerIDs(res.Records)
	assert.Equal(t, "p1-0", ids[0])
	assert.Equal(t, "p2-0", ids[10])
	assert.Equal(t, "p3-3", ids[23])
}

func TestPager_NullCursorIsTerminal(t *testing.T) {
	feed := &fakeFeed{pages: map[string]string{"": feedPage(nil, "p1", 2)}}
	res := NewPager(feed, fastOptions(10)).Fetch(context.Background(), "id")
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, res.Records, 2)
}

func TestPager_StopsAtMaxPages(t *testing.T) {
	c2, c3 := "c2", "c3"
	feed := &fakeFeed{pages: map[string]string{
		"":   feedPage(&c2, "p1", 10),
		"c2": feedPage(&c3, "p2", 10),
	}}
	res := NewPager(feed, fastOptions(2)).Fetch(context.Background(), "id")
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Records, 20)
	assert.Equal(t, []string{"", "c2"}, feed.calls)
}

func TestPager_FirstPageFailureAborts(t *testing.T) {
	feed := &fakeFeed{fail: map[string]error{
		"": resilience.NewTransientError(errors.New("503 from upstream"), 503),
	}}
	res := NewPager(feed, fastOptions(10)).Fetch(context.Background(), "id")
	assert.Equal(t, StateAborted, res.State)
	assert.Empty(t, res.Records)
	assert.Equal(t, 0, res.Pages)
	assert.Error(t, res.Err)
	assert.Len(t, feed.calls, 3, "network policy makes three attempts")
}

func TestPager_LaterPageFailureKeepsEarlierPages(t *testing.T) {
	c2 := "c2"
	feed := &fakeFeed{
		pages: map[string]string{"": feedPage(&c2, "p1", 10)},
		fail:  map[string]error{"c2": errors.New("bad request")},
	}
	res := NewPager(feed, fastOptions(10)).Fetch(context.Background(), "id")
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, res.Records, 10)
	assert.Error(t, res.Err)
}

func TestPager_FormatErrorOnFirstPageAborts(t *testing.T) {
	feed := &fakeFeed{pages: map[string]string{"": `{"not":"an array"}`}}
	res := NewPager(feed, fastOptions(10)).Fetch(context.Background(), "id")
	assert.Equal(t, StateAborted, res.State)
	assert.ErrorIs(t, res.Err, ErrFormat)
	assert.Len(t, feed.calls, 1, "format errors are not retried")
}

func TestPager_UsesSortMode(t *testing.T) {
	feed := &fakeFeed{pages: map[string]string{"": feedPage(nil, "p1", 1)}}
	opts := fastOptions(3)
	opts.Sort = model.SortHighest
	NewPager(feed, opts).Fetch(context.Background(), "id")
	assert.Equal(t, []model.SortMode{model.SortHighest}, feed.sorts)
}

func TestPager_CancelledKeepsCollectedPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c2 := "c2"
	feed := &fakeFeed{pages: map[string]string{
		"":   feedPage(&c2, "p1", 10),
		"c2": feedPage(nil, "p2", 10),
	}}
	opts := fastOptions(10)
	opts.PageDelay = time.Hour

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res := NewPager(feed, opts).Fetch(ctx, "id")
	assert.Equal(t, StateExhausted, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, res.Records, 10)
}

type pageCounter struct {
	ok, failed int
}

func (c *pageCounter) ObservePage(ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func TestPager_ObserverSeesPages(t *testing.T) {
	c2 := "c2"
	feed := &fakeFeed{
		pages: map[string]string{"": feedPage(&c2, "p1", 1)},
		fail:  map[string]error{"c2": errors.New("gone")},
	}
	counter := &pageCounter{}
	NewPager(feed, fastOptions(10)).WithObserver(counter).Fetch(context.Background(), "id")
	assert.Equal(t, 1, counter.ok)
	assert.Equal(t, 1, counter.failed)
}

func TestNewPager_Defaults(t *testing.T) {
	p := NewPager(&fakeFeed{}, Options{})
	assert.Equal(t, DefaultMaxPages, p.Options().MaxPages)
	assert.Equal(t, model.SortNewest, p.Options().Sort)
}

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		cursor  string
		records int
		wantErr bool
	}{
		{name: "cursor and records", body: `[null,"next",[[1],[2]]]`, cursor: "next", records: 2},
		{name: "null cursor", body: `[null,null,[[1]]]`, records: 1},
		{name: "null records", body: `[null,"next",null]`, cursor: "next"},
		{name: "missing records", body: `[null,"next"]`, cursor: "next"},
		{name: "too short", body: `[null]`, wantErr: true},
		{name: "not an array", body: `{}`, wantErr: true},
		{name: "numeric cursor", body: `[null,5,[]]`, wantErr: true},
		{name: "records not a list", body: `[null,"x","oops"]`, wantErr: true},
		{name: "invalid json", body: `[null,`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg, err := decodePage([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cursor, pg.cursor)
			assert.Len(t, pg.records, tt.records)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateHasNextPage.Terminal())
}
