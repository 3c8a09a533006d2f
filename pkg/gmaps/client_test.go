package gmaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/fetcher"
	"github.com/ntoujavaproject/store-strategist/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, RatePerSecond: 1000})
	return NewClient(f, WithBaseURL(srv.URL+"/"))
}

func TestSearchURL(t *testing.T) {
	c := &httpClient{baseURL: defaultBaseURL}
	got := c.SearchURL("Restaurants", 25.033, 121.5654, 50)
	assert.Equal(t,
		"https://www.google.com.tw/maps/search/Restaurants/@25.033,121.5654,50m/data=!3m1!1e3!4m2!2m1!6e5?entry=ttu&g_ep=EgoyMDI1MDUxMy4xIKXMDSoASAFQAw%3D%3D",
		got)
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/search/Coffee/@25.033,121.5654,50m/data=!3m1!1e3!4m2!2m1!6e5", r.URL.Path)
		assert.Equal(t, "ttu", r.URL.Query().Get("entry"))
		w.Write([]byte(`window.APP_INITIALIZATION_STATE=[["0x3442abb6da9c9e1f:0x1206bcf082fd10a6"]]`))
	})

	body, err := c.Search(context.Background(), "Coffee", 25.033, 121.5654, 50)
	require.NoError(t, err)
	assert.Contains(t, body, "0x3442abb6da9c9e1f:0x1206bcf082fd10a6")
}

func TestSearchByName_EscapesName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/search/隱家拉麵 士林店", r.URL.Path)
		w.Write([]byte("page"))
	})

	body, err := c.SearchByName(context.Background(), "隱家拉麵 士林店")
	require.NoError(t, err)
	assert.Equal(t, "page", body)
}

func TestReviewPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/rpc/listugcposts", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("authuser"))
		assert.Equal(t, "zh-TW", q.Get("hl"))
		assert.Equal(t, "tw", q.Get("gl"))
		pb := q.Get("pb")
		assert.True(t, strings.HasPrefix(pb, "!1m6!1s0x1:0x2!6m4"))
		assert.Contains(t, pb, "!2m2!1i10!2sCURSOR!5m2")
		assert.True(t, strings.HasSuffix(pb, "!13m1!1e3"))
		w.Write([]byte(")]}'\n[null,\"next\",[]]"))
	})

	body, err := c.ReviewPage(context.Background(), "0x1:0x2", "CURSOR", model.SortHighest)
	require.NoError(t, err)
	assert.Equal(t, "\n[null,\"next\",[]]", string(body))
}

func TestReviewPage_Non200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.ReviewPage(context.Background(), "0x1:0x2", "", model.SortNewest)
	require.Error(t, err)
}

func TestReviewPB_FirstPage(t *testing.T) {
	assert.Equal(t,
		"!1m6!1sID!6m4!4m1!1e1!4m1!1e3!2m2!1i10!2s!5m2!1s0OBwZ4OnGsrM1e8PxIjW6AI!7e81!8m5!1b1!2b1!3b1!5b1!7b1!11m0!13m1!1e2",
		reviewPB("ID", "", model.SortNewest))
}

func TestPlaceInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/place/data=!4m5!3m4!1s0x1:0x2!8m2!3d25.0564743!4d121.5204167", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("rclk"))
		w.Write([]byte(`<html><head>
<meta content="Google 地圖" property="og:site_name">
<meta content="鼎泰豐 信義店 · 106台北市大安區信義路二段194號" itemprop="name">
</head></html>`))
	})

	p, err := c.PlaceInfo(context.Background(), "0x1:0x2")
	require.NoError(t, err)
	assert.Equal(t, &Place{ID: "0x1:0x2", Name: "鼎泰豐 信義店", Address: "106台北市大安區信義路二段194號"}, p)
	assert.True(t, p.Known())
}

func TestParsePlace_Unknown(t *testing.T) {
	tests := []struct {
		name string
		page string
		want Place
	}{
		{"no meta", `<html></html>`, Place{Name: Unknown, Address: Unknown}},
		{"no separator", `<meta itemprop="name" content="Just a name">`, Place{Name: Unknown, Address: Unknown}},
		{"empty address", `<meta itemprop="name" content="Name · ">`, Place{Name: "Name", Address: Unknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePlace([]byte(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *p)
			assert.False(t, p.Known())
		})
	}
}
