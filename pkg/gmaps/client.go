// Package gmaps talks to the Google Maps web frontend: text search pages,
// the listugcposts review RPC, and place pages.
package gmaps

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/ntoujavaproject/store-strategist/internal/fetcher"
	"github.com/ntoujavaproject/store-strategist/internal/model"
)

const defaultBaseURL = "https://www.google.com.tw"

// Unknown is the placeholder for a name or address the place page did not carry.
const Unknown = "Unknown"

// xssiPrefixLen is the length of the anti-JSON-hijacking prefix on RPC bodies.
const xssiPrefixLen = 4

// Client performs Google Maps frontend requests. Each method is a single
// attempt; retries belong to the caller.
type Client interface {
	// Search returns the raw search page for facet around a point.
	Search(ctx context.Context, facet string, lat, lon, radiusM float64) (string, error)
	// SearchByName returns the raw search page for a free-text place name.
	SearchByName(ctx context.Context, name string) (string, error)
	// ReviewPage returns one page of the review feed with the XSSI prefix removed.
	ReviewPage(ctx context.Context, id, cursor string, sort model.SortMode) ([]byte, error)
	// PlaceInfo reads the name and address from the place page.
	PlaceInfo(ctx context.Context, id string) (*Place, error)
}

// Place is the name and address of an entity.
type Place struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Known reports whether both name and address resolved.
func (p *Place) Known() bool {
	return p.Name != Unknown && p.Address != Unknown
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default frontend base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

type httpClient struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// NewClient creates a Google Maps frontend client on top of f.
func NewClient(f fetcher.Fetcher, opts ...Option) Client {
	c := &httpClient{
		fetcher: f,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchURL builds the text-search URL for one facet around a point.
func (c *httpClient) SearchURL(facet string, lat, lon, radiusM float64) string {
	return fmt.Sprintf(
		"%s/maps/search/%s/@%s,%s,%sm/data=!3m1!1e3!4m2!2m1!6e5?entry=ttu&g_ep=EgoyMDI1MDUxMy4xIKXMDSoASAFQAw%%3D%%3D",
		c.baseURL, url.PathEscape(facet), formatFloat(lat), formatFloat(lon), formatFloat(radiusM),
	)
}

func (c *httpClient) Search(ctx context.Context, facet string, lat, lon, radiusM float64) (string, error) {
	body, err := c.fetcher.Get(ctx, c.SearchURL(facet, lat, lon, radiusM))
	if err != nil {
		return "", eris.Wrapf(err, "gmaps: search %s", facet)
	}
	return string(body), nil
}

func (c *httpClient) SearchByName(ctx context.Context, name string) (string, error) {
	body, err := c.fetcher.Get(ctx, c.baseURL+"/maps/search/"+url.PathEscape(name))
	if err != nil {
		return "", eris.Wrap(err, "gmaps: search by name")
	}
	return string(body), nil
}

// ReviewPageURL builds the listugcposts URL for one page.
func (c *httpClient) ReviewPageURL(id, cursor string, sort model.SortMode) string {
	q := url.Values{}
	q.Set("authuser", "0")
	q.Set("hl", "zh-TW")
	q.Set("gl", "tw")
	q.Set("pb", reviewPB(id, cursor, sort))
	return c.baseURL + "/maps/rpc/listugcposts?" + q.Encode()
}

func reviewPB(id, cursor string, sort model.SortMode) string {
	return "!1m6!1s" + id +
		"!6m4!4m1!1e1!4m1!1e3!2m2!1i10!2s" + cursor +
		"!5m2!1s0OBwZ4OnGsrM1e8PxIjW6AI!7e81!8m5!1b1!2b1!3b1!5b1!7b1!11m0!13m1!1e" +
		strconv.Itoa(int(sort))
}

func (c *httpClient) ReviewPage(ctx context.Context, id, cursor string, sort model.SortMode) ([]byte, error) {
	body, err := c.fetcher.Get(ctx, c.ReviewPageURL(id, cursor, sort))
	if err != nil {
		return nil, eris.Wrapf(err, "gmaps: review page %s", id)
	}
	if len(body) < xssiPrefixLen {
		return nil, nil
	}
	return body[xssiPrefixLen:], nil
}

// PlaceURL builds the place page URL for id.
func (c *httpClient) PlaceURL(id string) string {
	return c.baseURL + "/maps/place/data=!4m5!3m4!1s" + id +
		"!8m2!3d25.0564743!4d121.5204167?authuser=0&hl=zh-TW&rclk=1"
}

func (c *httpClient) PlaceInfo(ctx context.Context, id string) (*Place, error) {
	body, err := c.fetcher.Get(ctx, c.PlaceURL(id))
	if err != nil {
		return nil, eris.Wrapf(err, "gmaps: place %s", id)
	}
	p, err := ParsePlace(body)
	if err != nil {
		return nil, eris.Wrapf(err, "gmaps: place %s", id)
	}
	p.ID = id
	return p, nil
}

// ParsePlace reads the `meta[itemprop=name]` tag, whose content is
// "name · address".
func ParsePlace(page []byte) (*Place, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "parse place page")
	}

	p := &Place{Name: Unknown, Address: Unknown}
	content, ok := doc.Find(`meta[itemprop="name"]`).First().Attr("content")
	if !ok {
		return p, nil
	}
	name, address, found := strings.Cut(norm.NFC.String(content), "·")
	if !found {
		return p, nil
	}
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	if address = strings.TrimSpace(address); address != "" {
		p.Address = address
	}
	return p, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
