package discovery

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/resilience"
	"github.com/ntoujavaproject/store-strategist/pkg/gmaps"
)

// DefaultFacets are the search terms issued for every cell.
var DefaultFacets = []string{"Restaurants", "Bars", "Coffee", "Takeout", "Delivery"}

// CellSearcher runs the facet searches for a single cell.
type CellSearcher struct {
	client gmaps.Client
	facets []string
	retry  resilience.Policy
}

// NewCellSearcher creates a searcher. A nil or empty facets uses DefaultFacets.
func NewCellSearcher(client gmaps.Client, facets []string, retry resilience.Policy) *CellSearcher {
	if len(facets) == 0 {
		facets = DefaultFacets
	}
	return &CellSearcher{
		client: client,
		facets: facets,
		retry:  retry.WithLogger("search"),
	}
}

// Facets returns the search terms in use.
func (s *CellSearcher) Facets() []string {
	return s.facets
}

// Search returns the union of identifiers found by every facet in cell.
// A failed facet contributes nothing; the cell fails only when every facet does.
func (s *CellSearcher) Search(ctx context.Context, cell GeoCell) (IDSet, error) {
	ids := NewIDSet()
	var failed int
	var lastErr error

	for _, facet := range s.facets {
		page, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (string, error) {
			return s.client.Search(ctx, facet, cell.Lat, cell.Lon, cell.RadiusM)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ids, ctx.Err()
			}
			failed++
			lastErr = err
			zap.L().Debug("facet search failed",
				zap.String("facet", facet),
				zap.Float64("lat", cell.Lat),
				zap.Float64("lon", cell.Lon),
				zap.Error(err),
			)
			continue
		}
		ids.Union(ExtractIDs(page))
	}

	if failed == len(s.facets) {
		return nil, eris.Wrapf(lastErr, "discovery: all facets failed at %v,%v", cell.Lat, cell.Lon)
	}
	return ids, nil
}

// ResolveName searches for a place by name and returns the first identifier
// on the result page.
func (s *CellSearcher) ResolveName(ctx context.Context, name string) (string, error) {
	page, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.client.SearchByName(ctx, name)
	})
	if err != nil {
		return "", eris.Wrapf(err, "discovery: resolve %q", name)
	}
	id, ok := FirstID(page)
	if !ok {
		return "", eris.Wrapf(ErrNotFound, "discovery: resolve %q", name)
	}
	return id, nil
}

// ErrNotFound is returned when a name search page carries no identifier.
var ErrNotFound = eris.New("no place identifier found")
