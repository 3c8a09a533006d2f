package sink

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// Operation names passed to MemorySink.FailWith.
const (
	OpPutRestaurant = "put_restaurant"
	OpPutReviews    = "put_reviews"
	OpKnownIDs      = "known_ids"
)

// MemorySink keeps documents in process memory. It backs dry runs and tests.
type MemorySink struct {
	mu          sync.Mutex
	restaurants map[string]map[string]any
	reviews     map[string]map[string]map[string]any
	calls       map[string]int

	// FailWith, when set, is consulted before each operation; a non-nil
	// return fails that call without writing.
	FailWith func(op string, call int) error
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *MemorySink {
	return &MemorySink{
		restaurants: make(map[string]map[string]any),
		reviews:     make(map[string]map[string]map[string]any),
		calls:       make(map[string]int),
	}
}

func (m *MemorySink) fail(op string) error {
	m.calls[op]++
	if m.FailWith == nil {
		return nil
	}
	if err := m.FailWith(op, m.calls[op]); err != nil {
		return eris.Wrapf(err, "sink: %s", op)
	}
	return nil
}

func (m *MemorySink) PutRestaurant(_ context.Context, r *model.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpPutRestaurant); err != nil {
		return err
	}
	m.restaurants[r.ID] = RestaurantFields(r)
	return nil
}

func (m *MemorySink) PutReviews(_ context.Context, id string, reviews []model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpPutReviews); err != nil {
		return err
	}
	col, ok := m.reviews[id]
	if !ok {
		col = make(map[string]map[string]any)
		m.reviews[id] = col
	}
	for _, d := range reviewDocs(reviews) {
		col[d.key] = d.fields
	}
	return nil
}

func (m *MemorySink) KnownIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpKnownIDs); err != nil {
		return nil, err
	}
	return sortedKeys(m.restaurants), nil
}

func (m *MemorySink) RestaurantDocs(_ context.Context) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]Document, 0, len(m.restaurants))
	for _, id := range sortedKeys(m.restaurants) {
		docs = append(docs, Document{ID: id, Fields: maps.Clone(m.restaurants[id])})
	}
	return docs, nil
}

// Restaurant returns the stored fields of one restaurant.
func (m *MemorySink) Restaurant(id string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.restaurants[id]
	return f, ok
}

// Reviews returns the stored reviews of one restaurant keyed by review key.
func (m *MemorySink) Reviews(id string) map[string]map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.reviews[id])
}

// Calls returns how many times op was attempted.
func (m *MemorySink) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemorySink) Close() error { return nil }

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
