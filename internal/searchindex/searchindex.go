// Package searchindex pushes stored restaurants into a hosted search index.
package searchindex

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/sink"
)

// DefaultBatchSize is the number of objects sent per index request.
const DefaultBatchSize = 1000

// Object is one index record. ObjectID is the document ID.
type Object map[string]any

// Index receives objects. Saving an object with an existing ObjectID
// replaces it.
type Index interface {
	SaveObjects(ctx context.Context, objects []Object) error
}

// Source lists the documents to index.
type Source interface {
	RestaurantDocs(ctx context.Context) ([]sink.Document, error)
}

// Result summarizes a sync.
type Result struct {
	Documents int           `json:"documents"`
	Batches   int           `json:"batches"`
	Duration  time.Duration `json:"duration"`
}

// Syncer copies every restaurant document into an index.
type Syncer struct {
	source    Source
	index     Index
	batchSize int
}

// NewSyncer creates a syncer. batchSize <= 0 uses DefaultBatchSize.
func NewSyncer(source Source, index Index, batchSize int) *Syncer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Syncer{source: source, index: index, batchSize: batchSize}
}

// Sync reads all restaurant documents and saves them as objects keyed by
// document ID.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "searchindex"))

	docs, err := s.source.RestaurantDocs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "searchindex: read documents")
	}

	objects := make([]Object, 0, len(docs))
	for _, d := range docs {
		objects = append(objects, ToObject(d))
	}

	res := &Result{Documents: len(objects)}
	for i := 0; i < len(objects); i += s.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(i+s.batchSize, len(objects))
		if err := s.index.SaveObjects(ctx, objects[i:end]); err != nil {
			return res, eris.Wrapf(err, "searchindex: save objects [%d:%d]", i, end)
		}
		res.Batches++
	}
	res.Duration = time.Since(start)

	log.Info("search index synced",
		zap.Int("documents", res.Documents),
		zap.Int("batches", res.Batches),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// ToObject copies a document's fields and sets objectID to its ID.
func ToObject(d sink.Document) Object {
	obj := make(Object, len(d.Fields)+1)
	for k, v := range d.Fields {
		obj[k] = v
	}
	obj["objectID"] = d.ID
	return obj
}
