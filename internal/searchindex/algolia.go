package searchindex

import (
	"context"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/rotisserie/eris"
)

// AlgoliaConfig identifies an Algolia application and index.
type AlgoliaConfig struct {
	AppID  string
	APIKey string
	Index  string
}

// AlgoliaIndex saves objects to an Algolia index and waits for each batch
// to be indexed.
type AlgoliaIndex struct {
	index *search.Index
}

// NewAlgolia creates an Algolia-backed Index.
func NewAlgolia(cfg AlgoliaConfig) (*AlgoliaIndex, error) {
	if cfg.AppID == "" || cfg.APIKey == "" || cfg.Index == "" {
		return nil, eris.New("searchindex: algolia app id, api key and index are required")
	}
	client := search.NewClient(cfg.AppID, cfg.APIKey)
	return &AlgoliaIndex{index: client.InitIndex(cfg.Index)}, nil
}

func (a *AlgoliaIndex) SaveObjects(ctx context.Context, objects []Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := a.index.SaveObjects(objects)
	if err != nil {
		return eris.Wrap(err, "algolia: save objects")
	}
	return eris.Wrap(res.Wait(), "algolia: wait for indexing")
}
