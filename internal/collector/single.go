package collector

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/review"
	"github.com/ntoujavaproject/store-strategist/internal/store"
)

// Target names one restaurant, either by identifier or by a name to resolve.
type Target struct {
	ID   string
	Name string
}

// Resolve returns the target's identifier, searching by name when no ID is
// set.
func (c *Collector) Resolve(ctx context.Context, t Target) (string, error) {
	if id := strings.TrimSpace(t.ID); id != "" {
		return id, nil
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", eris.New("collector: target needs an id or a name")
	}
	id, err := c.searcher.ResolveName(ctx, name)
	if err != nil {
		return "", err
	}
	zap.L().Info("name resolved",
		zap.String("component", "collector"),
		zap.String("name", name),
		zap.String("id", id),
	)
	return id, nil
}

// CollectOne collects and uploads a single restaurant. The restaurant is
// returned with whatever was collected even when the upload fails.
func (c *Collector) CollectOne(ctx context.Context, t Target) (*model.Restaurant, error) {
	id, err := c.Resolve(ctx, t)
	if err != nil {
		return nil, err
	}

	_, finish, err := c.startRun(ctx, store.RunParams{
		Kind:   store.RunKindOne,
		Params: map[string]any{"id": id, "name": t.Name, "sort": c.pager.Options().Sort.String()},
	})
	if err != nil {
		return nil, err
	}

	r, err := c.collectOne(ctx, id)
	stats := map[string]any{"id": id}
	if r != nil {
		stats["reviews"] = len(r.Reviews)
		stats["uploaded"] = r.IsUpload
	}
	finish(stats, err)
	return r, err
}

func (c *Collector) collectOne(ctx context.Context, id string) (*model.Restaurant, error) {
	place, err := c.lookupPlace(ctx, id)
	if err != nil {
		return nil, err
	}
	if !place.Known() {
		return nil, eris.Wrapf(ErrUnknownPlace, "collector: %s", id)
	}

	r := &model.Restaurant{ID: id, Name: place.Name, Address: place.Address}
	if err := c.collectReviews(ctx, c.pager, r); err != nil {
		return nil, err
	}
	c.catalog(ctx, []*model.Restaurant{r})

	if err := c.upload(ctx, r); err != nil {
		return r, err
	}
	return r, nil
}

// Featured reads the highest-rated pages of a restaurant's feed and keeps
// the reviews worth showcasing. A positive top also ranks the top reviews
// by score. Nothing is written to the sink.
func (c *Collector) Featured(ctx context.Context, t Target, top int) (*review.FeaturedSet, error) {
	id, err := c.Resolve(ctx, t)
	if err != nil {
		return nil, err
	}

	place, err := c.lookupPlace(ctx, id)
	if err != nil {
		return nil, err
	}
	name := place.Name
	if !place.Known() && t.Name != "" {
		name = t.Name
	}

	opts := c.pager.Options()
	opts.Sort = model.SortHighest
	opts.MaxPages = review.FeaturedPages
	pager := review.NewPager(c.client, opts)
	if c.metrics != nil {
		pager = pager.WithObserver(c.metrics)
	}

	r := &model.Restaurant{ID: id, Name: name, Address: place.Address}
	if err := c.collectReviews(ctx, pager, r); err != nil {
		return nil, err
	}

	set := review.SelectFeatured(id, name, r.Reviews)
	if top > 0 {
		set.Rank(r.Reviews, top)
	}
	zap.L().Info("featured reviews selected",
		zap.String("component", "collector"),
		zap.String("id", id),
		zap.Int("reviews", set.TotalReviews),
		zap.Int("featured", len(set.Reviews)),
		zap.Int("photos", len(set.Photos)),
	)
	return set, nil
}
