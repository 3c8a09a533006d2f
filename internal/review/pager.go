// Package review walks the cursor-paginated review feed of one place and
// turns its positional records into model.Review values.
package review

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/resilience"
	"github.com/ntoujavaproject/store-strategist/internal/tree"
)

// State is the pager's position in its pagination state machine.
type State int

const (
	StateStart State = iota
	StateFetchingPage
	StateHasNextPage
	StateExhausted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetchingPage:
		return "fetching_page"
	case StateHasNextPage:
		return "has_next_page"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends pagination.
func (s State) Terminal() bool {
	return s == StateExhausted || s == StateAborted
}

const (
	DefaultMaxPages  = 2000
	DefaultPageDelay = 100 * time.Millisecond
)

// ErrFormat marks a page whose body is not the expected feed shape.
var ErrFormat = eris.New("unexpected review page format")

// PageFetcher returns one raw feed page with the XSSI prefix removed.
type PageFetcher interface {
	ReviewPage(ctx context.Context, id, cursor string, sort model.SortMode) ([]byte, error)
}

// Options controls one pagination run.
type Options struct {
	MaxPages  int
	Sort      model.SortMode
	PageDelay time.Duration
	Retry     resilience.Policy
}

// Result is the outcome of paginating one place.
type Result struct {
	ID      string
	Records []any
	Pages   int
	State   State
	// Err is the failure that ended pagination early, if any.
	Err error
}

// PageObserver is notified once per fetched page.
type PageObserver interface {
	ObservePage(ok bool)
}

// Pager fetches review pages for places.
type Pager struct {
	fetcher  PageFetcher
	opts     Options
	observer PageObserver
}

// NewPager creates a pager. Zero option values take the package defaults.
func NewPager(fetcher PageFetcher, opts Options) *Pager {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if !opts.Sort.Valid() {
		opts.Sort = model.SortNewest
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	opts.Retry = opts.Retry.WithLogger("review_page")
	return &Pager{fetcher: fetcher, opts: opts}
}

// WithObserver returns a copy of p that reports pages to o.
func (p *Pager) WithObserver(o PageObserver) *Pager {
	cp := *p
	cp.observer = o
	return &cp
}

// Options returns the effective options.
func (p *Pager) Options() Options {
	return p.opts
}

// Fetch walks the feed for id until the cursor runs out, MaxPages is
// reached, or a page fails. Records come back in fetch order.
//
// A failure on the first page aborts with no records. A failure on a later
// page, or cancellation, ends pagination but keeps what was collected.
func (p *Pager) Fetch(ctx context.Context, id string) *Result {
	log := zap.L().With(zap.String("component", "review"), zap.String("id", id))
	res := &Result{ID: id, State: StateStart}
	cursor := ""

	for {
		res.State = StateFetchingPage
		page, err := p.fetchPage(ctx, id, cursor)
		if p.observer != nil {
			p.observer.ObservePage(err == nil)
		}
		if err != nil {
			res.Err = err
			if res.Pages == 0 {
				res.State = StateAborted
				res.Records = nil
				log.Warn("review pagination aborted", zap.Error(err))
			} else {
				res.State = StateExhausted
				log.Warn("review pagination ended early",
					zap.Int("pages", res.Pages),
					zap.Error(err),
				)
			}
			return res
		}

		res.Pages++
		res.Records = append(res.Records, page.records...)

		if page.cursor == "" || res.Pages >= p.opts.MaxPages {
			res.State = StateExhausted
			log.Debug("review pagination exhausted",
				zap.Int("pages", res.Pages),
				zap.Int("records", len(res.Records)),
			)
			return res
		}

		res.State = StateHasNextPage
		cursor = page.cursor
		if err := sleep(ctx, p.opts.PageDelay); err != nil {
			res.State = StateExhausted
			res.Err = err
			return res
		}
	}
}

type page struct {
	cursor  string
	records []any
}

func (p *Pager) fetchPage(ctx context.Context, id, cursor string) (*page, error) {
	body, err := resilience.DoVal(ctx, p.opts.Retry, func(ctx context.Context) ([]byte, error) {
		return p.fetcher.ReviewPage(ctx, id, cursor, p.opts.Sort)
	})
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// decodePage reads the cursor at [1] and the record list at [2]. A missing
// or null record list is an empty page.
func decodePage(body []byte) (*page, error) {
	root, err := tree.Decode(body)
	if err != nil {
		return nil, eris.Wrap(ErrFormat, err.Error())
	}
	top, ok := root.([]any)
	if !ok || len(top) < 2 {
		return nil, eris.Wrap(ErrFormat, "top level is not an array of at least 2 elements")
	}

	pg := &page{}
	switch c := top[1].(type) {
	case nil:
	case string:
		pg.cursor = c
	default:
		return nil, eris.Wrapf(ErrFormat, "cursor has type %T", top[1])
	}

	if len(top) < 3 || top[2] == nil {
		return pg, nil
	}
	records, ok := top[2].([]any)
	if !ok {
		return nil, eris.Wrapf(ErrFormat, "records have type %T", top[2])
	}
	pg.records = records
	return pg, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
