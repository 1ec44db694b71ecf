// Package pagination provides a lazy iterator over paged Clockify list endpoints
package pagination

import (
	"context"
	"iter"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// DefaultPageSize is the number of items requested per page.
const DefaultPageSize = 50

// Request parameter names understood by paged endpoints.
const (
	ParamPage     = "page"
	ParamPageSize = "page-size"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clockify_pages_fetched_total",
		Help: "Total number of list pages requested from the Clockify API",
	})

	pageItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clockify_page_items",
		Help:    "Number of items returned per list page",
		Buckets: []float64{0, 1, 10, 25, 49, 50},
	})
)

// FetchFunc fetches one page. params already carries the page and page-size
// values merged into the caller's filters.
type FetchFunc[T any] func(ctx context.Context, params url.Values) ([]T, error)

// Option configures an Iterator.
type Option func(*config)

type config struct {
	pageSize int
}

// WithPageSize overrides DefaultPageSize. Values <= 0 are ignored.
func WithPageSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// Iterator yields the items of a paged endpoint one at a time, requesting the
// next page only when the current one is used up. A page shorter than the page
// size marks the end; there is no total count.
//
// An Iterator is single-pass and not safe for concurrent use.
type Iterator[T any] struct {
	fetch       FetchFunc[T]
	params      url.Values
	pageSize    int
	currentPage int
	buffer      []T
	exhausted   bool
	err         error
}

// New creates an Iterator. params is copied; the caller's map is not modified.
func New[T any](fetch FetchFunc[T], params url.Values, opts ...Option) *Iterator[T] {
	cfg := config{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	cloned := url.Values{}
	for k, v := range params {
		cloned[k] = append([]string(nil), v...)
	}

	return &Iterator[T]{
		fetch:    fetch,
		params:   cloned,
		pageSize: cfg.pageSize,
	}
}

// Next returns the next item. ok is false once the sequence is exhausted.
// A fetch error ends the iteration abnormally; it is returned by this and
// every later call.
func (it *Iterator[T]) Next(ctx context.Context) (item T, ok bool, err error) {
	if it.err != nil {
		return item, false, it.err
	}

	if len(it.buffer) == 0 {
		if it.exhausted {
			return item, false, nil
		}
		if err := it.advance(ctx); err != nil {
			it.err = err
			return item, false, err
		}
		if len(it.buffer) == 0 {
			return item, false, nil
		}
	}

	item = it.buffer[0]
	it.buffer = it.buffer[1:]
	return item, true, nil
}

// advance requests the next page and replaces the buffer with its items.
func (it *Iterator[T]) advance(ctx context.Context) error {
	page := it.currentPage + 1

	params := url.Values{}
	for k, v := range it.params {
		params[k] = v
	}
	params.Set(ParamPage, strconv.Itoa(page))
	params.Set(ParamPageSize, strconv.Itoa(it.pageSize))

	it.currentPage = page
	pagesFetchedTotal.Inc()

	items, err := it.fetch(ctx, params)
	if err != nil {
		log.Debug().Err(err).Int("page", page).Msg("Page fetch failed")
		return err
	}

	pageItems.Observe(float64(len(items)))
	it.buffer = items
	if len(items) < it.pageSize {
		it.exhausted = true
	}

	log.Debug().
		Int("page", page).
		Int("items", len(items)).
		Bool("exhausted", it.exhausted).
		Msg("Fetched page")

	return nil
}

// Pages returns the number of page requests issued so far.
func (it *Iterator[T]) Pages() int {
	return it.currentPage
}

// Exhausted reports whether the last page has been seen. Buffered items may
// still be pending.
func (it *Iterator[T]) Exhausted() bool {
	return it.exhausted
}

// All adapts the iterator to a range-over-func sequence. A fetch error is
// yielded once, with the zero item, and ends the sequence.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, ok, err := it.Next(ctx)
			if err != nil {
				yield(item, err)
				return
			}
			if !ok {
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Collect drains up to limit items (limit <= 0 drains everything). No page is
// requested once the limit has been reached.
func (it *Iterator[T]) Collect(ctx context.Context, limit int) ([]T, error) {
	var out []T
	for limit <= 0 || len(out) < limit {
		item, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out, nil
}
