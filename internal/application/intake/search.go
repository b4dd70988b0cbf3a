package intake

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default search tuning. Both are overridable via options so tests and
// configuration can tighten them.
const (
	defaultSearchDebounce = 300 * time.Millisecond
	defaultSearchPageSize = 10
	defaultFetchTimeout   = 10 * time.Second
)

// SearchFunc performs one page of a remote registry search
type SearchFunc[T any] func(ctx context.Context, query string, page, pageSize int) ([]T, error)

// MatchFunc is the client-side post-filter applied before display. The remote
// search may ignore the query for some fields, so results are additionally
// matched locally against name/contact/identifier substrings.
type MatchFunc[T any] func(item T, query string) bool

// SearchClient is a debounced, supersede-safe text search against an entity
// registry with incremental load-more pagination. Only the response matching
// the latest issued query generation is ever applied; earlier in-flight
// responses are discarded on arrival.
type SearchClient[T any] struct {
	mu       sync.Mutex
	search   SearchFunc[T]
	match    MatchFunc[T]
	debounce time.Duration
	pageSize int
	timeout  time.Duration
	logger   *zap.Logger
	onChange func()

	query   string
	gen     uint64
	timer   *time.Timer
	results []T
	raw     []T
	page    int
	hasMore bool
	loading bool
}

// SearchClientOption configures a SearchClient
type SearchClientOption[T any] func(*SearchClient[T])

// WithDebounce overrides the debounce window
func WithDebounce[T any](d time.Duration) SearchClientOption[T] {
	return func(c *SearchClient[T]) {
		c.debounce = d
	}
}

// WithPageSize overrides the search page size
func WithPageSize[T any](size int) SearchClientOption[T] {
	return func(c *SearchClient[T]) {
		c.pageSize = size
	}
}

// WithSearchLogger sets the logger
func WithSearchLogger[T any](logger *zap.Logger) SearchClientOption[T] {
	return func(c *SearchClient[T]) {
		c.logger = logger
	}
}

// WithOnResults registers a callback invoked after results change
func WithOnResults[T any](fn func()) SearchClientOption[T] {
	return func(c *SearchClient[T]) {
		c.onChange = fn
	}
}

// NewSearchClient creates a search client over the given fetch and match
// functions.
func NewSearchClient[T any](search SearchFunc[T], match MatchFunc[T], opts ...SearchClientOption[T]) *SearchClient[T] {
	c := &SearchClient[T]{
		search:   search,
		match:    match,
		debounce: defaultSearchDebounce,
		pageSize: defaultSearchPageSize,
		timeout:  defaultFetchTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQuery restarts the debounce window for a new query. Only the last call
// within the window triggers a request; any request still in flight is
// superseded and its result dropped at apply time.
func (c *SearchClient[T]) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.query = query
	c.gen++
	gen := c.gen

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.fetch(gen, query, 1, false)
	})
}

// LoadMore requests the next page for the current query. No-op while a fetch
// is in flight or when the previous page was not full.
func (c *SearchClient[T]) LoadMore() {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return
	}
	c.loading = true
	gen := c.gen
	query := c.query
	page := c.page + 1
	c.mu.Unlock()

	go c.fetch(gen, query, page, true)
}

// Seed replaces the result pool without a network call. Used to present a
// company's linked customers as the customer candidate pool.
func (c *SearchClient[T]) Seed(items []T) {
	c.mu.Lock()
	c.gen++
	c.query = ""
	c.raw = append([]T{}, items...)
	c.results = append([]T{}, items...)
	c.page = 1
	c.hasMore = false
	c.loading = false
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Results returns a snapshot of the post-filtered result set
func (c *SearchClient[T]) Results() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T{}, c.results...)
}

// HasMore reports whether another page is likely available. Derived from the
// full-page heuristic, so one extra near-empty request at the true end is
// possible and harmless.
func (c *SearchClient[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Loading reports whether a fetch is in flight
func (c *SearchClient[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Reset clears the query and all results
func (c *SearchClient[T]) Reset() {
	c.mu.Lock()
	c.gen++
	c.query = ""
	c.raw = nil
	c.results = nil
	c.page = 0
	c.hasMore = false
	c.loading = false
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
}

func (c *SearchClient[T]) fetch(gen uint64, query string, page int, appendPage bool) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	items, err := c.search(ctx, query, page, c.pageSize)
	if err != nil {
		// Search failures are non-fatal: yield an empty page and let the
		// next keystroke retry transparently.
		c.logger.Warn("registry search failed",
			zap.String("query", query),
			zap.Int("page", page),
			zap.Error(err))
		items = nil
	}

	c.mu.Lock()
	if gen != c.gen {
		// A newer query was issued while this request was in flight.
		c.mu.Unlock()
		return
	}
	if appendPage {
		c.raw = append(c.raw, items...)
	} else {
		c.raw = items
	}
	c.page = page
	c.hasMore = err == nil && len(items) == c.pageSize
	c.loading = false
	c.results = c.applyFilter(c.raw, query)
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (c *SearchClient[T]) applyFilter(items []T, query string) []T {
	if query == "" || c.match == nil {
		return append([]T{}, items...)
	}
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if c.match(item, query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
