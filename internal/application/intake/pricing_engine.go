package intake

import (
	"context"
	"sync"
	"time"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"go.uber.org/zap"
)

// PricingEngine recomputes per-service quotes whenever the active region or
// the selected service set changes. Every refresh bumps a generation counter;
// a response is applied only when its generation still matches at arrival
// time, so a slow stale response can never overwrite a newer selection's
// quotes (last-key-wins).
type PricingEngine struct {
	mu       sync.Mutex
	catalog  crm.Catalog
	logger   *zap.Logger
	timeout  time.Duration
	onChange func()

	gen    uint64
	key    deal.QuoteKey
	quotes []deal.PricingQuote
}

// PricingEngineOption configures a PricingEngine
type PricingEngineOption func(*PricingEngine)

// WithPricingLogger sets the logger
func WithPricingLogger(logger *zap.Logger) PricingEngineOption {
	return func(e *PricingEngine) {
		e.logger = logger
	}
}

// WithPricingOnChange registers a callback invoked after quotes change
func WithPricingOnChange(fn func()) PricingEngineOption {
	return func(e *PricingEngine) {
		e.onChange = fn
	}
}

// NewPricingEngine creates a pricing engine over the remote catalog
func NewPricingEngine(catalog crm.Catalog, opts ...PricingEngineOption) *PricingEngine {
	e := &PricingEngine{
		catalog: catalog,
		logger:  zap.NewNop(),
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh recomputes quotes for the given region and service selection.
// An empty region or selection clears the quotes without a fetch.
func (e *PricingEngine) Refresh(region string, serviceIDs []string) {
	e.mu.Lock()
	e.gen++
	gen := e.gen

	if region == "" || len(serviceIDs) == 0 {
		e.key = ""
		e.quotes = nil
		notify := e.onChange
		e.mu.Unlock()
		if notify != nil {
			notify()
		}
		return
	}

	key := deal.NewQuoteKey(region, serviceIDs)
	e.key = key
	ids := append([]string{}, serviceIDs...)
	e.mu.Unlock()

	go e.fetch(gen, region, ids)
}

func (e *PricingEngine) fetch(gen uint64, region string, serviceIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	quotes, err := e.catalog.QuotePricing(ctx, region, serviceIDs)
	if err != nil {
		e.logger.Warn("pricing quote failed",
			zap.String("region", region),
			zap.Strings("service_ids", serviceIDs),
			zap.Error(err))
		quotes = nil
	}

	e.mu.Lock()
	if gen != e.gen {
		// Superseded while in flight; drop silently.
		e.mu.Unlock()
		return
	}
	e.quotes = quotes
	notify := e.onChange
	e.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Quotes returns a snapshot of the current quote set
func (e *PricingEngine) Quotes() []deal.PricingQuote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]deal.PricingQuote{}, e.quotes...)
}

// Key returns the quote key the current set belongs to
func (e *PricingEngine) Key() deal.QuoteKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key
}

// Clear drops all quotes and invalidates in-flight requests
func (e *PricingEngine) Clear() {
	e.Refresh("", nil)
}
