package intake

import (
	"context"
	"sync"

	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/dealdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Hydration is the resolved identity and field set of a selected entity
type Hydration struct {
	ID     string
	Fields map[string]string
}

// HydrateFunc loads the full record behind a search summary
type HydrateFunc[S any] func(ctx context.Context, summary S) (Hydration, error)

// SummarizeFunc extracts the identity and the fields already present on the
// summary itself, used as the fallback when detail hydration fails.
type SummarizeFunc[S any] func(summary S) Hydration

// EntityResolver resolves one entity slot (Company or Customer) of the deal
// draft: either the user enters a new record manually, or picks an existing
// registry record through the debounced search and has it hydrated in full.
type EntityResolver[S any] struct {
	mu         sync.Mutex
	search     *SearchClient[S]
	hydrate    HydrateFunc[S]
	summarize  SummarizeFunc[S]
	logger     *zap.Logger
	onSelected func(summary S, h Hydration)
	onCleared  func()

	ref      deal.EntityReference
	existing bool
}

// EntityResolverOption configures an EntityResolver
type EntityResolverOption[S any] func(*EntityResolver[S])

// WithResolverLogger sets the logger
func WithResolverLogger[S any](logger *zap.Logger) EntityResolverOption[S] {
	return func(r *EntityResolver[S]) {
		r.logger = logger
	}
}

// WithOnSelected registers a hook invoked after a successful selection
func WithOnSelected[S any](fn func(summary S, h Hydration)) EntityResolverOption[S] {
	return func(r *EntityResolver[S]) {
		r.onSelected = fn
	}
}

// WithOnCleared registers a hook invoked when a selection is discarded
func WithOnCleared[S any](fn func()) EntityResolverOption[S] {
	return func(r *EntityResolver[S]) {
		r.onCleared = fn
	}
}

// NewEntityResolver creates a resolver over a search client, a detail
// hydration function and a summary fallback.
func NewEntityResolver[S any](
	search *SearchClient[S],
	hydrate HydrateFunc[S],
	summarize SummarizeFunc[S],
	opts ...EntityResolverOption[S],
) *EntityResolver[S] {
	r := &EntityResolver[S]{
		search:    search,
		hydrate:   hydrate,
		summarize: summarize,
		logger:    zap.NewNop(),
		ref:       deal.NewEntityReference(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search exposes the underlying debounced search client
func (r *EntityResolver[S]) Search() *SearchClient[S] {
	return r.search
}

// InExistingMode reports whether the existing-record picker is active
func (r *EntityResolver[S]) InExistingMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existing
}

// ToggleExistingMode flips between manual entry and existing-record lookup.
// Leaving existing mode discards the selection.
func (r *EntityResolver[S]) ToggleExistingMode() bool {
	r.mu.Lock()
	r.existing = !r.existing
	existing := r.existing
	if !existing {
		r.ref.ClearToNew()
		r.search.Reset()
	}
	r.mu.Unlock()

	if !existing && r.onCleared != nil {
		r.onCleared()
	}
	return existing
}

// EnterExistingMode activates the existing-record picker without toggling
func (r *EntityResolver[S]) EnterExistingMode() {
	r.mu.Lock()
	r.existing = true
	r.mu.Unlock()
}

// Select hydrates the full record for the chosen summary and overwrites the
// entity reference's fields with it. When hydration fails the summary's own
// fields are used instead; partial data is better than none and must not
// block the step.
func (r *EntityResolver[S]) Select(ctx context.Context, summary S) deal.EntityReference {
	h, err := r.hydrate(ctx, summary)
	if err != nil {
		h = r.summarize(summary)
		r.logger.Warn("entity hydration failed, falling back to summary fields",
			zap.String("id", h.ID),
			zap.Error(err))
	}

	r.mu.Lock()
	r.existing = true
	r.ref.SelectExisting(h.ID, h.Fields)
	ref := r.ref
	r.mu.Unlock()

	if r.onSelected != nil {
		r.onSelected(summary, h)
	}
	return ref
}

// SelectByID selects a summary out of the current result pool by identity
func (r *EntityResolver[S]) SelectByID(ctx context.Context, id string) (deal.EntityReference, error) {
	for _, summary := range r.search.Results() {
		if r.summarize(summary).ID == id {
			return r.Select(ctx, summary), nil
		}
	}
	return deal.EntityReference{}, shared.NewDomainError("NOT_FOUND", "Selected record is not in the current result set")
}

// ClearToNewEntry resets the slot to manual entry, discarding any hydrated
// values. The user must re-enter the fields.
func (r *EntityResolver[S]) ClearToNewEntry() deal.EntityReference {
	r.mu.Lock()
	r.existing = false
	r.ref.ClearToNew()
	ref := r.ref
	r.mu.Unlock()

	if r.onCleared != nil {
		r.onCleared()
	}
	return ref
}

// Reference returns a snapshot of the current entity reference
func (r *EntityResolver[S]) Reference() deal.EntityReference {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.ref
	ref.Fields = map[string]string{}
	for k, v := range r.ref.Fields {
		ref.Fields[k] = v
	}
	return ref
}

// SetReference overwrites the reference, used when seeding edit mode
func (r *EntityResolver[S]) SetReference(ref deal.EntityReference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existing = ref.IsExisting()
	r.ref = ref
	if r.ref.Fields == nil {
		r.ref.Fields = map[string]string{}
	}
}
