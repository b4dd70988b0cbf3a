package intake

import (
	"context"
	"sync"
	"time"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"go.uber.org/zap"
)

// PackageResolver loads the packages available for a region and computes
// cadence-specific line totals. Region changes follow the same last-key-wins
// discipline as pricing; cadence switches never refetch.
type PackageResolver struct {
	mu       sync.Mutex
	catalog  crm.Catalog
	logger   *zap.Logger
	timeout  time.Duration
	onChange func()

	gen      uint64
	region   string
	packages []deal.PackageOffering
}

// PackageResolverOption configures a PackageResolver
type PackageResolverOption func(*PackageResolver)

// WithPackageLogger sets the logger
func WithPackageLogger(logger *zap.Logger) PackageResolverOption {
	return func(r *PackageResolver) {
		r.logger = logger
	}
}

// WithPackageOnChange registers a callback invoked after the list changes
func WithPackageOnChange(fn func()) PackageResolverOption {
	return func(r *PackageResolver) {
		r.onChange = fn
	}
}

// NewPackageResolver creates a package resolver over the remote catalog
func NewPackageResolver(catalog crm.Catalog, opts ...PackageResolverOption) *PackageResolver {
	r := &PackageResolver{
		catalog: catalog,
		logger:  zap.NewNop(),
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadPackages reloads the offerings for a region. An empty region clears
// the list without a fetch.
func (r *PackageResolver) LoadPackages(region string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.region = region

	if region == "" {
		r.packages = nil
		notify := r.onChange
		r.mu.Unlock()
		if notify != nil {
			notify()
		}
		return
	}
	r.mu.Unlock()

	go r.fetch(gen, region)
}

func (r *PackageResolver) fetch(gen uint64, region string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	packages, err := r.catalog.ListPackages(ctx, region)
	if err != nil {
		r.logger.Warn("package list failed",
			zap.String("region", region),
			zap.Error(err))
		packages = nil
	}

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.packages = packages
	notify := r.onChange
	r.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Packages returns a snapshot of the loaded offerings
func (r *PackageResolver) Packages() []deal.PackageOffering {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]deal.PackageOffering{}, r.packages...)
}

// Find returns the loaded offering with the given id
func (r *PackageResolver) Find(packageID string) (deal.PackageOffering, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pkg := range r.packages {
		if pkg.PackageID == packageID {
			return pkg, true
		}
	}
	return deal.PackageOffering{}, false
}

// ComputeLineTotals computes the cadence-specific fee per bundled service
func (r *PackageResolver) ComputeLineTotals(pkg deal.PackageOffering, cadence deal.BillingCadence) []deal.PackageLineTotal {
	return pkg.LineTotals(cadence)
}
