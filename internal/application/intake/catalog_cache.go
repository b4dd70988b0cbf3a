package intake

import (
	"context"
	"sync"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"go.uber.org/zap"
)

// CategoryServiceCache memoizes category -> service-list lookups for the
// lifetime of one wizard session. Service catalogs are treated as static for
// the session, so entries are never invalidated; the whole cache is discarded
// with the session.
type CategoryServiceCache struct {
	mu      sync.Mutex
	catalog crm.Catalog
	entries map[string][]deal.ServiceCatalogEntry
	logger  *zap.Logger
}

// NewCategoryServiceCache creates an empty session-scoped cache
func NewCategoryServiceCache(catalog crm.Catalog, logger *zap.Logger) *CategoryServiceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryServiceCache{
		catalog: catalog,
		entries: make(map[string][]deal.ServiceCatalogEntry),
		logger:  logger,
	}
}

// GetServices returns the service list for a category, fetching it at most
// once per session. Failed fetches are not cached so the next request retries.
func (c *CategoryServiceCache) GetServices(ctx context.Context, categoryID string) ([]deal.ServiceCatalogEntry, error) {
	c.mu.Lock()
	if services, ok := c.entries[categoryID]; ok {
		c.mu.Unlock()
		c.logger.Debug("category cache hit", zap.String("category_id", categoryID))
		return append([]deal.ServiceCatalogEntry{}, services...), nil
	}
	c.mu.Unlock()

	services, err := c.catalog.ListServicesByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cached, ok := c.entries[categoryID]; ok {
		// A concurrent fetch won; keep its result.
		services = cached
	} else {
		c.entries[categoryID] = services
	}
	c.mu.Unlock()

	return append([]deal.ServiceCatalogEntry{}, services...), nil
}

// Lookup returns a cached entry for a service id across fetched categories
func (c *CategoryServiceCache) Lookup(serviceID string) (deal.ServiceCatalogEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, services := range c.entries {
		for _, svc := range services {
			if svc.ServiceID == serviceID {
				return svc, true
			}
		}
	}
	return deal.ServiceCatalogEntry{}, false
}

// Size returns the number of cached categories
func (c *CategoryServiceCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
