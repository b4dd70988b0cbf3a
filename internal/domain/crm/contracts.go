package crm

import (
	"context"

	"github.com/dealdesk/backend/internal/domain/deal"
)

// Directory exposes the deduplicated company/customer registry of the remote
// business API: paged text search plus full-record hydration by id.
type Directory interface {
	SearchCompanies(ctx context.Context, query string, page, pageSize int) ([]CompanySummary, error)
	SearchCustomers(ctx context.Context, query string, page, pageSize int) ([]CustomerSummary, error)
	GetCompanyDetail(ctx context.Context, id string) (*CompanyRecord, error)
	GetCustomerDetail(ctx context.Context, id string) (*CustomerRecord, error)
}

// Catalog exposes the category/service/pricing/package cascade
type Catalog interface {
	ListServiceCategories(ctx context.Context) ([]CategoryRecord, error)
	ListServicesByCategory(ctx context.Context, categoryID string) ([]deal.ServiceCatalogEntry, error)
	ListRegions(ctx context.Context) ([]RegionRecord, error)
	QuotePricing(ctx context.Context, region string, serviceIDs []string) ([]deal.PricingQuote, error)
	ListPackages(ctx context.Context, region string) ([]deal.PackageOffering, error)
}

// Deals exposes deal creation, update and detail hydration. The workflow
// never lists or deletes deals.
type Deals interface {
	CreateDeal(ctx context.Context, payload CreateDealPayload) (*DealResult, error)
	UpdateDeal(ctx context.Context, payload UpdateDealPayload) (*DealResult, error)
	GetDealDetail(ctx context.Context, id string) (*DealRecord, error)
}

// DealResult is the remote response to a create or update call
type DealResult struct {
	Success bool   `json:"success"`
	DealID  string `json:"dealId,omitempty"`
	Message string `json:"message,omitempty"`
}
