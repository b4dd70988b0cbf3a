package intake

import (
	"context"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/stretchr/testify/mock"
)

// stubDirectory is a function-backed crm.Directory for tests that need to
// control response timing.
type stubDirectory struct {
	searchCompanies func(ctx context.Context, query string, page, pageSize int) ([]crm.CompanySummary, error)
	searchCustomers func(ctx context.Context, query string, page, pageSize int) ([]crm.CustomerSummary, error)
	companyDetail   func(ctx context.Context, id string) (*crm.CompanyRecord, error)
	customerDetail  func(ctx context.Context, id string) (*crm.CustomerRecord, error)
}

func (s *stubDirectory) SearchCompanies(ctx context.Context, query string, page, pageSize int) ([]crm.CompanySummary, error) {
	if s.searchCompanies == nil {
		return nil, nil
	}
	return s.searchCompanies(ctx, query, page, pageSize)
}

func (s *stubDirectory) SearchCustomers(ctx context.Context, query string, page, pageSize int) ([]crm.CustomerSummary, error) {
	if s.searchCustomers == nil {
		return nil, nil
	}
	return s.searchCustomers(ctx, query, page, pageSize)
}

func (s *stubDirectory) GetCompanyDetail(ctx context.Context, id string) (*crm.CompanyRecord, error) {
	if s.companyDetail == nil {
		return nil, nil
	}
	return s.companyDetail(ctx, id)
}

func (s *stubDirectory) GetCustomerDetail(ctx context.Context, id string) (*crm.CustomerRecord, error) {
	if s.customerDetail == nil {
		return nil, nil
	}
	return s.customerDetail(ctx, id)
}

// stubCatalog is a function-backed crm.Catalog
type stubCatalog struct {
	listCategories func(ctx context.Context) ([]crm.CategoryRecord, error)
	listServices   func(ctx context.Context, categoryID string) ([]deal.ServiceCatalogEntry, error)
	listRegions    func(ctx context.Context) ([]crm.RegionRecord, error)
	quotePricing   func(ctx context.Context, region string, serviceIDs []string) ([]deal.PricingQuote, error)
	listPackages   func(ctx context.Context, region string) ([]deal.PackageOffering, error)
}

func (s *stubCatalog) ListServiceCategories(ctx context.Context) ([]crm.CategoryRecord, error) {
	if s.listCategories == nil {
		return nil, nil
	}
	return s.listCategories(ctx)
}

func (s *stubCatalog) ListServicesByCategory(ctx context.Context, categoryID string) ([]deal.ServiceCatalogEntry, error) {
	if s.listServices == nil {
		return nil, nil
	}
	return s.listServices(ctx, categoryID)
}

func (s *stubCatalog) ListRegions(ctx context.Context) ([]crm.RegionRecord, error) {
	if s.listRegions == nil {
		return nil, nil
	}
	return s.listRegions(ctx)
}

func (s *stubCatalog) QuotePricing(ctx context.Context, region string, serviceIDs []string) ([]deal.PricingQuote, error) {
	if s.quotePricing == nil {
		return nil, nil
	}
	return s.quotePricing(ctx, region, serviceIDs)
}

func (s *stubCatalog) ListPackages(ctx context.Context, region string) ([]deal.PackageOffering, error) {
	if s.listPackages == nil {
		return nil, nil
	}
	return s.listPackages(ctx, region)
}

// MockDeals is a testify mock of crm.Deals
type MockDeals struct {
	mock.Mock
}

func (m *MockDeals) CreateDeal(ctx context.Context, payload crm.CreateDealPayload) (*crm.DealResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.DealResult), args.Error(1)
}

func (m *MockDeals) UpdateDeal(ctx context.Context, payload crm.UpdateDealPayload) (*crm.DealResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.DealResult), args.Error(1)
}

func (m *MockDeals) GetDealDetail(ctx context.Context, id string) (*crm.DealRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.DealRecord), args.Error(1)
}

var _ crm.Directory = (*stubDirectory)(nil)
var _ crm.Catalog = (*stubCatalog)(nil)
var _ crm.Deals = (*MockDeals)(nil)
