package intake

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryGuard is a map-backed submission guard for composer tests
type memoryGuard struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{claims: map[string]bool{}}
}

func (g *memoryGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claims[key] {
		return false, nil
	}
	g.claims[key] = true
	return true, nil
}

func (g *memoryGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
	return nil
}

func (g *memoryGuard) IsClaimed(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claims[key], nil
}

func (g *memoryGuard) Close() error { return nil }

func sampleDraft() *deal.DealDraft {
	d := deal.NewDealDraft()
	d.CompanyName = "Acme Traders"
	d.CompanyTaxID = "TAX-99"
	d.CompanyContact = "9876543210"
	d.CompanyRegion = "Kerala"
	d.CompanyDistrict = "Ernakulam"
	d.CustomerName = "Meera"
	d.CustomerContact = "9000000001"
	d.CustomerEmail = "meera@example.com"
	d.CustomerRegion = "Kerala"
	d.CustomerDistrict = "Ernakulam"
	d.CustomerConsent = true
	d.ClosureDate = "2026-09-15"
	d.ServiceRegion = "Kerala"
	d.ServiceMode = deal.ServiceModeIndividual
	d.ServiceCategory = "5"
	d.ServiceIDs = []string{"svc-1"}
	return d
}

func TestBuildCreatePayloadNewCompanyExistingCustomer(t *testing.T) {
	d := sampleDraft()
	companyRef := deal.NewEntityReference()
	customerRef := deal.NewEntityReference()
	customerRef.SelectExisting("7", map[string]string{"name": "Meera"})

	identity := SessionIdentity{AssociateID: "assoc-1", FranchiseID: "fr-1"}
	payload := BuildCreatePayload(d, companyRef, customerRef, nil, identity)

	assert.Equal(t, crm.DealTypeIndividual, payload.DealType)
	assert.Equal(t, "Kerala", payload.Region)
	assert.Equal(t, "assoc-1", payload.AssociateID)
	assert.Equal(t, "fr-1", payload.FranchiseID)

	// New company carries the full entered field set
	assert.False(t, payload.Company.IsExisting)
	assert.Empty(t, payload.Company.ExistingCompanyID)
	assert.Equal(t, "Acme Traders", payload.Company.Name)
	assert.Equal(t, "TAX-99", payload.Company.TaxID)
	assert.Equal(t, "Ernakulam", payload.Company.District)

	// Existing customer travels as an id reference, not re-entered fields
	assert.True(t, payload.Customer.IsExisting)
	assert.Equal(t, "7", payload.Customer.ExistingCustomerID)
	assert.Empty(t, payload.Customer.Name)
	// Deal-scoped attributes still ride along with the reference
	assert.Equal(t, "2026-09-15", payload.Customer.ClosureDate)
	assert.True(t, payload.Customer.ConsentToContact)
}

func TestBuildCreatePayloadPackageMode(t *testing.T) {
	d := sampleDraft()
	d.ServiceMode = deal.ServiceModePackage
	d.ServiceCategory = ""
	d.ServiceIDs = nil
	d.PackageID = "pkg-1"
	d.BillingCadence = deal.CadenceYearly

	payload := BuildCreatePayload(d, deal.NewEntityReference(), deal.NewEntityReference(), nil, SessionIdentity{})
	assert.Equal(t, crm.DealTypePackage, payload.DealType)
}

func TestBuildUpdatePayloadCarriesPriorIdentifiers(t *testing.T) {
	d := sampleDraft()
	d.DealID = "deal-10"
	d.CompanyID = "c-3"
	d.CustomerID = "7"
	d.ConvertedAt = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	payload := BuildUpdatePayload(d, nil, SessionIdentity{AssociateID: "assoc-1"})

	assert.Equal(t, "deal-10", payload.DealID)
	assert.Equal(t, "c-3", payload.CompanyID)
	assert.Equal(t, "7", payload.CustomerID)
	assert.Equal(t, d.ConvertedAt, payload.ConvertedAt)
	assert.Equal(t, "Meera", payload.CustomerName)
	assert.Equal(t, "assoc-1", payload.AssociateID)
}

func TestBuildQuoteLinesEnrichesFromCatalog(t *testing.T) {
	quotes := []deal.PricingQuote{
		{
			ServiceID:       "svc-1",
			ProfessionalFee: decimal.NewFromInt(300),
			GovtFee:         decimal.NewFromInt(150),
			Total:           decimal.NewFromInt(450),
		},
		{ServiceID: "svc-9", Total: decimal.NewFromInt(100)},
	}
	lookup := func(serviceID string) (deal.ServiceCatalogEntry, bool) {
		if serviceID == "svc-1" {
			return deal.ServiceCatalogEntry{ServiceID: "svc-1", Name: "GST Filing"}, true
		}
		return deal.ServiceCatalogEntry{}, false
	}

	lines := BuildQuoteLines(quotes, lookup, "5", "Compliance")
	require.Len(t, lines, 2)
	assert.Equal(t, "GST Filing", lines[0].ServiceName)
	assert.Equal(t, "5", lines[0].CategoryID)
	assert.Equal(t, "Compliance", lines[0].CategoryName)
	assert.True(t, lines[0].Total.Equal(decimal.NewFromInt(450)))
	assert.Empty(t, lines[1].ServiceName)
}

func TestBuildPackageLinesExpandsBundledServices(t *testing.T) {
	pkg := deal.PackageOffering{
		PackageID: "pkg-1",
		Name:      "Compliance Bundle",
		Services: []deal.PackageService{
			{ServiceID: "svc-1", Name: "GST Filing", MonthlyFee: decimal.NewFromInt(500), YearlyFee: decimal.NewFromInt(5000)},
			{ServiceID: "svc-2", Name: "Bookkeeping", MonthlyFee: decimal.NewFromInt(800), YearlyFee: decimal.NewFromInt(8000)},
		},
	}

	lines := BuildPackageLines(pkg, deal.CadenceYearly)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, "pkg-1", line.PackageID)
		assert.Equal(t, "Compliance Bundle", line.PackageName)
	}
	assert.True(t, lines[0].Total.Equal(decimal.NewFromInt(5000)))
	assert.True(t, lines[1].Total.Equal(decimal.NewFromInt(8000)))
}

func TestSubmitCreateBlocksDuplicateClaim(t *testing.T) {
	deals := new(MockDeals)
	deals.On("CreateDeal", mock.Anything, mock.Anything).
		Return(&crm.DealResult{Success: true, DealID: "deal-1"}, nil).Once()

	composer := NewPayloadComposer(deals, newMemoryGuard(), nil)

	first := composer.SubmitCreate(context.Background(), "key-1", crm.CreateDealPayload{})
	assert.True(t, first.Success)
	assert.Equal(t, "deal-1", first.DealID)

	second := composer.SubmitCreate(context.Background(), "key-1", crm.CreateDealPayload{})
	assert.False(t, second.Success)
	assert.NotEmpty(t, second.Message)
	deals.AssertNumberOfCalls(t, "CreateDeal", 1)
}

func TestSubmitCreateReleasesClaimOnFailure(t *testing.T) {
	deals := new(MockDeals)
	deals.On("CreateDeal", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("gateway timeout")).Once()
	deals.On("CreateDeal", mock.Anything, mock.Anything).
		Return(&crm.DealResult{Success: true, DealID: "deal-2"}, nil).Once()

	guard := newMemoryGuard()
	composer := NewPayloadComposer(deals, guard, nil)

	first := composer.SubmitCreate(context.Background(), "key-1", crm.CreateDealPayload{})
	assert.False(t, first.Success)
	assert.Contains(t, first.Message, "try again")

	claimed, err := guard.IsClaimed(context.Background(), "key-1")
	require.NoError(t, err)
	assert.False(t, claimed)

	retry := composer.SubmitCreate(context.Background(), "key-1", crm.CreateDealPayload{})
	assert.True(t, retry.Success)
}

func TestSubmitCreateRejectedByRemote(t *testing.T) {
	deals := new(MockDeals)
	deals.On("CreateDeal", mock.Anything, mock.Anything).
		Return(&crm.DealResult{Success: false, Message: "duplicate tax id"}, nil)

	composer := NewPayloadComposer(deals, newMemoryGuard(), nil)
	result := composer.SubmitCreate(context.Background(), "key-1", crm.CreateDealPayload{})

	assert.False(t, result.Success)
	assert.Equal(t, "duplicate tax id", result.Message)
}

func TestSubmitUpdateTransportFailure(t *testing.T) {
	deals := new(MockDeals)
	deals.On("UpdateDeal", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("connection refused"))

	composer := NewPayloadComposer(deals, nil, nil)
	result := composer.SubmitUpdate(context.Background(), crm.UpdateDealPayload{DealID: "deal-10"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "try again")
}

func TestSubmissionKeyStableForSameDraft(t *testing.T) {
	identity := SessionIdentity{AssociateID: "assoc-1"}
	a := submissionKey(sampleDraft(), identity)
	b := submissionKey(sampleDraft(), identity)
	assert.Equal(t, a, b)

	changed := sampleDraft()
	changed.ServiceIDs = []string{"svc-1", "svc-2"}
	assert.NotEqual(t, a, submissionKey(changed, identity))
}
