package deal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFieldRegionClearsDistrict(t *testing.T) {
	d := NewDealDraft()
	d.SetField(FieldCompanyRegion, "Kerala")
	d.SetField(FieldCompanyDistrict, "Ernakulam")
	assert.Equal(t, "Ernakulam", d.CompanyDistrict)

	d.SetField(FieldCompanyRegion, "Tamil Nadu")
	assert.Equal(t, "Tamil Nadu", d.CompanyRegion)
	assert.Equal(t, "", d.CompanyDistrict)
}

func TestSetFieldSameRegionKeepsDistrict(t *testing.T) {
	d := NewDealDraft()
	d.SetField(FieldCustomerRegion, "Kerala")
	d.SetField(FieldCustomerDistrict, "Ernakulam")
	d.SetField(FieldCustomerRegion, "Kerala")
	assert.Equal(t, "Ernakulam", d.CustomerDistrict)
}

func TestSetServiceModeMutualExclusion(t *testing.T) {
	d := NewDealDraft()
	d.SetField(FieldServiceMode, string(ServiceModePackage))
	d.SetField(FieldPackageID, "pkg-1")
	d.SetField(FieldBillingCadence, string(CadenceYearly))

	changed := d.SetServiceMode(ServiceModeIndividual)
	assert.True(t, changed)
	assert.Equal(t, "", d.PackageID)
	assert.Equal(t, BillingCadence(""), d.BillingCadence)

	d.SetCategory("cat-5")
	d.ToggleService("svc-1")
	d.ToggleService("svc-2")

	changed = d.SetServiceMode(ServiceModePackage)
	assert.True(t, changed)
	assert.Empty(t, d.ServiceIDs)
	assert.Equal(t, "", d.ServiceCategory)
}

func TestSetServiceModeRejectsUnknownMode(t *testing.T) {
	d := NewDealDraft()
	assert.False(t, d.SetServiceMode("bundle"))
	assert.Equal(t, ServiceModeIndividual, d.ServiceMode)
}

func TestSetCategoryClearsSelectedServices(t *testing.T) {
	d := NewDealDraft()
	d.SetCategory("cat-1")
	d.ToggleService("svc-1")

	assert.True(t, d.SetCategory("cat-2"))
	assert.Empty(t, d.ServiceIDs)

	// Re-selecting the same category must not wipe the selection
	d.ToggleService("svc-9")
	assert.False(t, d.SetCategory("cat-2"))
	assert.Equal(t, []string{"svc-9"}, d.ServiceIDs)
}

func TestToggleService(t *testing.T) {
	d := NewDealDraft()
	assert.True(t, d.ToggleService("svc-1"))
	assert.True(t, d.ToggleService("svc-2"))
	assert.True(t, d.HasService("svc-1"))

	assert.True(t, d.ToggleService("svc-1"))
	assert.False(t, d.HasService("svc-1"))
	assert.Equal(t, []string{"svc-2"}, d.ServiceIDs)

	assert.False(t, d.ToggleService(""))
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en", NormalizeLanguage("EN"))
	assert.Equal(t, "ml", NormalizeLanguage(" ml "))
	assert.Equal(t, "", NormalizeLanguage("  "))
	assert.Equal(t, "not-a-language!", NormalizeLanguage("not-a-language!"))
}

func TestStepNavigation(t *testing.T) {
	assert.Equal(t, StepService, StepCompany.Next())
	assert.Equal(t, StepCustomer, StepService.Next())
	assert.Equal(t, StepCustomer, StepCustomer.Next())

	assert.Equal(t, StepCompany, StepCompany.Prev())
	assert.Equal(t, StepService, StepCustomer.Prev())
}

func TestEntityReferenceRoundTrip(t *testing.T) {
	ref := NewEntityReference()
	assert.Equal(t, EntityModeNew, ref.Mode)

	ref.SelectExisting("42", map[string]string{"name": "Acme Traders", "phone": "9876543210"})
	assert.True(t, ref.IsExisting())
	assert.Equal(t, "42", ref.ID)
	assert.Equal(t, "Acme Traders", ref.Field("name"))

	ref.ClearToNew()
	assert.Equal(t, EntityModeNew, ref.Mode)
	assert.Equal(t, "", ref.ID)
	assert.Empty(t, ref.Fields)
}

func TestServiceSelectionIgnoredInPackageMode(t *testing.T) {
	d := NewDealDraft()
	d.SetServiceMode(ServiceModePackage)
	require.True(t, d.SelectPackage("pkg-1", CadenceYearly))

	assert.False(t, d.ToggleService("svc-9"))
	assert.False(t, d.SetServices([]string{"svc-9"}))
	assert.Empty(t, d.ServiceIDs)
	assert.Equal(t, "pkg-1", d.PackageID)
}

func TestPackageSelectionIgnoredInIndividualMode(t *testing.T) {
	d := NewDealDraft()
	require.Equal(t, ServiceModeIndividual, d.ServiceMode)
	require.True(t, d.ToggleService("svc-1"))

	assert.False(t, d.SelectPackage("pkg-1", CadenceMonthly))
	d.SetField(FieldPackageID, "pkg-1")
	d.SetField(FieldBillingCadence, string(CadenceMonthly))

	assert.Equal(t, "", d.PackageID)
	assert.Equal(t, BillingCadence(""), d.BillingCadence)
	assert.Equal(t, []string{"svc-1"}, d.ServiceIDs)
}
