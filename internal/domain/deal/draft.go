package deal

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Step identifies a wizard step
type Step string

const (
	StepCompany  Step = "company"
	StepService  Step = "service"
	StepCustomer Step = "customer"
)

// stepOrder is the forward navigation order of the wizard
var stepOrder = []Step{StepCompany, StepService, StepCustomer}

// Next returns the step after s, or s itself when s is the last step
func (s Step) Next() Step {
	for i, step := range stepOrder {
		if step == s && i < len(stepOrder)-1 {
			return stepOrder[i+1]
		}
	}
	return s
}

// Prev returns the step before s, or s itself when s is the first step
func (s Step) Prev() Step {
	for i, step := range stepOrder {
		if step == s && i > 0 {
			return stepOrder[i-1]
		}
	}
	return s
}

// ServiceMode distinguishes ad-hoc service selection from a pre-defined package
type ServiceMode string

const (
	ServiceModeIndividual ServiceMode = "individual"
	ServiceModePackage    ServiceMode = "package"
)

// BillingCadence is the billing mode for a package
type BillingCadence string

const (
	CadenceMonthly BillingCadence = "monthly"
	CadenceYearly  BillingCadence = "yearly"
)

// FieldKey identifies a scalar field of the deal draft
type FieldKey string

const (
	FieldCompanyName      FieldKey = "companyName"
	FieldCompanyTaxID     FieldKey = "companyTaxId"
	FieldCompanyContact   FieldKey = "companyContact"
	FieldCompanyEmail     FieldKey = "companyEmail"
	FieldCompanyRegion    FieldKey = "companyRegion"
	FieldCompanyDistrict  FieldKey = "companyDistrict"
	FieldCompanyLanguage  FieldKey = "companyLanguage"
	FieldServiceRegion    FieldKey = "serviceRegion"
	FieldServiceMode      FieldKey = "serviceMode"
	FieldServiceCategory  FieldKey = "serviceCategory"
	FieldPackageID        FieldKey = "packageId"
	FieldBillingCadence   FieldKey = "billingCadence"
	FieldCustomerName     FieldKey = "customerName"
	FieldCustomerContact  FieldKey = "customerContact"
	FieldCustomerEmail    FieldKey = "customerEmail"
	FieldCustomerRegion   FieldKey = "customerRegion"
	FieldCustomerDistrict FieldKey = "customerDistrict"
	FieldCustomerLanguage FieldKey = "customerLanguage"
	FieldCustomerConsent  FieldKey = "customerConsent"
	FieldClosureDate      FieldKey = "closureDate"
)

// DealDraft is the single mutable form model accumulated across wizard steps.
// One draft exists per wizard session; it is discarded on close and kept
// intact after a failed submission so the user can correct and retry.
type DealDraft struct {
	// Company step
	CompanyName     string
	CompanyTaxID    string
	CompanyContact  string
	CompanyEmail    string
	CompanyRegion   string
	CompanyDistrict string
	CompanyLanguage string

	// Service step
	ServiceRegion   string
	ServiceMode     ServiceMode
	ServiceCategory string
	ServiceIDs      []string
	PackageID       string
	BillingCadence  BillingCadence

	// Customer step
	CustomerName     string
	CustomerContact  string
	CustomerEmail    string
	CustomerRegion   string
	CustomerDistrict string
	CustomerLanguage string
	CustomerConsent  bool
	ClosureDate      string

	// Edit-mode identifiers carried over from the prior deal record
	DealID      string
	CompanyID   string
	CustomerID  string
	ConvertedAt time.Time
}

// NewDealDraft creates an empty draft in individual mode
func NewDealDraft() *DealDraft {
	return &DealDraft{
		ServiceMode: ServiceModeIndividual,
		ServiceIDs:  []string{},
	}
}

// IsEdit returns true when the draft was seeded from an existing deal
func (d *DealDraft) IsEdit() bool {
	return d.DealID != ""
}

// SetField applies a scalar field update. All clearing rules for coupled
// fields live here: a region change clears its paired district, and a
// service-mode switch clears the fields of the mode being left.
func (d *DealDraft) SetField(key FieldKey, value string) {
	switch key {
	case FieldCompanyName:
		d.CompanyName = value
	case FieldCompanyTaxID:
		d.CompanyTaxID = value
	case FieldCompanyContact:
		d.CompanyContact = value
	case FieldCompanyEmail:
		d.CompanyEmail = value
	case FieldCompanyRegion:
		if d.CompanyRegion != value {
			d.CompanyDistrict = ""
		}
		d.CompanyRegion = value
	case FieldCompanyDistrict:
		d.CompanyDistrict = value
	case FieldCompanyLanguage:
		d.CompanyLanguage = NormalizeLanguage(value)
	case FieldServiceRegion:
		d.SetServiceRegion(value)
	case FieldServiceMode:
		d.SetServiceMode(ServiceMode(value))
	case FieldServiceCategory:
		d.SetCategory(value)
	case FieldPackageID:
		d.SelectPackage(value, d.BillingCadence)
	case FieldBillingCadence:
		if d.ServiceMode == ServiceModePackage {
			d.BillingCadence = BillingCadence(value)
		}
	case FieldCustomerName:
		d.CustomerName = value
	case FieldCustomerContact:
		d.CustomerContact = value
	case FieldCustomerEmail:
		d.CustomerEmail = value
	case FieldCustomerRegion:
		if d.CustomerRegion != value {
			d.CustomerDistrict = ""
		}
		d.CustomerRegion = value
	case FieldCustomerDistrict:
		d.CustomerDistrict = value
	case FieldCustomerLanguage:
		d.CustomerLanguage = NormalizeLanguage(value)
	case FieldCustomerConsent:
		d.CustomerConsent = value == "true" || value == "yes" || value == "1"
	case FieldClosureDate:
		d.ClosureDate = value
	}
}

// SetServiceRegion changes the region the service offering is priced for.
// Returns true when the value actually changed, so callers can decide
// whether downstream pricing or package data needs a reload.
func (d *DealDraft) SetServiceRegion(region string) bool {
	if d.ServiceRegion == region {
		return false
	}
	d.ServiceRegion = region
	return true
}

// SetServiceMode toggles between individual and package selection.
// Switching modes clears the selection of the mode being left; the two
// selections are mutually exclusive.
func (d *DealDraft) SetServiceMode(mode ServiceMode) bool {
	if mode != ServiceModeIndividual && mode != ServiceModePackage {
		return false
	}
	if d.ServiceMode == mode {
		return false
	}
	d.ServiceMode = mode
	switch mode {
	case ServiceModeIndividual:
		d.PackageID = ""
		d.BillingCadence = ""
	case ServiceModePackage:
		d.ServiceCategory = ""
		d.ServiceIDs = []string{}
	}
	return true
}

// SetCategory changes the selected service category. Previously selected
// services belong to the old category and are cleared.
func (d *DealDraft) SetCategory(categoryID string) bool {
	if d.ServiceCategory == categoryID {
		return false
	}
	d.ServiceCategory = categoryID
	d.ServiceIDs = []string{}
	return true
}

// ToggleService adds or removes a service id from the selection.
// Ignored while a package is being selected; the two selections are
// mutually exclusive. Returns true when the selection changed.
func (d *DealDraft) ToggleService(serviceID string) bool {
	if serviceID == "" || d.ServiceMode != ServiceModeIndividual {
		return false
	}
	for i, id := range d.ServiceIDs {
		if id == serviceID {
			d.ServiceIDs = append(d.ServiceIDs[:i], d.ServiceIDs[i+1:]...)
			return true
		}
	}
	d.ServiceIDs = append(d.ServiceIDs, serviceID)
	return true
}

// SetServices replaces the selected service ids. Ignored while a package
// is being selected.
func (d *DealDraft) SetServices(serviceIDs []string) bool {
	if d.ServiceMode != ServiceModeIndividual {
		return false
	}
	if equalStrings(d.ServiceIDs, serviceIDs) {
		return false
	}
	d.ServiceIDs = append([]string{}, serviceIDs...)
	return true
}

// SelectPackage picks a package and billing cadence. Ignored while
// individual services are being selected.
func (d *DealDraft) SelectPackage(packageID string, cadence BillingCadence) bool {
	if d.ServiceMode != ServiceModePackage {
		return false
	}
	d.PackageID = packageID
	if cadence != "" {
		d.BillingCadence = cadence
	}
	return true
}

// HasService reports whether a service id is selected
func (d *DealDraft) HasService(serviceID string) bool {
	for _, id := range d.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// NormalizeLanguage canonicalizes a language value to its BCP 47 tag.
// Unparseable values are kept as entered.
func NormalizeLanguage(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	return tag.String()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
