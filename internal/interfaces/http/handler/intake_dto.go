package handler

import (
	"github.com/dealdesk/backend/internal/application/intake"
	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest opens a wizard session in create or edit mode
type OpenSessionRequest struct {
	Mode          string        `json:"mode" binding:"required,oneof=create edit"`
	DealID        string        `json:"dealId" binding:"required_if=Mode edit"`
	AssociateID   string        `json:"associateId" binding:"required"`
	FranchiseID   string        `json:"franchiseId"`
	DefaultRegion string        `json:"defaultRegion"`
	Defaults      *SeedDefaults `json:"defaults"`
}

// SeedDefaults pre-fills a create-mode draft
type SeedDefaults struct {
	ServiceRegion string   `json:"serviceRegion"`
	CategoryID    string   `json:"categoryId"`
	ServiceIDs    []string `json:"serviceIds"`
}

// FieldUpdateRequest applies one scalar field change to the draft
type FieldUpdateRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// SetServicesRequest replaces the individual service selection
type SetServicesRequest struct {
	ServiceIDs []string `json:"serviceIds" binding:"required"`
}

// ToggleServiceRequest adds or removes one service
type ToggleServiceRequest struct {
	ServiceID string `json:"serviceId" binding:"required"`
}

// SelectPackageRequest picks a package and billing cadence
type SelectPackageRequest struct {
	PackageID string `json:"packageId" binding:"required"`
	Cadence   string `json:"cadence" binding:"omitempty,oneof=monthly yearly"`
}

// SearchQueryRequest updates the debounced search query of an entity slot
type SearchQueryRequest struct {
	Query string `json:"query"`
}

// SelectEntityRequest picks an existing record out of the search results
type SelectEntityRequest struct {
	ID string `json:"id" binding:"required"`
}

// EntityModeRequest switches an entity slot between new and existing entry
type EntityModeRequest struct {
	Existing bool `json:"existing"`
}

// SessionResponse is returned when a session is opened
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Step      string `json:"step"`
}

// EntityStateResponse is the resolution state of one entity slot
type EntityStateResponse struct {
	Mode   string            `json:"mode"`
	ID     string            `json:"id,omitempty"`
	Fields map[string]string `json:"fields"`
}

// SearchStateResponse is the live result pool of a debounced search
type SearchStateResponse struct {
	Results any  `json:"results"`
	Loading bool `json:"loading"`
	HasMore bool `json:"hasMore"`
}

// DraftResponse is the wire shape of the accumulated draft
type DraftResponse struct {
	CompanyName     string `json:"companyName"`
	CompanyTaxID    string `json:"companyTaxId"`
	CompanyContact  string `json:"companyContact"`
	CompanyEmail    string `json:"companyEmail"`
	CompanyRegion   string `json:"companyRegion"`
	CompanyDistrict string `json:"companyDistrict"`
	CompanyLanguage string `json:"companyLanguage"`

	ServiceRegion   string   `json:"serviceRegion"`
	ServiceMode     string   `json:"serviceMode"`
	ServiceCategory string   `json:"serviceCategory"`
	ServiceIDs      []string `json:"serviceIds"`
	PackageID       string   `json:"packageId"`
	BillingCadence  string   `json:"billingCadence"`

	CustomerName     string `json:"customerName"`
	CustomerContact  string `json:"customerContact"`
	CustomerEmail    string `json:"customerEmail"`
	CustomerRegion   string `json:"customerRegion"`
	CustomerDistrict string `json:"customerDistrict"`
	CustomerLanguage string `json:"customerLanguage"`
	CustomerConsent  bool   `json:"customerConsent"`
	ClosureDate      string `json:"closureDate"`

	DealID string `json:"dealId,omitempty"`
	IsEdit bool   `json:"isEdit"`
}

// WizardStateResponse is the full session snapshot
type WizardStateResponse struct {
	SessionID  string                       `json:"sessionId"`
	Step       string                       `json:"step"`
	Draft      DraftResponse                `json:"draft"`
	StepErrors map[string]map[string]string `json:"stepErrors"`
	FormError  string                       `json:"formError,omitempty"`
	Company    EntityStateResponse          `json:"company"`
	Customer   EntityStateResponse          `json:"customer"`
}

// PricingResponse is the current quote set with its running total
type PricingResponse struct {
	Quotes []deal.PricingQuote `json:"quotes"`
	Total  decimal.Decimal     `json:"total"`
}

// PackageLinesResponse is the per-service fee breakdown of a package for a
// billing cadence.
type PackageLinesResponse struct {
	PackageID string                  `json:"packageId"`
	Cadence   string                  `json:"cadence"`
	Lines     []deal.PackageLineTotal `json:"lines"`
	Total     decimal.Decimal         `json:"total"`
}

func newDraftResponse(d deal.DealDraft) DraftResponse {
	return DraftResponse{
		CompanyName:     d.CompanyName,
		CompanyTaxID:    d.CompanyTaxID,
		CompanyContact:  d.CompanyContact,
		CompanyEmail:    d.CompanyEmail,
		CompanyRegion:   d.CompanyRegion,
		CompanyDistrict: d.CompanyDistrict,
		CompanyLanguage: d.CompanyLanguage,

		ServiceRegion:   d.ServiceRegion,
		ServiceMode:     string(d.ServiceMode),
		ServiceCategory: d.ServiceCategory,
		ServiceIDs:      d.ServiceIDs,
		PackageID:       d.PackageID,
		BillingCadence:  string(d.BillingCadence),

		CustomerName:     d.CustomerName,
		CustomerContact:  d.CustomerContact,
		CustomerEmail:    d.CustomerEmail,
		CustomerRegion:   d.CustomerRegion,
		CustomerDistrict: d.CustomerDistrict,
		CustomerLanguage: d.CustomerLanguage,
		CustomerConsent:  d.CustomerConsent,
		ClosureDate:      d.ClosureDate,

		DealID: d.DealID,
		IsEdit: d.IsEdit(),
	}
}

func newEntityState(ref deal.EntityReference) EntityStateResponse {
	return EntityStateResponse{
		Mode:   string(ref.Mode),
		ID:     ref.ID,
		Fields: ref.Fields,
	}
}

func newWizardState(session *intake.Session) WizardStateResponse {
	c := session.Controller
	stepErrors := make(map[string]map[string]string)
	for _, step := range []deal.Step{deal.StepCompany, deal.StepService, deal.StepCustomer} {
		if errs := c.StepErrors(step); len(errs) > 0 {
			stepErrors[string(step)] = errs
		}
	}

	return WizardStateResponse{
		SessionID:  session.ID.String(),
		Step:       string(c.CurrentStep()),
		Draft:      newDraftResponse(c.Draft()),
		StepErrors: stepErrors,
		FormError:  c.FormError(),
		Company:    newEntityState(c.Company().Reference()),
		Customer:   newEntityState(c.Customer().Reference()),
	}
}

func newCompanySearchState(results []crm.CompanySummary, loading, hasMore bool) SearchStateResponse {
	if results == nil {
		results = []crm.CompanySummary{}
	}
	return SearchStateResponse{Results: results, Loading: loading, HasMore: hasMore}
}

func newCustomerSearchState(results []crm.CustomerSummary, loading, hasMore bool) SearchStateResponse {
	if results == nil {
		results = []crm.CustomerSummary{}
	}
	return SearchStateResponse{Results: results, Loading: loading, HasMore: hasMore}
}
