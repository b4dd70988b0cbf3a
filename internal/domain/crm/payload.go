package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal type values mirrored from the service step's mode
const (
	DealTypeIndividual = "Individual"
	DealTypePackage    = "Package"
)

// ServiceLine is one flattened service row of a deal payload. Package mode
// expands every bundled service into its own line carrying PackageID and
// PackageName, so downstream consumers handle individual and package deals
// uniformly.
type ServiceLine struct {
	ServiceID       string          `json:"serviceId"`
	ServiceName     string          `json:"serviceName"`
	CategoryID      string          `json:"categoryId,omitempty"`
	CategoryName    string          `json:"categoryName,omitempty"`
	ProfessionalFee decimal.Decimal `json:"professionalFee"`
	VendorFee       decimal.Decimal `json:"vendorFee"`
	ContractorFee   decimal.Decimal `json:"contractorFee"`
	GovtFee         decimal.Decimal `json:"govtFee"`
	Total           decimal.Decimal `json:"total"`
	PackageID       string          `json:"packageId,omitempty"`
	PackageName     string          `json:"packageName,omitempty"`
}

// CompanyPayload carries either a reference to an existing company or the
// full fields for server-side creation.
type CompanyPayload struct {
	ExistingCompanyID string `json:"existingCompanyId,omitempty"`
	IsExisting        bool   `json:"isExisting"`
	Name              string `json:"name,omitempty"`
	TaxID             string `json:"taxId,omitempty"`
	Contact           string `json:"contact,omitempty"`
	Email             string `json:"email,omitempty"`
	Region            string `json:"region,omitempty"`
	District          string `json:"district,omitempty"`
	Language          string `json:"language,omitempty"`
}

// CustomerPayload carries either a reference to an existing customer or the
// full fields for server-side creation.
type CustomerPayload struct {
	ExistingCustomerID string `json:"existingCustomerId,omitempty"`
	IsExisting         bool   `json:"isExisting"`
	Name               string `json:"name,omitempty"`
	Contact            string `json:"contact,omitempty"`
	Email              string `json:"email,omitempty"`
	Region             string `json:"region,omitempty"`
	District           string `json:"district,omitempty"`
	Language           string `json:"language,omitempty"`
	ConsentToContact   bool   `json:"consentToContact"`
	ClosureDate        string `json:"closureDate,omitempty"`
}

// CreateDealPayload is the nested body sent on conversion of a new deal
type CreateDealPayload struct {
	DealType    string          `json:"dealType"`
	Company     CompanyPayload  `json:"company"`
	Customer    CustomerPayload `json:"customer"`
	Services    []ServiceLine   `json:"services"`
	Region      string          `json:"region"`
	AssociateID string          `json:"associateId"`
	FranchiseID string          `json:"franchiseId"`
}

// UpdateDealPayload is the flatter body sent when editing a prior deal.
// Company and customer already exist, so only their identifiers travel,
// together with the current step values and a freshly rebuilt services array.
type UpdateDealPayload struct {
	DealID       string        `json:"dealId"`
	CompanyID    string        `json:"companyId"`
	CustomerID   string        `json:"customerId"`
	ConvertedAt  time.Time     `json:"convertedAt"`
	DealType     string        `json:"dealType"`
	CustomerName string        `json:"customerName"`
	Contact      string        `json:"contact"`
	Email        string        `json:"email"`
	Region       string        `json:"region"`
	District     string        `json:"district"`
	ClosureDate  string        `json:"closureDate"`
	Services     []ServiceLine `json:"services"`
	AssociateID  string        `json:"associateId"`
}
