package crm

import (
	"time"

	"github.com/dealdesk/backend/internal/domain/deal"
)

// CompanySummary is the lightweight shape returned by company search
type CompanySummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TaxID   string `json:"taxId"`
	Contact string `json:"contact"`
	Region  string `json:"region"`
}

// CustomerSummary is the lightweight shape returned by customer search and
// nested under a company's detail record.
type CustomerSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// CompanyRecord is the full company record returned by detail hydration.
// Customers holds the customers linked under the company.
type CompanyRecord struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	TaxID     string            `json:"taxId"`
	Contact   string            `json:"contact"`
	Email     string            `json:"email"`
	Region    string            `json:"region"`
	District  string            `json:"district"`
	Language  string            `json:"language"`
	Customers []CustomerSummary `json:"customers"`
}

// Fields flattens the record into entity-reference fields
func (r *CompanyRecord) Fields() map[string]string {
	return map[string]string{
		"name":     r.Name,
		"taxId":    r.TaxID,
		"contact":  r.Contact,
		"email":    r.Email,
		"region":   r.Region,
		"district": r.District,
		"language": r.Language,
	}
}

// CustomerRecord is the full customer record returned by detail hydration
type CustomerRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	Region   string `json:"region"`
	District string `json:"district"`
	Language string `json:"language"`
	Consent  bool   `json:"consentToContact"`
}

// Fields flattens the record into entity-reference fields
func (r *CustomerRecord) Fields() map[string]string {
	fields := map[string]string{
		"name":     r.Name,
		"contact":  r.Contact,
		"email":    r.Email,
		"region":   r.Region,
		"district": r.District,
		"language": r.Language,
	}
	if r.Consent {
		fields["consent"] = "true"
	}
	return fields
}

// CategoryRecord is a service category of the remote catalog
type CategoryRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RegionRecord is a region with the districts that belong to it. District
// options presented to the user are always a subset of these.
type RegionRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// DealRecord is the server-side deal shape used to seed edit mode
type DealRecord struct {
	ID               string              `json:"id"`
	DealType         string              `json:"dealType"`
	CompanyID        string              `json:"companyId"`
	CompanyName      string              `json:"companyName"`
	CompanyRegion    string              `json:"companyRegion"`
	CompanyDistrict  string              `json:"companyDistrict"`
	CustomerID       string              `json:"customerId"`
	CustomerName     string              `json:"customerName"`
	Contact          string              `json:"contact"`
	Email            string              `json:"email"`
	Region           string              `json:"region"`
	District         string              `json:"district"`
	ClosureDate      string              `json:"closureDate"`
	ServiceRegion    string              `json:"serviceRegion"`
	CategoryID       string              `json:"categoryId"`
	ServiceIDs       []string            `json:"serviceIds"`
	PackageID        string              `json:"packageId"`
	BillingCadence   deal.BillingCadence `json:"billingCadence"`
	ConvertedAt      time.Time           `json:"convertedAt"`
}
