package deal

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ServiceCatalogEntry is a read-only service definition sourced from the
// category/service cascade of the remote catalog.
type ServiceCatalogEntry struct {
	ServiceID   string `json:"serviceId"`
	Name        string `json:"name"`
	CategoryID  string `json:"categoryId"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// PricingQuote is the state-dependent price breakdown for one service.
// A set of quotes is valid only for the (region, serviceIDs) pair that
// produced it; any change to either invalidates the whole set.
type PricingQuote struct {
	ServiceID       string          `json:"serviceId"`
	ProfessionalFee decimal.Decimal `json:"professionalFee"`
	VendorFee       decimal.Decimal `json:"vendorFee"`
	ContractorFee   decimal.Decimal `json:"contractorFee"`
	GovtFee         decimal.Decimal `json:"govtFee"`
	Total           decimal.Decimal `json:"total"`
}

// Sum returns the component sum of the quote
func (q PricingQuote) Sum() decimal.Decimal {
	return q.ProfessionalFee.Add(q.VendorFee).Add(q.ContractorFee).Add(q.GovtFee)
}

// QuoteKey identifies the (region, serviceIDs) pair a quote set belongs to.
// Service ids are sorted so selection order cannot produce distinct keys.
type QuoteKey string

// NewQuoteKey builds the key for a region and service selection
func NewQuoteKey(region string, serviceIDs []string) QuoteKey {
	ids := append([]string{}, serviceIDs...)
	sort.Strings(ids)
	return QuoteKey(region + "|" + strings.Join(ids, ","))
}

// TotalOf sums the totals of a quote set
func TotalOf(quotes []PricingQuote) decimal.Decimal {
	total := decimal.Zero
	for _, q := range quotes {
		total = total.Add(q.Total)
	}
	return total
}
