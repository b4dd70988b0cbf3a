package deal

import "github.com/shopspring/decimal"

// PackageService is one service bundled inside a package offering, carrying
// both cadence prices so switching cadence never needs a refetch.
type PackageService struct {
	ServiceID  string          `json:"serviceId"`
	Name       string          `json:"name"`
	MonthlyFee decimal.Decimal `json:"monthlyFee"`
	YearlyFee  decimal.Decimal `json:"yearlyFee"`
}

// PackageOffering is a pre-defined bundle of services available in a region
type PackageOffering struct {
	PackageID string           `json:"packageId"`
	Name      string           `json:"name"`
	Services  []PackageService `json:"services"`
}

// PackageLineTotal is the cadence-specific fee for one service of a package
type PackageLineTotal struct {
	ServiceID string          `json:"serviceId"`
	Name      string          `json:"name"`
	Fee       decimal.Decimal `json:"fee"`
}

// LineTotals computes the per-service fees of the offering for the chosen
// billing cadence. Unknown cadences default to monthly.
func (p PackageOffering) LineTotals(cadence BillingCadence) []PackageLineTotal {
	totals := make([]PackageLineTotal, 0, len(p.Services))
	for _, svc := range p.Services {
		fee := svc.MonthlyFee
		if cadence == CadenceYearly {
			fee = svc.YearlyFee
		}
		totals = append(totals, PackageLineTotal{
			ServiceID: svc.ServiceID,
			Name:      svc.Name,
			Fee:       fee,
		})
	}
	return totals
}

// Total sums the cadence-specific fees of the offering
func (p PackageOffering) Total(cadence BillingCadence) decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.LineTotals(cadence) {
		total = total.Add(line.Fee)
	}
	return total
}
