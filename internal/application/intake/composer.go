package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/dealdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// defaultSubmitTTL is how long a claimed submission key is held before a
// stuck claim expires on its own.
const defaultSubmitTTL = 2 * time.Minute

// SubmitResult is the structured outcome of a submission. Failures are data,
// not panics: the controller surfaces Message as a form-level error and the
// draft stays editable for retry.
type SubmitResult struct {
	Success bool   `json:"success"`
	DealID  string `json:"dealId,omitempty"`
	Message string `json:"message,omitempty"`
}

// PayloadComposer turns the accumulated draft plus entity-resolution results
// into the create- or update-shaped request body and sends it to the remote
// API. Create submissions are guarded against duplicates.
type PayloadComposer struct {
	deals     crm.Deals
	guard     shared.SubmissionGuard
	logger    *zap.Logger
	submitTTL time.Duration
}

// NewPayloadComposer creates a composer. The guard may be nil, in which case
// duplicate-submission protection is disabled.
func NewPayloadComposer(deals crm.Deals, guard shared.SubmissionGuard, logger *zap.Logger) *PayloadComposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayloadComposer{
		deals:     deals,
		guard:     guard,
		logger:    logger,
		submitTTL: defaultSubmitTTL,
	}
}

// BuildCreatePayload composes the nested create body from the draft and the
// resolved entity references. It is a pure function of its inputs.
func BuildCreatePayload(
	d *deal.DealDraft,
	companyRef, customerRef deal.EntityReference,
	lines []crm.ServiceLine,
	identity SessionIdentity,
) crm.CreateDealPayload {
	payload := crm.CreateDealPayload{
		DealType:    dealType(d.ServiceMode),
		Services:    lines,
		Region:      d.ServiceRegion,
		AssociateID: identity.AssociateID,
		FranchiseID: identity.FranchiseID,
	}

	if companyRef.IsExisting() {
		payload.Company = crm.CompanyPayload{
			ExistingCompanyID: companyRef.ID,
			IsExisting:        true,
		}
	} else {
		payload.Company = crm.CompanyPayload{
			Name:     d.CompanyName,
			TaxID:    d.CompanyTaxID,
			Contact:  d.CompanyContact,
			Email:    d.CompanyEmail,
			Region:   d.CompanyRegion,
			District: d.CompanyDistrict,
			Language: d.CompanyLanguage,
		}
	}

	if customerRef.IsExisting() {
		payload.Customer = crm.CustomerPayload{
			ExistingCustomerID: customerRef.ID,
			IsExisting:         true,
			ClosureDate:        d.ClosureDate,
			ConsentToContact:   d.CustomerConsent,
		}
	} else {
		payload.Customer = crm.CustomerPayload{
			Name:             d.CustomerName,
			Contact:          d.CustomerContact,
			Email:            d.CustomerEmail,
			Region:           d.CustomerRegion,
			District:         d.CustomerDistrict,
			Language:         d.CustomerLanguage,
			ConsentToContact: d.CustomerConsent,
			ClosureDate:      d.ClosureDate,
		}
	}

	return payload
}

// BuildUpdatePayload composes the flat update body. The prior deal's
// identifiers travel unchanged; company and customer already exist, so no
// creation payloads are re-sent.
func BuildUpdatePayload(d *deal.DealDraft, lines []crm.ServiceLine, identity SessionIdentity) crm.UpdateDealPayload {
	return crm.UpdateDealPayload{
		DealID:       d.DealID,
		CompanyID:    d.CompanyID,
		CustomerID:   d.CustomerID,
		ConvertedAt:  d.ConvertedAt,
		DealType:     dealType(d.ServiceMode),
		CustomerName: d.CustomerName,
		Contact:      d.CustomerContact,
		Email:        d.CustomerEmail,
		Region:       d.CustomerRegion,
		District:     d.CustomerDistrict,
		ClosureDate:  d.ClosureDate,
		Services:     lines,
		AssociateID:  identity.AssociateID,
	}
}

// BuildQuoteLines flattens pricing quotes into service lines, enriching each
// with catalog name and category data when available.
func BuildQuoteLines(
	quotes []deal.PricingQuote,
	lookup func(serviceID string) (deal.ServiceCatalogEntry, bool),
	categoryID, categoryName string,
) []crm.ServiceLine {
	lines := make([]crm.ServiceLine, 0, len(quotes))
	for _, q := range quotes {
		line := crm.ServiceLine{
			ServiceID:       q.ServiceID,
			CategoryID:      categoryID,
			CategoryName:    categoryName,
			ProfessionalFee: q.ProfessionalFee,
			VendorFee:       q.VendorFee,
			ContractorFee:   q.ContractorFee,
			GovtFee:         q.GovtFee,
			Total:           q.Total,
		}
		if svc, ok := lookup(q.ServiceID); ok {
			line.ServiceName = svc.Name
		}
		lines = append(lines, line)
	}
	return lines
}

// BuildPackageLines expands every service of a package into its own line with
// the cadence-specific fee, rather than sending the package as an opaque
// reference. Downstream consumers operate on flattened lines regardless of
// whether the deal originated as individual services or a package.
func BuildPackageLines(pkg deal.PackageOffering, cadence deal.BillingCadence) []crm.ServiceLine {
	totals := pkg.LineTotals(cadence)
	lines := make([]crm.ServiceLine, 0, len(totals))
	for _, t := range totals {
		lines = append(lines, crm.ServiceLine{
			ServiceID:   t.ServiceID,
			ServiceName: t.Name,
			Total:       t.Fee,
			PackageID:   pkg.PackageID,
			PackageName: pkg.Name,
		})
	}
	return lines
}

// SubmitCreate sends a create payload, guarding against duplicates with the
// given idempotency key. The claim is released again on failure so a
// corrected draft can be resubmitted.
func (c *PayloadComposer) SubmitCreate(ctx context.Context, key string, payload crm.CreateDealPayload) SubmitResult {
	if c.guard != nil {
		claimed, err := c.guard.Claim(ctx, key, c.submitTTL)
		if err != nil {
			// A broken guard must not block the business operation.
			c.logger.Warn("submission guard unavailable", zap.Error(err))
		} else if !claimed {
			return SubmitResult{Success: false, Message: shared.ErrDuplicateSubmit.Message}
		}
	}

	result, err := c.deals.CreateDeal(ctx, payload)
	if err != nil {
		c.release(ctx, key)
		c.logger.Error("deal creation failed", zap.Error(err))
		return SubmitResult{Success: false, Message: "Could not reach the deal service, please try again"}
	}
	if !result.Success {
		c.release(ctx, key)
		return SubmitResult{Success: false, Message: orDefault(result.Message, "Deal creation was rejected")}
	}

	c.logger.Info("deal created", zap.String("deal_id", result.DealID))
	return SubmitResult{Success: true, DealID: result.DealID}
}

// SubmitUpdate sends an update payload for a prior deal
func (c *PayloadComposer) SubmitUpdate(ctx context.Context, payload crm.UpdateDealPayload) SubmitResult {
	result, err := c.deals.UpdateDeal(ctx, payload)
	if err != nil {
		c.logger.Error("deal update failed", zap.String("deal_id", payload.DealID), zap.Error(err))
		return SubmitResult{Success: false, Message: "Could not reach the deal service, please try again"}
	}
	if !result.Success {
		return SubmitResult{Success: false, Message: orDefault(result.Message, "Deal update was rejected")}
	}

	c.logger.Info("deal updated", zap.String("deal_id", payload.DealID))
	return SubmitResult{Success: true, DealID: payload.DealID}
}

func (c *PayloadComposer) release(ctx context.Context, key string) {
	if c.guard == nil {
		return
	}
	if err := c.guard.Release(ctx, key); err != nil {
		c.logger.Warn("failed to release submission claim", zap.String("key", key), zap.Error(err))
	}
}

// submissionKey derives a stable idempotency key from the draft's identifying
// content, so a retry of the same draft maps to the same claim.
func submissionKey(d *deal.DealDraft, identity SessionIdentity) string {
	parts := []string{
		identity.AssociateID,
		d.CompanyName, d.CompanyTaxID,
		d.CustomerName, d.CustomerContact, d.CustomerEmail,
		d.ServiceRegion, string(d.ServiceMode), d.ServiceCategory,
		strings.Join(d.ServiceIDs, ","), d.PackageID, string(d.BillingCadence),
		d.ClosureDate,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func dealType(mode deal.ServiceMode) string {
	if mode == deal.ServiceModePackage {
		return crm.DealTypePackage
	}
	return crm.DealTypeIndividual
}

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
