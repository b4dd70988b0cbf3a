package intake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/dealdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SessionIdentity is the logged-in associate the wizard acts for. It is
// injected at construction and stamped onto create payloads; the workflow
// never reads ambient global state.
type SessionIdentity struct {
	AssociateID   string
	FranchiseID   string
	DefaultRegion string
}

// SeedDefaults pre-fills a create-mode draft, e.g. when the user arrives
// from a catalog "learn more" action with a service already chosen.
type SeedDefaults struct {
	ServiceRegion string
	CategoryID    string
	ServiceIDs    []string
}

// WizardDeps are the collaborators a wizard controller is built from
type WizardDeps struct {
	Directory crm.Directory
	Catalog   crm.Catalog
	Composer  *PayloadComposer
	Identity  SessionIdentity
	Logger    *zap.Logger
	Debounce  time.Duration
	PageSize  int
}

// WizardController is the step state machine of the deal intake workflow.
// It owns the accumulated DealDraft, gates forward navigation on per-step
// validation, and triggers the dependent category/pricing/package fetches as
// inputs change. All mutation happens under one mutex; asynchronous fetch
// results re-enter through their own engines' generation checks.
type WizardController struct {
	mu         sync.Mutex
	draft      *deal.DealDraft
	step       deal.Step
	stepErrors map[deal.Step]map[string]string
	formError  string

	company  *EntityResolver[crm.CompanySummary]
	customer *EntityResolver[crm.CustomerSummary]
	pricing  *PricingEngine
	packages *PackageResolver
	cache    *CategoryServiceCache
	composer *PayloadComposer
	catalog  crm.Catalog
	identity SessionIdentity
	logger   *zap.Logger
	timeout  time.Duration

	serviceGen     uint64
	serviceOptions []deal.ServiceCatalogEntry
	categories     []crm.CategoryRecord
	categoriesOnce sync.Once
}

// NewWizardController wires a controller and its cascaded fetchers
func NewWizardController(deps WizardDeps) *WizardController {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := deps.Debounce
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultSearchPageSize
	}

	c := &WizardController{
		draft:      deal.NewDealDraft(),
		step:       deal.StepCompany,
		stepErrors: make(map[deal.Step]map[string]string),
		composer:   deps.Composer,
		catalog:    deps.Catalog,
		identity:   deps.Identity,
		logger:     logger,
		timeout:    defaultFetchTimeout,
	}

	c.pricing = NewPricingEngine(deps.Catalog, WithPricingLogger(logger))
	c.packages = NewPackageResolver(deps.Catalog, WithPackageLogger(logger))
	c.cache = NewCategoryServiceCache(deps.Catalog, logger)

	companySearch := NewSearchClient(
		deps.Directory.SearchCompanies,
		matchCompany,
		WithDebounce[crm.CompanySummary](debounce),
		WithPageSize[crm.CompanySummary](pageSize),
		WithSearchLogger[crm.CompanySummary](logger),
	)
	c.company = NewEntityResolver(
		companySearch,
		c.hydrateCompany(deps.Directory),
		summarizeCompany,
		WithResolverLogger[crm.CompanySummary](logger),
		WithOnSelected[crm.CompanySummary](func(_ crm.CompanySummary, h Hydration) {
			c.applyCompanySelection(h)
		}),
		WithOnCleared[crm.CompanySummary](c.clearCompanySelection),
	)

	customerSearch := NewSearchClient(
		deps.Directory.SearchCustomers,
		matchCustomer,
		WithDebounce[crm.CustomerSummary](debounce),
		WithPageSize[crm.CustomerSummary](pageSize),
		WithSearchLogger[crm.CustomerSummary](logger),
	)
	c.customer = NewEntityResolver(
		customerSearch,
		hydrateCustomer(deps.Directory),
		summarizeCustomer,
		WithResolverLogger[crm.CustomerSummary](logger),
		WithOnSelected[crm.CustomerSummary](func(_ crm.CustomerSummary, h Hydration) {
			c.applyCustomerSelection(h)
		}),
		WithOnCleared[crm.CustomerSummary](c.clearCustomerSelection),
	)

	return c
}

// hydrateCompany loads the full company record. On success the company's
// linked customers become the customer resolver's candidate pool, and the
// customer slot switches to existing mode when that pool is non-empty:
// customers are typically linked under a company.
func (c *WizardController) hydrateCompany(directory crm.Directory) HydrateFunc[crm.CompanySummary] {
	return func(ctx context.Context, summary crm.CompanySummary) (Hydration, error) {
		record, err := directory.GetCompanyDetail(ctx, summary.ID)
		if err != nil {
			return Hydration{}, err
		}
		if record == nil {
			return Hydration{}, shared.ErrNotFound
		}
		if len(record.Customers) > 0 {
			c.customer.Search().Seed(record.Customers)
			c.customer.EnterExistingMode()
		}
		return Hydration{ID: record.ID, Fields: record.Fields()}, nil
	}
}

func hydrateCustomer(directory crm.Directory) HydrateFunc[crm.CustomerSummary] {
	return func(ctx context.Context, summary crm.CustomerSummary) (Hydration, error) {
		record, err := directory.GetCustomerDetail(ctx, summary.ID)
		if err != nil {
			return Hydration{}, err
		}
		if record == nil {
			return Hydration{}, shared.ErrNotFound
		}
		return Hydration{ID: record.ID, Fields: record.Fields()}, nil
	}
}

// applyCompanySelection copies a hydrated company into the draft, so the
// form shows the selected record's values and step validation sees them.
// Selecting an existing entity fully overwrites the manually entered fields.
func (c *WizardController) applyCompanySelection(h Hydration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.CompanyID = h.ID
	for _, key := range companyFieldKeys {
		c.draft.SetField(key, h.Fields[fieldName(key)])
	}
}

func (c *WizardController) clearCompanySelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.CompanyID = ""
	for _, key := range companyFieldKeys {
		c.draft.SetField(key, "")
	}
}

func (c *WizardController) applyCustomerSelection(h Hydration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.CustomerID = h.ID
	for _, key := range customerFieldKeys {
		c.draft.SetField(key, h.Fields[fieldName(key)])
	}
}

func (c *WizardController) clearCustomerSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.CustomerID = ""
	for _, key := range customerFieldKeys {
		c.draft.SetField(key, "")
	}
}

// Hydration field names match the draft field keys minus the entity prefix.
// Region precedes district so the region transition's district reset cannot
// wipe the hydrated district.
var companyFieldKeys = []deal.FieldKey{
	deal.FieldCompanyName,
	deal.FieldCompanyTaxID,
	deal.FieldCompanyContact,
	deal.FieldCompanyEmail,
	deal.FieldCompanyRegion,
	deal.FieldCompanyDistrict,
	deal.FieldCompanyLanguage,
}

var customerFieldKeys = []deal.FieldKey{
	deal.FieldCustomerName,
	deal.FieldCustomerContact,
	deal.FieldCustomerEmail,
	deal.FieldCustomerRegion,
	deal.FieldCustomerDistrict,
	deal.FieldCustomerLanguage,
	deal.FieldCustomerConsent,
}

func fieldName(key deal.FieldKey) string {
	s := string(key)
	for _, prefix := range []string{"company", "customer"} {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			rest := s[len(prefix):]
			return strings.ToLower(rest[:1]) + rest[1:]
		}
	}
	return s
}

func summarizeCompany(s crm.CompanySummary) Hydration {
	return Hydration{ID: s.ID, Fields: map[string]string{
		"name":    s.Name,
		"taxId":   s.TaxID,
		"contact": s.Contact,
		"region":  s.Region,
	}}
}

func summarizeCustomer(s crm.CustomerSummary) Hydration {
	return Hydration{ID: s.ID, Fields: map[string]string{
		"name":    s.Name,
		"contact": s.Contact,
		"email":   s.Email,
	}}
}

func matchCompany(s crm.CompanySummary, query string) bool {
	return containsFold(query, s.Name, s.Contact, s.TaxID, s.ID)
}

func matchCustomer(s crm.CustomerSummary, query string) bool {
	return containsFold(query, s.Name, s.Contact, s.Email, s.ID)
}

func containsFold(query string, fields ...string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// CurrentStep returns the active wizard step
func (c *WizardController) CurrentStep() deal.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Advance validates the current step and moves forward on success. On any
// failing field it records the field -> message map and stays put. Errors of
// the step being left are cleared on success.
func (c *WizardController) Advance() (bool, map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := deal.ValidateStep(c.draft, c.step)
	if len(errs) > 0 {
		c.stepErrors[c.step] = errs
		return false, errs
	}

	delete(c.stepErrors, c.step)
	c.step = c.step.Next()
	return true, nil
}

// Retreat moves one step back. It always succeeds and never clears entered
// data or the errors of the step being revisited.
func (c *WizardController) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = c.step.Prev()
}

// StepErrors returns the recorded validation errors for a step
func (c *WizardController) StepErrors(step deal.Step) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := map[string]string{}
	for k, v := range c.stepErrors[step] {
		errs[k] = v
	}
	return errs
}

// UpdateField applies a scalar field change and triggers the dependent
// fetches the change invalidates.
func (c *WizardController) UpdateField(key deal.FieldKey, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch key {
	case deal.FieldServiceRegion:
		if c.draft.SetServiceRegion(value) {
			c.reloadOfferingLocked()
		}
	case deal.FieldServiceMode:
		if c.draft.SetServiceMode(deal.ServiceMode(value)) {
			c.reloadOfferingLocked()
		}
	case deal.FieldServiceCategory:
		if c.draft.SetCategory(value) {
			c.loadCategoryServicesLocked(value)
			c.refreshPricingLocked()
		}
	default:
		c.draft.SetField(key, value)
	}
}

// ToggleService adds or removes an individual service and refreshes pricing
func (c *WizardController) ToggleService(serviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.ToggleService(serviceID) {
		c.refreshPricingLocked()
	}
}

// SetServices replaces the service selection and refreshes pricing
func (c *WizardController) SetServices(serviceIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.SetServices(serviceIDs) {
		c.refreshPricingLocked()
	}
}

// SelectPackage picks a package and billing cadence
func (c *WizardController) SelectPackage(packageID string, cadence deal.BillingCadence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.SelectPackage(packageID, cadence)
}

// reloadOfferingLocked refreshes whichever downstream data the active
// service mode depends on. Callers hold c.mu.
func (c *WizardController) reloadOfferingLocked() {
	switch c.draft.ServiceMode {
	case deal.ServiceModeIndividual:
		c.packages.LoadPackages("")
		c.refreshPricingLocked()
	case deal.ServiceModePackage:
		c.pricing.Clear()
		c.packages.LoadPackages(c.draft.ServiceRegion)
	}
}

func (c *WizardController) refreshPricingLocked() {
	if c.draft.ServiceMode != deal.ServiceModeIndividual {
		return
	}
	c.pricing.Refresh(c.draft.ServiceRegion, c.draft.ServiceIDs)
}

// loadCategoryServicesLocked fetches the service list for a category through
// the session cache. The generation counter drops responses for categories
// the user has already navigated away from.
func (c *WizardController) loadCategoryServicesLocked(categoryID string) {
	c.serviceGen++
	gen := c.serviceGen
	c.serviceOptions = nil

	if categoryID == "" {
		return
	}

	c.categoriesOnce.Do(func() {
		go c.loadCategories()
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		services, err := c.cache.GetServices(ctx, categoryID)
		if err != nil {
			c.logger.Warn("service list fetch failed",
				zap.String("category_id", categoryID),
				zap.Error(err))
			return
		}

		c.mu.Lock()
		if gen == c.serviceGen {
			c.serviceOptions = services
		}
		c.mu.Unlock()
	}()
}

func (c *WizardController) loadCategories() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	categories, err := c.catalog.ListServiceCategories(ctx)
	if err != nil {
		c.logger.Warn("category list fetch failed", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.categories = categories
	c.mu.Unlock()
}

func (c *WizardController) categoryNameLocked(categoryID string) string {
	for _, cat := range c.categories {
		if cat.ID == categoryID {
			return cat.Name
		}
	}
	return ""
}

// ServiceOptions returns the service list for the selected category
func (c *WizardController) ServiceOptions() []deal.ServiceCatalogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]deal.ServiceCatalogEntry{}, c.serviceOptions...)
}

// Company returns the company entity resolver
func (c *WizardController) Company() *EntityResolver[crm.CompanySummary] {
	return c.company
}

// Customer returns the customer entity resolver
func (c *WizardController) Customer() *EntityResolver[crm.CustomerSummary] {
	return c.customer
}

// Pricing returns the pricing engine
func (c *WizardController) Pricing() *PricingEngine {
	return c.pricing
}

// Packages returns the package resolver
func (c *WizardController) Packages() *PackageResolver {
	return c.packages
}

// ServiceCache returns the session's category cache
func (c *WizardController) ServiceCache() *CategoryServiceCache {
	return c.cache
}

// Draft returns a copy of the accumulated draft
func (c *WizardController) Draft() deal.DealDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := *c.draft
	d.ServiceIDs = append([]string{}, c.draft.ServiceIDs...)
	return d
}

// ApplySeedDefaults pre-fills a create-mode draft without requiring the user
// to repeat earlier steps.
func (c *WizardController) ApplySeedDefaults(seed SeedDefaults) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seed.ServiceRegion == "" {
		seed.ServiceRegion = c.identity.DefaultRegion
	}
	if c.draft.SetServiceRegion(seed.ServiceRegion) {
		c.reloadOfferingLocked()
	}
	if seed.CategoryID != "" && c.draft.SetCategory(seed.CategoryID) {
		c.loadCategoryServicesLocked(seed.CategoryID)
	}
	if len(seed.ServiceIDs) > 0 && c.draft.SetServices(seed.ServiceIDs) {
		c.refreshPricingLocked()
	}
}

// LoadForEdit hydrates the draft from an existing deal record before the
// wizard accepts input.
func (c *WizardController) LoadForEdit(ctx context.Context, deals crm.Deals, dealID string) error {
	record, err := deals.GetDealDetail(ctx, dealID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d := deal.NewDealDraft()
	d.DealID = record.ID
	d.CompanyID = record.CompanyID
	d.CustomerID = record.CustomerID
	d.ConvertedAt = record.ConvertedAt
	d.CompanyName = record.CompanyName
	d.CompanyRegion = record.CompanyRegion
	d.CompanyDistrict = record.CompanyDistrict
	d.CustomerName = record.CustomerName
	d.CustomerContact = record.Contact
	d.CustomerEmail = record.Email
	d.CustomerRegion = record.Region
	d.CustomerDistrict = record.District
	d.ClosureDate = record.ClosureDate
	d.ServiceRegion = record.ServiceRegion

	if record.PackageID != "" {
		d.ServiceMode = deal.ServiceModePackage
		d.PackageID = record.PackageID
		d.BillingCadence = record.BillingCadence
	} else {
		d.ServiceMode = deal.ServiceModeIndividual
		d.ServiceCategory = record.CategoryID
		d.ServiceIDs = append([]string{}, record.ServiceIDs...)
	}
	c.draft = d

	if record.CompanyID != "" {
		ref := deal.NewEntityReference()
		ref.SelectExisting(record.CompanyID, map[string]string{
			"name":     record.CompanyName,
			"region":   record.CompanyRegion,
			"district": record.CompanyDistrict,
		})
		c.company.SetReference(ref)
	}
	if record.CustomerID != "" {
		ref := deal.NewEntityReference()
		ref.SelectExisting(record.CustomerID, map[string]string{
			"name":    record.CustomerName,
			"contact": record.Contact,
			"email":   record.Email,
		})
		c.customer.SetReference(ref)
	}

	c.reloadOfferingLocked()
	if d.ServiceCategory != "" {
		c.loadCategoryServicesLocked(d.ServiceCategory)
	}
	return nil
}

// Submit validates every step, composes the create- or update-shaped payload
// and sends it. Failures come back as a structured result with the draft left
// intact for correction and resubmission.
func (c *WizardController) Submit(ctx context.Context) SubmitResult {
	c.mu.Lock()

	for _, step := range []deal.Step{deal.StepCompany, deal.StepService, deal.StepCustomer} {
		if errs := deal.ValidateStep(c.draft, step); len(errs) > 0 {
			c.stepErrors[step] = errs
			c.mu.Unlock()
			return SubmitResult{Success: false, Message: "Required fields are missing on the " + string(step) + " step"}
		}
	}

	draft := *c.draft
	draft.ServiceIDs = append([]string{}, c.draft.ServiceIDs...)
	lines := c.buildServiceLinesLocked()
	c.mu.Unlock()

	companyRef := c.company.Reference()
	customerRef := c.customer.Reference()

	var result SubmitResult
	if draft.IsEdit() {
		payload := BuildUpdatePayload(&draft, lines, c.identity)
		result = c.composer.SubmitUpdate(ctx, payload)
	} else {
		payload := BuildCreatePayload(&draft, companyRef, customerRef, lines, c.identity)
		result = c.composer.SubmitCreate(ctx, submissionKey(&draft, c.identity), payload)
	}

	c.mu.Lock()
	c.formError = result.Message
	if result.Success {
		c.formError = ""
	}
	c.mu.Unlock()
	return result
}

// FormError returns the form-level message of the last failed submission
func (c *WizardController) FormError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formError
}

// buildServiceLinesLocked flattens the selected offering into service lines.
// Package mode expands every bundled service with its cadence fee; individual
// mode carries the pricing-quote fee components. Callers hold c.mu.
func (c *WizardController) buildServiceLinesLocked() []crm.ServiceLine {
	if c.draft.ServiceMode == deal.ServiceModePackage {
		pkg, ok := c.packages.Find(c.draft.PackageID)
		if !ok {
			return nil
		}
		return BuildPackageLines(pkg, c.draft.BillingCadence)
	}

	lookup := func(serviceID string) (deal.ServiceCatalogEntry, bool) {
		for _, svc := range c.serviceOptions {
			if svc.ServiceID == serviceID {
				return svc, true
			}
		}
		return c.cache.Lookup(serviceID)
	}
	return BuildQuoteLines(c.pricing.Quotes(), lookup, c.draft.ServiceCategory, c.categoryNameLocked(c.draft.ServiceCategory))
}
