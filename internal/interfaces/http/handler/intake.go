package handler

import (
	"net/http"

	"github.com/dealdesk/backend/internal/application/intake"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/dealdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IntakeHandler exposes the deal intake wizard over HTTP. Every route below
// /sessions/:id operates on one live wizard session; the session id is the
// only client-held state.
type IntakeHandler struct {
	BaseHandler
	sessions *intake.SessionManager
}

// NewIntakeHandler creates an intake handler
func NewIntakeHandler(sessions *intake.SessionManager) *IntakeHandler {
	return &IntakeHandler{sessions: sessions}
}

// RegisterRoutes registers the intake routes
func (h *IntakeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/intake/sessions")
	{
		sessions.POST("", h.OpenSession)
		sessions.GET("/:id", h.GetState)
		sessions.DELETE("/:id", h.CloseSession)

		sessions.POST("/:id/advance", h.Advance)
		sessions.POST("/:id/retreat", h.Retreat)
		sessions.POST("/:id/fields", h.UpdateField)
		sessions.PUT("/:id/services", h.SetServices)
		sessions.POST("/:id/services/toggle", h.ToggleService)
		sessions.POST("/:id/package", h.SelectPackage)
		sessions.POST("/:id/submit", h.Submit)

		sessions.GET("/:id/services", h.ServiceOptions)
		sessions.GET("/:id/pricing", h.Pricing)
		sessions.GET("/:id/packages", h.Packages)
		sessions.GET("/:id/packages/:packageId/lines", h.PackageLines)

		sessions.PUT("/:id/company/query", h.SetCompanyQuery)
		sessions.GET("/:id/company/results", h.CompanyResults)
		sessions.POST("/:id/company/load-more", h.LoadMoreCompanies)
		sessions.POST("/:id/company/select", h.SelectCompany)
		sessions.PUT("/:id/company/mode", h.SetCompanyMode)

		sessions.PUT("/:id/customer/query", h.SetCustomerQuery)
		sessions.GET("/:id/customer/results", h.CustomerResults)
		sessions.POST("/:id/customer/load-more", h.LoadMoreCustomers)
		sessions.POST("/:id/customer/select", h.SelectCustomer)
		sessions.PUT("/:id/customer/mode", h.SetCustomerMode)
	}
}

// session resolves the :id path parameter to a live session. On failure it
// writes the error response and returns nil.
func (h *IntakeHandler) session(c *gin.Context) *intake.Session {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Session id must be a UUID")
		return nil
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		h.HandleError(c, err)
		return nil
	}
	return session
}

// OpenSession opens a wizard session in create or edit mode
func (h *IntakeHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	identity := intake.SessionIdentity{
		AssociateID:   req.AssociateID,
		FranchiseID:   req.FranchiseID,
		DefaultRegion: req.DefaultRegion,
	}

	var session *intake.Session
	if req.Mode == "edit" {
		var err error
		session, err = h.sessions.OpenEdit(c.Request.Context(), identity, req.DealID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	} else {
		var seed *intake.SeedDefaults
		if req.Defaults != nil {
			seed = &intake.SeedDefaults{
				ServiceRegion: req.Defaults.ServiceRegion,
				CategoryID:    req.Defaults.CategoryID,
				ServiceIDs:    req.Defaults.ServiceIDs,
			}
		}
		session = h.sessions.OpenCreate(identity, seed)
	}

	h.Created(c, SessionResponse{
		SessionID: session.ID.String(),
		Step:      string(session.Controller.CurrentStep()),
	})
}

// GetState returns the full session snapshot
func (h *IntakeHandler) GetState(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	h.Success(c, newWizardState(session))
}

// CloseSession discards a session and everything it accumulated
func (h *IntakeHandler) CloseSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Session id must be a UUID")
		return
	}
	h.sessions.Close(id)
	h.NoContent(c)
}

// Advance validates the current step and moves forward. Validation failures
// come back as a 400 with the field -> message map.
func (h *IntakeHandler) Advance(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	ok, errs := session.Controller.Advance()
	if !ok {
		h.FieldErrors(c, "Required fields are missing", errs)
		return
	}
	h.Success(c, newWizardState(session))
}

// Retreat moves one step back without validation
func (h *IntakeHandler) Retreat(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	session.Controller.Retreat()
	h.Success(c, newWizardState(session))
}

// UpdateField applies a scalar field change to the draft
func (h *IntakeHandler) UpdateField(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req FieldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	session.Controller.UpdateField(deal.FieldKey(req.Key), req.Value)
	h.Success(c, newWizardState(session))
}

// SetServices replaces the individual service selection
func (h *IntakeHandler) SetServices(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req SetServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	session.Controller.SetServices(req.ServiceIDs)
	h.Success(c, newWizardState(session))
}

// ToggleService adds or removes one service from the selection
func (h *IntakeHandler) ToggleService(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req ToggleServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	session.Controller.ToggleService(req.ServiceID)
	h.Success(c, newWizardState(session))
}

// SelectPackage picks a package and billing cadence
func (h *IntakeHandler) SelectPackage(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req SelectPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	cadence := deal.BillingCadence(req.Cadence)
	if req.Cadence == "" {
		cadence = deal.CadenceMonthly
	}
	session.Controller.SelectPackage(req.PackageID, cadence)
	h.Success(c, newWizardState(session))
}

// Submit validates the whole draft and sends it to the remote API
func (h *IntakeHandler) Submit(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	result := session.Controller.Submit(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidState, result.Message, getRequestID(c)))
		return
	}
	h.Success(c, result)
}

// ServiceOptions returns the service list of the selected category
func (h *IntakeHandler) ServiceOptions(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	h.Success(c, session.Controller.ServiceOptions())
}

// Pricing returns the current quote set and its running total
func (h *IntakeHandler) Pricing(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	quotes := session.Controller.Pricing().Quotes()
	h.Success(c, PricingResponse{
		Quotes: quotes,
		Total:  deal.TotalOf(quotes),
	})
}

// Packages returns the packages offered in the draft's service region
func (h *IntakeHandler) Packages(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	h.Success(c, session.Controller.Packages().Packages())
}

// PackageLines returns the per-service fee breakdown of a package for the
// requested billing cadence.
func (h *IntakeHandler) PackageLines(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	pkg, ok := session.Controller.Packages().Find(c.Param("packageId"))
	if !ok {
		h.NotFound(c, "Package is not offered in the selected region")
		return
	}

	cadence := deal.BillingCadence(c.DefaultQuery("cadence", string(deal.CadenceMonthly)))
	lines := session.Controller.Packages().ComputeLineTotals(pkg, cadence)
	h.Success(c, PackageLinesResponse{
		PackageID: pkg.PackageID,
		Cadence:   string(cadence),
		Lines:     lines,
		Total:     pkg.Total(cadence),
	})
}

// SetCompanyQuery updates the debounced company search query
func (h *IntakeHandler) SetCompanyQuery(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req SearchQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	session.Controller.Company().Search().SetQuery(req.Query)
	h.NoContent(c)
}

// CompanyResults returns the current company search result pool
func (h *IntakeHandler) CompanyResults(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	search := session.Controller.Company().Search()
	h.Success(c, newCompanySearchState(search.Results(), search.Loading(), search.HasMore()))
}

// LoadMoreCompanies appends the next page of company results
func (h *IntakeHandler) LoadMoreCompanies(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	session.Controller.Company().Search().LoadMore()
	h.NoContent(c)
}

// SelectCompany picks an existing company out of the search results
func (h *IntakeHandler) SelectCompany(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req SelectEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	ref, err := session.Controller.Company().SelectByID(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newEntityState(ref))
}

// SetCompanyMode switches the company slot between new and existing entry
func (h *IntakeHandler) SetCompanyMode(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req EntityModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	company := session.Controller.Company()
	if req.Existing {
		company.EnterExistingMode()
	} else {
		company.ClearToNewEntry()
	}
	h.Success(c, newEntityState(company.Reference()))
}

// SetCustomerQuery updates the debounced customer search query
func (h *IntakeHandler) SetCustomerQuery(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req SearchQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	session.Controller.Customer().Search().SetQuery(req.Query)
	h.NoContent(c)
}

// CustomerResults returns the current customer search result pool
func (h *IntakeHandler) CustomerResults(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	search := session.Controller.Customer().Search()
	h.Success(c, newCustomerSearchState(search.Results(), search.Loading(), search.HasMore()))
}

// LoadMoreCustomers appends the next page of customer results
func (h *IntakeHandler) LoadMoreCustomers(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}
	session.Controller.Customer().Search().LoadMore()
	h.NoContent(c)
}

// SelectCustomer picks an existing customer out of the search results
func (h *IntakeHandler) SelectCustomer(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req SelectEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	ref, err := session.Controller.Customer().SelectByID(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newEntityState(ref))
}

// SetCustomerMode switches the customer slot between new and existing entry
func (h *IntakeHandler) SetCustomerMode(c *gin.Context) {
	session := h.session(c)
	if session == nil {
		return
	}

	var req EntityModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	customer := session.Controller.Customer()
	if req.Existing {
		customer.EnterExistingMode()
	} else {
		customer.ClearToNewEntry()
	}
	h.Success(c, newEntityState(customer.Reference()))
}
