package handler

import (
	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes session-independent reference data. Clients use it
// to render region and category pickers before a wizard session exists.
type CatalogHandler struct {
	BaseHandler
	catalog crm.Catalog
}

// NewCatalogHandler creates a catalog handler
func NewCatalogHandler(catalog crm.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catalog := rg.Group("/catalog")
	{
		catalog.GET("/regions", h.ListRegions)
		catalog.GET("/categories", h.ListCategories)
		catalog.GET("/categories/:categoryId/services", h.ListServices)
	}
}

// ListRegions returns the serviceable regions
func (h *CatalogHandler) ListRegions(c *gin.Context) {
	regions, err := h.catalog.ListRegions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, regions)
}

// ListCategories returns the service categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListServiceCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// ListServices returns the services of one category
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListServicesByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, services)
}
