package crmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/dealdesk/backend/internal/domain/shared"
)

// maxResponseSize is the maximum allowed response size from the CRM API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client is the HTTP client for the upstream CRM API. It implements the
// Directory, Catalog and Deals contracts the intake workflow depends on.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithClientLogger sets the logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient overrides the underlying HTTP client, used in tests
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a CRM API client with the given configuration
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Directory Operations
// ---------------------------------------------------------------------------

// SearchCompanies performs a paged text search over the company registry
func (c *Client) SearchCompanies(ctx context.Context, query string, page, pageSize int) ([]crm.CompanySummary, error) {
	var companies []crm.CompanySummary
	err := c.doGet(ctx, "/companies/search", searchParams(query, page, pageSize), &companies)
	return companies, err
}

// SearchCustomers performs a paged text search over the customer registry
func (c *Client) SearchCustomers(ctx context.Context, query string, page, pageSize int) ([]crm.CustomerSummary, error) {
	var customers []crm.CustomerSummary
	err := c.doGet(ctx, "/customers/search", searchParams(query, page, pageSize), &customers)
	return customers, err
}

// GetCompanyDetail hydrates a full company record, linked customers included
func (c *Client) GetCompanyDetail(ctx context.Context, id string) (*crm.CompanyRecord, error) {
	var record crm.CompanyRecord
	if err := c.doGet(ctx, "/companies/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetCustomerDetail hydrates a full customer record
func (c *Client) GetCustomerDetail(ctx context.Context, id string) (*crm.CustomerRecord, error) {
	var record crm.CustomerRecord
	if err := c.doGet(ctx, "/customers/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ---------------------------------------------------------------------------
// Catalog Operations
// ---------------------------------------------------------------------------

// ListServiceCategories returns all service categories
func (c *Client) ListServiceCategories(ctx context.Context) ([]crm.CategoryRecord, error) {
	var categories []crm.CategoryRecord
	err := c.doGet(ctx, "/service-categories", nil, &categories)
	return categories, err
}

// ListServicesByCategory returns the services offered under a category
func (c *Client) ListServicesByCategory(ctx context.Context, categoryID string) ([]deal.ServiceCatalogEntry, error) {
	var services []deal.ServiceCatalogEntry
	err := c.doGet(ctx, "/service-categories/"+url.PathEscape(categoryID)+"/services", nil, &services)
	return services, err
}

// ListRegions returns the region and district reference data
func (c *Client) ListRegions(ctx context.Context) ([]crm.RegionRecord, error) {
	var regions []crm.RegionRecord
	err := c.doGet(ctx, "/regions", nil, &regions)
	return regions, err
}

// QuotePricing returns the per-service fee breakdown for a region
func (c *Client) QuotePricing(ctx context.Context, region string, serviceIDs []string) ([]deal.PricingQuote, error) {
	var quotes []deal.PricingQuote
	err := c.doPost(ctx, "/pricing/quote", quoteRequest{Region: region, ServiceIDs: serviceIDs}, &quotes)
	return quotes, err
}

// ListPackages returns the packages offered in a region
func (c *Client) ListPackages(ctx context.Context, region string) ([]deal.PackageOffering, error) {
	params := url.Values{}
	params.Set("region", region)

	var packages []deal.PackageOffering
	err := c.doGet(ctx, "/packages", params, &packages)
	return packages, err
}

// ---------------------------------------------------------------------------
// Deal Operations
// ---------------------------------------------------------------------------

// CreateDeal submits a new deal
func (c *Client) CreateDeal(ctx context.Context, payload crm.CreateDealPayload) (*crm.DealResult, error) {
	var result crm.DealResult
	if err := c.doPost(ctx, "/deals", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateDeal submits changes to an existing deal
func (c *Client) UpdateDeal(ctx context.Context, payload crm.UpdateDealPayload) (*crm.DealResult, error) {
	var result crm.DealResult
	if err := c.doPut(ctx, "/deals/"+url.PathEscape(payload.DealID), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDealDetail hydrates a full deal record for edit mode
func (c *Client) GetDealDetail(ctx context.Context, id string) (*crm.DealRecord, error) {
	var record crm.DealRecord
	if err := c.doGet(ctx, "/deals/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

func searchParams(query string, page, pageSize int) url.Values {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	return params
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.config.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("crmapi: failed to create request: %w", err)
	}
	return c.doRequest(req, out)
}

func (c *Client) doPost(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doPut(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("crmapi: failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("crmapi: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, out)
}

// doRequest sends the request, unwraps the response envelope and decodes the
// data payload into out.
func (c *Client) doRequest(req *http.Request, out any) error {
	req.Header.Set("X-API-Key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("CRM API request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("crmapi: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrNotFound
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: HTTP %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("crmapi: failed to parse response: %w", err)
	}

	if !env.Success {
		if env.Error != nil {
			return shared.NewDomainError(env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("crmapi: request failed with HTTP %d", resp.StatusCode)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("crmapi: failed to decode response data: %w", err)
	}
	return nil
}

// Ensure Client implements the workflow's remote contracts
var (
	_ crm.Directory = (*Client)(nil)
	_ crm.Catalog   = (*Client)(nil)
	_ crm.Deals     = (*Client)(nil)
)
