package crmapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return client
}

func writeSuccess(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(envelope{Success: true, Data: raw})
	require.NoError(t, err)
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(&Config{APIKey: "key"})
	assert.ErrorIs(t, err, ErrConfigMissingBaseURL)

	_, err = NewClient(&Config{BaseURL: "http://crm.local"})
	assert.ErrorIs(t, err, ErrConfigMissingAPIKey)
}

func TestSearchCompaniesSendsPagingAndAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "acme", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))

		writeSuccess(t, w, []crm.CompanySummary{
			{ID: "42", Name: "Acme Traders", Region: "Kerala"},
		})
	})

	companies, err := client.SearchCompanies(context.Background(), "acme", 2, 10)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "42", companies[0].ID)
}

func TestGetCompanyDetailDecodesLinkedCustomers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/42", r.URL.Path)
		writeSuccess(t, w, crm.CompanyRecord{
			ID:   "42",
			Name: "Acme Traders",
			Customers: []crm.CustomerSummary{
				{ID: "7", Name: "Meera"},
			},
		})
	})

	record, err := client.GetCompanyDetail(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", record.Name)
	require.Len(t, record.Customers, 1)
	assert.Equal(t, "7", record.Customers[0].ID)
}

func TestQuotePricingPostsRegionAndServices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pricing/quote", r.URL.Path)

		var req quoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Kerala", req.Region)
		assert.Equal(t, []string{"svc-1", "svc-2"}, req.ServiceIDs)

		writeSuccess(t, w, []map[string]any{
			{"serviceId": "svc-1", "total": "450"},
			{"serviceId": "svc-2", "total": "300"},
		})
	})

	quotes, err := client.QuotePricing(context.Background(), "Kerala", []string{"svc-1", "svc-2"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "svc-1", quotes[0].ServiceID)
}

func TestCreateDealDecodesResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deals", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload crm.CreateDealPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, crm.DealTypeIndividual, payload.DealType)

		writeSuccess(t, w, crm.DealResult{Success: true, DealID: "deal-9"})
	})

	result, err := client.CreateDeal(context.Background(), crm.CreateDealPayload{
		DealType: crm.DealTypeIndividual,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "deal-9", result.DealID)
}

func TestUpdateDealTargetsDealPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/deals/deal-10", r.URL.Path)
		writeSuccess(t, w, crm.DealResult{Success: true, DealID: "deal-10"})
	})

	result, err := client.UpdateDeal(context.Background(), crm.UpdateDealPayload{DealID: "deal-10"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestNotFoundMapsToDomainError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetDealDetail(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServerErrorMapsToRemoteUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListServiceCategories(context.Background())
	assert.ErrorIs(t, err, shared.ErrRemoteUnavailable)
}

func TestEnvelopeErrorSurfacesRemoteCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(envelope{
			Success: false,
			Error:   &remoteError{Code: "INVALID_REGION", Message: "Unknown region"},
		})
	})

	_, err := client.ListPackages(context.Background(), "Atlantis")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_REGION", domainErr.Code)
}

func TestUnreachableHostMapsToRemoteUnavailable(t *testing.T) {
	client, err := NewClient(&Config{
		BaseURL:        "http://127.0.0.1:1",
		APIKey:         "test-key",
		TimeoutSeconds: 1,
	})
	require.NoError(t, err)

	_, err = client.ListRegions(context.Background())
	assert.ErrorIs(t, err, shared.ErrRemoteUnavailable)
}
