package crmapi

import "errors"

// Config holds the upstream CRM API connection settings
type Config struct {
	// BaseURL is the root of the CRM API, e.g. https://crm.example.com/api
	BaseURL string
	// APIKey is sent on every request as the X-API-Key header
	APIKey string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for CRM client configuration
var (
	ErrConfigMissingBaseURL = errors.New("crmapi: base URL is required")
	ErrConfigMissingAPIKey  = errors.New("crmapi: API key is required")
)

// NewConfig creates a client configuration with defaults
func NewConfig(baseURL, apiKey string) *Config {
	return &Config{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		TimeoutSeconds: 10,
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}
