package crmapi

import "encoding/json"

// envelope is the response wrapper every CRM API endpoint uses
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *remoteError    `json:"error,omitempty"`
}

// remoteError carries the remote failure code and message
type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// quoteRequest is the body of the pricing quote endpoint
type quoteRequest struct {
	Region     string   `json:"region"`
	ServiceIDs []string `json:"serviceIds"`
}
