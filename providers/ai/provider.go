package ai

import (
	"context"
	"net/http"
)

// Provider is the interface every generation-service client must satisfy.
// It covers authentication, endpoint configuration and message dispatch for
// a single synchronous completion.
type Provider interface {
	// Complete sends a chat request to the service and returns the completed
	// response. A structured failure from the service is returned as an
	// *ServiceError; transport and decode failures are returned as plain
	// errors.
	Complete(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHTTPClient sets the HTTP client used for outbound requests.
	WithHTTPClient(httpClient *http.Client) Provider
}

// ModelLister is an optional interface for providers that can enumerate the
// models available to the configured credential. Callers detect support via
// type assertion: provider.(ModelLister).
type ModelLister interface {
	// ListModels returns the models the service offers.
	ListModels(ctx context.Context) ([]Model, error)
}
