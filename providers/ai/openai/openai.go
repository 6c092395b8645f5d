// Package openai implements the ai.Provider contract against the OpenAI
// chat-completions API, or any service exposing the same surface when the
// base URL is overridden.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/flowdeck/flowdeck/internal/utils"
	"github.com/flowdeck/flowdeck/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// Client implements the ai.Provider interface for the OpenAI API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a new OpenAI client with default values. The API key and base
// URL may be pre-seeded from OPENAI_API_KEY and OPENAI_API_BASE_URL.
func New() *Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

var _ ai.Provider = (*Client)(nil)

// WithAPIKey sets the API key for the client
func (client *Client) WithAPIKey(apiKey string) ai.Provider {
	client.apiKey = apiKey
	return client
}

// WithBaseURL sets the base URL for the API
func (client *Client) WithBaseURL(baseURL string) ai.Provider {
	if baseURL != "" {
		client.baseURL = baseURL
	}
	return client
}

// WithHTTPClient sets a custom HTTP client
func (client *Client) WithHTTPClient(httpClient *http.Client) ai.Provider {
	client.httpClient = httpClient
	return client
}

// Complete implements the ai.Provider interface.
func (client *Client) Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if client.apiKey == "" {
		return nil, fmt.Errorf("API key is not set")
	}

	url := client.baseURL + chatCompletionsEndpoint
	httpResponse, response, err := utils.DoPostSync[chatCompletionResponse](ctx, client.httpClient, url, client.apiKey, requestFromGeneric(request))
	if err != nil {
		return nil, ai.WrapServiceError(err)
	}

	if response == nil {
		return nil, fmt.Errorf("empty response from OpenAI API: %s", httpResponse.Status)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return responseToGeneric(*response), nil
}
