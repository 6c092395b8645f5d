// Package groq implements the ai.Provider contract against Groq's
// OpenAI-compatible API. It additionally implements ai.ModelLister, since
// Groq exposes a models endpoint useful for populating the generator's
// model picker.
package groq

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/flowdeck/flowdeck/internal/utils"
	"github.com/flowdeck/flowdeck/providers/ai"
)

const (
	defaultBaseURL          = "https://api.groq.com/openai/v1"
	chatCompletionsEndpoint = "/chat/completions"
	modelsEndpoint          = "/models"
)

// Client implements ai.Provider and ai.ModelLister for the Groq API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a new Groq client with default values. The API key and base
// URL may be pre-seeded from GROQ_API_KEY and GROQ_API_BASE_URL.
func New() *Client {
	apiKey := os.Getenv("GROQ_API_KEY")
	baseURL := os.Getenv("GROQ_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

var (
	_ ai.Provider    = (*Client)(nil)
	_ ai.ModelLister = (*Client)(nil)
)

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
		return nil, fmt.Errorf("empty response from Groq API: %s", httpResponse.Status)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return responseToGeneric(*response), nil
}

// ListModels implements ai.ModelLister. It returns the models available to
// the configured credential so the UI can offer a picker instead of a free
// text field.
func (client *Client) ListModels(ctx context.Context) ([]ai.Model, error) {
	if client.apiKey == "" {
		return nil, fmt.Errorf("API key is not set")
	}

	url := client.baseURL + modelsEndpoint
	_, response, err := utils.DoGetSync[modelListResponse](ctx, client.httpClient, url, client.apiKey)
	if err != nil {
		return nil, ai.WrapServiceError(err)
	}

	models := make([]ai.Model, 0, len(response.Data))
	for _, entry := range response.Data {
		models = append(models, ai.Model{
			ID:      entry.ID,
			OwnedBy: entry.OwnedBy,
			Created: entry.Created,
		})
	}

	return models, nil
}
