package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/flowdeck/flowdeck/providers/observability"
)

// HTTPError is returned by DoPostSync and DoGetSync for non-2xx responses.
// It carries the raw body so callers can decode a structured error payload
// from it; the Error text stays generic for the cases where they cannot.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (httpError *HTTPError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", httpError.StatusCode, TruncateString(string(httpError.Body), 200))
}

// DoPostSync performs a synchronous HTTP POST with a JSON body and decodes
// the response into OutputStruct. The bearer credential is attached as an
// Authorization header when non-empty.
//
// Error handling:
//   - context errors (timeout, cancellation) are propagated immediately
//   - connection failures return the transport error
//   - non-2xx responses return an *HTTPError carrying the body
//   - decode failures include a response preview for debugging
//
// The response body is always closed; close errors are logged and never
// override the primary error.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any) (*http.Response, *OutputStruct, error) {
	jsonBody, err := EncodeJSON(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	return doSync[OutputStruct](ctx, client, request, apiKey)
}

// DoGetSync performs a synchronous HTTP GET and decodes the JSON response
// into OutputStruct, with the same error handling as DoPostSync.
func DoGetSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string) (*http.Response, *OutputStruct, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodGet),
			observability.String(observability.AttrHTTPURL, url),
		)
	}

	return doSync[OutputStruct](ctx, client, request, apiKey)
}

// doSync executes the prepared request and decodes the response.
func doSync[OutputStruct any](ctx context.Context, client *http.Client, request *http.Request, apiKey string) (*http.Response, *OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+apiKey)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(request)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return response, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			// The primary error takes precedence, only log the close failure.
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", request.URL.String())
		}
	}(response.Body)

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return response, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(responseBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return response, nil, &HTTPError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       responseBody,
		}
	}

	decoded, err := DecodeLenient[OutputStruct](responseBody)
	if err != nil {
		return response, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			response.StatusCode, err, TruncateString(string(responseBody), 500))
	}

	return response, decoded, nil
}
