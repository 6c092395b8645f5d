// Package webpage fetches a web page over HTTP/HTTPS and converts its HTML
// content to Markdown, for seeding an input node's text from a URL.
//
// Partial URLs are normalised by prepending "https://", up to ten redirects
// are followed, and the response body is capped at [MaxBodySize].
//
// Example:
//
//	fetcher := webpage.NewFetcher()
//	page, err := fetcher.Fetch(ctx, "example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(page.Markdown)
package webpage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value
	DefaultUserAgent = "flowdeck-webpage/1.0"
	// MaxBodySize is the maximum response body size (10MB)
	MaxBodySize = 10 * 1024 * 1024
	// maxRedirects bounds redirect following
	maxRedirects = 10
)

// Page is the result of a fetch: the final URL after redirects and the page
// content converted to Markdown.
type Page struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

// Fetcher retrieves web pages and converts them to Markdown.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a Fetcher with the default timeout and redirect policy.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (>%d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
	}
}

// WithHTTPClient sets a custom HTTP client
func (fetcher *Fetcher) WithHTTPClient(httpClient *http.Client) *Fetcher {
	if httpClient != nil {
		fetcher.httpClient = httpClient
	}
	return fetcher
}

// WithUserAgent sets a custom User-Agent header value
func (fetcher *Fetcher) WithUserAgent(userAgent string) *Fetcher {
	if userAgent != "" {
		fetcher.userAgent = userAgent
	}
	return fetcher
}

// Fetch retrieves the page at url and returns its content as Markdown.
// Partial URLs like "example.com" are normalised by prepending "https://".
// It returns an error when the URL is blank, the status is not 200 OK, the
// body exceeds [MaxBodySize], or the HTML cannot be converted.
func (fetcher *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Page{}, fmt.Errorf("URL cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("error creating request: %w", err)
	}
	request.Header.Set("User-Agent", fetcher.userAgent)

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return Page{}, fmt.Errorf("error fetching URL: %w", err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("unexpected status code: %d %s", response.StatusCode, response.Status)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(response.Body, MaxBodySize))
	if err != nil {
		return Page{}, fmt.Errorf("error reading response body: %w", err)
	}
	if len(htmlBytes) == MaxBodySize {
		return Page{}, fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(htmlBytes))
	if err != nil {
		return Page{}, fmt.Errorf("error converting HTML to Markdown: %w", err)
	}

	return Page{
		URL:      response.Request.URL.String(),
		Markdown: markdown,
	}, nil
}
