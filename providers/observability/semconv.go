package observability

// Semantic conventions for observability attributes. These constants define
// standard attribute names so spans and logs stay consistent across
// components.

// --- Run Attributes ---

const (
	// AttrRunID is the unique identifier of a workflow run
	AttrRunID = "run.id"

	// AttrRunStatus is the terminal status of a run ("succeeded", "failed")
	AttrRunStatus = "run.status"

	// AttrNodeID is the ID of a workflow node
	AttrNodeID = "workflow.node.id"

	// AttrNodeType is the type of a workflow node
	AttrNodeType = "workflow.node.type"
)

// --- Generation Service Attributes ---

const (
	// AttrModel is the model identifier sent to the generation service
	AttrModel = "generation.model"

	// AttrEndpoint is the service base URL
	AttrEndpoint = "generation.endpoint"

	// AttrTemperature is the sampling temperature used
	AttrTemperature = "generation.temperature"

	// AttrMaxTokens is the maximum tokens allowed
	AttrMaxTokens = "generation.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method used
	AttrHTTPMethod = "http.method"

	// AttrHTTPURL is the full URL of the request
	AttrHTTPURL = "http.url"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)
