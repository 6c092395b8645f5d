package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowdeck/flowdeck/engine"
	"github.com/flowdeck/flowdeck/providers/ai"
	"github.com/flowdeck/flowdeck/workflow"
)

type fakeProvider struct {
	response *ai.ChatResponse
	err      error
}

func (provider *fakeProvider) Complete(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return provider.response, provider.err
}
func (provider *fakeProvider) WithAPIKey(string) ai.Provider           { return provider }
func (provider *fakeProvider) WithBaseURL(string) ai.Provider          { return provider }
func (provider *fakeProvider) WithHTTPClient(*http.Client) ai.Provider { return provider }

type fakeLister struct {
	models []ai.Model
	err    error
}

func (lister *fakeLister) ListModels(context.Context) ([]ai.Model, error) {
	return lister.models, lister.err
}

func newTestServer(provider ai.Provider) (*Server, *workflow.Store) {
	store := workflow.NewStore()
	runner := engine.New(store).WithClientFactory(func(workflow.GeneratorConfig) ai.Provider {
		return provider
	})
	return New(store, runner), store
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := server.App().Test(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return response
}

func decodeBody(t *testing.T, response *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = response.Body.Close() }()

	var decoded map[string]any
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func TestCreateNode(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})

	response := doJSON(t, server, "POST", "/workflow/nodes", map[string]any{
		"type": "input", "x": 100.0, "y": 50.0,
	})
	if response.StatusCode != 201 {
		t.Fatalf("status = %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	id, _ := body["id"].(string)
	if !strings.HasPrefix(id, "input-") {
		t.Errorf("id = %q", id)
	}

	node, ok := store.Node(id)
	if !ok {
		t.Fatalf("node %q not in store", id)
	}
	if node.Position.X != 100 || node.Position.Y != 50 {
		t.Errorf("position = %+v", node.Position)
	}
}

func TestCreateNodeRejectsUnknownType(t *testing.T) {
	server, _ := newTestServer(&fakeProvider{})

	response := doJSON(t, server, "POST", "/workflow/nodes", map[string]any{"type": "llm"})
	if response.StatusCode != 400 {
		t.Errorf("status = %d, want 400", response.StatusCode)
	}
}

func TestDeleteNodeIsIdempotent(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	id := store.AddNode(workflow.NodeTypeInput, workflow.Position{})

	for range 2 {
		response := doJSON(t, server, "DELETE", "/workflow/nodes/"+id, nil)
		if response.StatusCode != 204 {
			t.Errorf("status = %d, want 204", response.StatusCode)
		}
	}
}

func TestPatchConfig(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	id := store.AddNode(workflow.NodeTypeGenerator, workflow.Position{})

	response := doJSON(t, server, "PATCH", "/workflow/nodes/"+id+"/config", map[string]any{
		"model": "gpt-4o-mini", "temperature": 0.2,
	})
	if response.StatusCode != 204 {
		t.Fatalf("status = %d", response.StatusCode)
	}

	node, _ := store.Node(id)
	if node.Generator.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", node.Generator.Model)
	}
	if node.Generator.Temperature != 0.2 {
		t.Errorf("temperature = %v", node.Generator.Temperature)
	}
	if node.Generator.MaxTokens != workflow.DefaultMaxTokens {
		t.Errorf("max tokens = %d, patch must merge not replace", node.Generator.MaxTokens)
	}
}

func TestPatchConfigUnknownNode(t *testing.T) {
	server, _ := newTestServer(&fakeProvider{})

	response := doJSON(t, server, "PATCH", "/workflow/nodes/missing/config", map[string]any{"model": "x"})
	if response.StatusCode != 404 {
		t.Errorf("status = %d, want 404", response.StatusCode)
	}
}

func TestPatchConfigCannotWriteResult(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	id := store.AddNode(workflow.NodeTypeOutput, workflow.Position{})

	response := doJSON(t, server, "PATCH", "/workflow/nodes/"+id+"/config", map[string]any{
		"result": "forged output",
	})
	if response.StatusCode != 204 {
		t.Fatalf("status = %d", response.StatusCode)
	}

	node, _ := store.Node(id)
	if node.Output.Result != nil {
		t.Errorf("result = %q, collaborators must not write it", *node.Output.Result)
	}
}

func TestCreateEdgeAndRejection(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	inputID := store.AddNode(workflow.NodeTypeInput, workflow.Position{})
	generatorID := store.AddNode(workflow.NodeTypeGenerator, workflow.Position{})
	outputID := store.AddNode(workflow.NodeTypeOutput, workflow.Position{})

	response := doJSON(t, server, "POST", "/workflow/edges", map[string]any{
		"source": inputID, "target": generatorID,
	})
	if response.StatusCode != 201 {
		t.Fatalf("status = %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	if body["id"] != workflow.EdgeID(inputID, generatorID) {
		t.Errorf("edge id = %v", body["id"])
	}

	// input -> output is never legal.
	response = doJSON(t, server, "POST", "/workflow/edges", map[string]any{
		"source": inputID, "target": outputID,
	})
	if response.StatusCode != 422 {
		t.Fatalf("status = %d, want 422", response.StatusCode)
	}
	body = decodeBody(t, response)
	if reason, _ := body["error"].(string); !strings.Contains(reason, "incompatible node types") {
		t.Errorf("error = %v", body["error"])
	}
}

func TestGetWorkflow(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	inputID := store.AddNode(workflow.NodeTypeInput, workflow.Position{})
	generatorID := store.AddNode(workflow.NodeTypeGenerator, workflow.Position{})
	if _, rejection := store.AddEdge(inputID, generatorID); rejection != nil {
		t.Fatalf("add edge: %s", rejection.Reason)
	}

	response := doJSON(t, server, "GET", "/workflow", nil)
	if response.StatusCode != 200 {
		t.Fatalf("status = %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	nodes, _ := body["nodes"].([]any)
	edges, _ := body["edges"].([]any)
	if len(nodes) != 2 || len(edges) != 1 {
		t.Errorf("nodes = %d, edges = %d", len(nodes), len(edges))
	}
}

func TestRunHappyPath(t *testing.T) {
	provider := &fakeProvider{response: &ai.ChatResponse{Content: "generated text"}}
	server, store := newTestServer(provider)

	inputID := store.AddNode(workflow.NodeTypeInput, workflow.Position{})
	generatorID := store.AddNode(workflow.NodeTypeGenerator, workflow.Position{})
	outputID := store.AddNode(workflow.NodeTypeOutput, workflow.Position{})

	doJSON(t, server, "PATCH", "/workflow/nodes/"+inputID+"/config", map[string]any{"text": "prompt"})
	doJSON(t, server, "PATCH", "/workflow/nodes/"+generatorID+"/config", map[string]any{"api_key": "sk-test"})
	doJSON(t, server, "POST", "/workflow/edges", map[string]any{"source": inputID, "target": generatorID})
	doJSON(t, server, "POST", "/workflow/edges", map[string]any{"source": generatorID, "target": outputID})

	response := doJSON(t, server, "POST", "/workflow/run", nil)
	if response.StatusCode != 200 {
		t.Fatalf("status = %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	if body["status"] != "succeeded" {
		t.Errorf("body = %v", body)
	}

	node, _ := store.Node(outputID)
	if node.Output.Result == nil || *node.Output.Result != "generated text" {
		t.Errorf("output result = %v", node.Output.Result)
	}

	// Reset clears the result.
	response = doJSON(t, server, "POST", "/workflow/reset-results", nil)
	if response.StatusCode != 204 {
		t.Fatalf("reset status = %d", response.StatusCode)
	}
	node, _ = store.Node(outputID)
	if node.Output.Result != nil {
		t.Errorf("result survived reset: %q", *node.Output.Result)
	}
}

func TestRunValidationFailureIs422(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	store.AddNode(workflow.NodeTypeInput, workflow.Position{})

	response := doJSON(t, server, "POST", "/workflow/run", nil)
	if response.StatusCode != 422 {
		t.Fatalf("status = %d, want 422", response.StatusCode)
	}
	body := decodeBody(t, response)
	if message, _ := body["error"].(string); !strings.Contains(message, "missing GENERATOR node") {
		t.Errorf("error = %v", body["error"])
	}
}

func TestListModels(t *testing.T) {
	server, _ := newTestServer(&fakeProvider{})
	server.WithModelListerFactory(func(endpoint, apiKey string) ai.ModelLister {
		if apiKey != "gsk-test" {
			t.Errorf("api key = %q", apiKey)
		}
		return &fakeLister{models: []ai.Model{{ID: "llama-3.1-8b-instant", OwnedBy: "Meta"}}}
	})

	response := doJSON(t, server, "GET", "/models?api_key=gsk-test", nil)
	if response.StatusCode != 200 {
		t.Fatalf("status = %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	models, _ := body["models"].([]any)
	if len(models) != 1 {
		t.Fatalf("models = %v", body["models"])
	}
}

func TestListModelsRequiresAPIKey(t *testing.T) {
	server, _ := newTestServer(&fakeProvider{})

	response := doJSON(t, server, "GET", "/models", nil)
	if response.StatusCode != 400 {
		t.Errorf("status = %d, want 400", response.StatusCode)
	}
}

func TestImportPage(t *testing.T) {
	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<h1>Imported</h1><p>hello</p>"))
	}))
	defer pageServer.Close()

	server, store := newTestServer(&fakeProvider{})
	inputID := store.AddNode(workflow.NodeTypeInput, workflow.Position{})

	response := doJSON(t, server, "POST", "/workflow/nodes/"+inputID+"/import", map[string]any{
		"url": pageServer.URL,
	})
	if response.StatusCode != 200 {
		t.Fatalf("status = %d", response.StatusCode)
	}

	node, _ := store.Node(inputID)
	if !strings.Contains(node.Input.Text, "# Imported") {
		t.Errorf("input text = %q", node.Input.Text)
	}
	if node.Input.SourceURL != pageServer.URL {
		t.Errorf("source url = %q", node.Input.SourceURL)
	}
}

func TestImportPageOnlyForInputNodes(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	outputID := store.AddNode(workflow.NodeTypeOutput, workflow.Position{})

	response := doJSON(t, server, "POST", "/workflow/nodes/"+outputID+"/import", map[string]any{
		"url": "https://example.com",
	})
	if response.StatusCode != 422 {
		t.Errorf("status = %d, want 422", response.StatusCode)
	}
}

func TestMovePosition(t *testing.T) {
	server, store := newTestServer(&fakeProvider{})
	id := store.AddNode(workflow.NodeTypeInput, workflow.Position{})

	response := doJSON(t, server, "PATCH", "/workflow/nodes/"+id+"/position", map[string]any{
		"x": 320.0, "y": 44.0,
	})
	if response.StatusCode != 204 {
		t.Fatalf("status = %d", response.StatusCode)
	}

	node, _ := store.Node(id)
	if node.Position.X != 320 || node.Position.Y != 44 {
		t.Errorf("position = %+v", node.Position)
	}
}
