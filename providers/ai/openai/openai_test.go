package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowdeck/flowdeck/providers/ai"
)

func userRequest(model, content string) ai.ChatRequest {
	return ai.ChatRequest{
		Model:       model,
		Messages:    []ai.Message{{Role: ai.RoleUser, Content: content}},
		Temperature: 0.5,
		MaxTokens:   100,
	}
}

func TestCompleteSendsChatCompletionsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if authorization := r.Header.Get("Authorization"); authorization != "Bearer sk-test" {
			t.Errorf("authorization = %q", authorization)
		}
		if contentType := r.Header.Get("Content-Type"); contentType != "application/json" {
			t.Errorf("content type = %q", contentType)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("model = %v", body["model"])
		}
		if body["temperature"] != 0.5 {
			t.Errorf("temperature = %v", body["temperature"])
		}
		if body["max_tokens"] != float64(100) {
			t.Errorf("max_tokens = %v", body["max_tokens"])
		}
		messages, _ := body["messages"].([]any)
		if len(messages) != 1 {
			t.Fatalf("messages = %v", body["messages"])
		}
		message, _ := messages[0].(map[string]any)
		if message["role"] != "user" || message["content"] != "hello" {
			t.Errorf("message = %v", message)
		}

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 1, "total_tokens": 6}
		}`))
	}))
	defer server.Close()

	client := New().WithAPIKey("sk-test").WithBaseURL(server.URL)

	response, err := client.Complete(context.Background(), userRequest("gpt-4o-mini", "hello"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.Content != "hi" {
		t.Errorf("content = %q, want %q", response.Content, "hi")
	}
	if response.FinishReason != "stop" {
		t.Errorf("finish reason = %q", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 6 {
		t.Errorf("usage = %+v", response.Usage)
	}
}

func TestCompleteReadsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "first"}, "finish_reason": "stop"},
				{"index": 1, "message": {"role": "assistant", "content": "second"}, "finish_reason": "stop"}
			]
		}`))
	}))
	defer server.Close()

	client := New().WithAPIKey("sk-test").WithBaseURL(server.URL)

	response, err := client.Complete(context.Background(), userRequest("gpt-4o-mini", "hello"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.Content != "first" {
		t.Errorf("content = %q, want the first choice", response.Content)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := New().WithAPIKey("")

	if _, err := client.Complete(context.Background(), userRequest("gpt-4o-mini", "hello")); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestCompleteSurfacesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	client := New().WithAPIKey("sk-bad").WithBaseURL(server.URL)

	_, err := client.Complete(context.Background(), userRequest("gpt-4o-mini", "hello"))

	var serviceError *ai.ServiceError
	if !errors.As(err, &serviceError) {
		t.Fatalf("error %v is not an *ai.ServiceError", err)
	}
	if serviceError.Message != "Incorrect API key provided" {
		t.Errorf("message = %q", serviceError.Message)
	}
	if serviceError.Code != "invalid_api_key" {
		t.Errorf("code = %q", serviceError.Code)
	}
}

func TestCompleteUndecodableFailureStaysGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := New().WithAPIKey("sk-test").WithBaseURL(server.URL)

	_, err := client.Complete(context.Background(), userRequest("gpt-4o-mini", "hello"))
	if err == nil {
		t.Fatalf("expected error")
	}
	var serviceError *ai.ServiceError
	if errors.As(err, &serviceError) {
		t.Errorf("unparseable body should not become a ServiceError: %v", err)
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := New().WithAPIKey("sk-test").WithBaseURL(server.URL)

	if _, err := client.Complete(context.Background(), userRequest("gpt-4o-mini", "hello")); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
