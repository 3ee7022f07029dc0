package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/pathforge/pathforge/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testModelConfig(baseURL string) config.ModelConfig {
	return config.ModelConfig{
		BaseURL:            baseURL,
		ModelName:          "gemini-1.5-flash",
		Temperature:        0.7,
		TopP:               1.0,
		MaxOutputTokens:    100,
		RateLimitPerMinute: 600,
	}
}

func TestChatCompletion_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header 'Bearer test-key', got '%s'", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", r.Header.Get("Content-Type"))
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "test-123",
			"object": "chat.completion",
			"created": 1234567890,
			"model": "gemini-1.5-flash",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "[{\"name\": \"Step\"}]"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	client := NewClient(testLogger())

	resp, err := client.ChatCompletion(
		context.Background(),
		testModelConfig(server.URL),
		"test-key",
		[]Message{{Role: "user", Content: "Build a roadmap"}},
	)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("Expected 1 choice, got %d", len(resp.Choices))
	}
	if resp.Choices[0].Message.Content != `[{"name": "Step"}]` {
		t.Errorf("Unexpected content %q", resp.Choices[0].Message.Content)
	}
}

func TestChatCompletion_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := NewClient(testLogger())
	_, err := client.ChatCompletion(context.Background(), testModelConfig(server.URL), "", []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 request, got %d", got)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.QuotaExceeded() {
		t.Error("500 should not be reported as quota exceeded")
	}
	if !apiErr.Retryable {
		t.Error("500 should be retryable")
	}
}

func TestChatCompletion_QuotaErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		quota  bool
	}{
		{
			name:   "429 openai style",
			status: http.StatusTooManyRequests,
			body:   `{"error": {"message": "Rate limit reached", "type": "rate_limit_error", "code": "rate_limit_exceeded"}}`,
			quota:  true,
		},
		{
			name:   "gemini wrapped array",
			status: http.StatusTooManyRequests,
			body:   `[{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}]`,
			quota:  true,
		},
		{
			name:   "insufficient quota on 403",
			status: http.StatusForbidden,
			body:   `{"error": {"message": "You exceeded your current quota", "type": "insufficient_quota"}}`,
			quota:  true,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error": {"message": "invalid model", "type": "invalid_request_error"}}`,
			quota:  false,
		},
		{
			name:   "plain text body",
			status: http.StatusNotFound,
			body:   `not found`,
			quota:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(testLogger())
			_, err := client.ChatCompletion(context.Background(), testModelConfig(server.URL), "k", []Message{{Role: "user", Content: "hi"}})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.QuotaExceeded() != tt.quota {
				t.Errorf("QuotaExceeded() = %v, want %v (err: %v)", apiErr.QuotaExceeded(), tt.quota, apiErr)
			}
		})
	}
}

func TestChatCompletion_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer server.Close()

	client := NewClient(testLogger())
	_, err := client.ChatCompletion(context.Background(), testModelConfig(server.URL), "k", []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"object": "list", "data": [
			{"id": "gemini-2.0-flash", "object": "model"},
			{"id": "", "object": "model"},
			{"id": "gemini-1.5-pro-002", "object": "model"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(testLogger())
	ids, err := client.ListModels(context.Background(), server.URL+"/v1", "k")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(ids) != 2 || ids[0] != "gemini-2.0-flash" || ids[1] != "gemini-1.5-pro-002" {
		t.Errorf("Unexpected model ids %v", ids)
	}
}

func TestRateLimiterPool_UpdatesRate(t *testing.T) {
	pool := NewRateLimiterPool()

	first := pool.GetOrCreate("m", 60)
	second := pool.GetOrCreate("m", 120)
	if first != second {
		t.Fatal("Expected the same limiter instance for one model")
	}
	if got := float64(second.Limit()); got != 2.0 {
		t.Errorf("Expected limit 2 rps after update, got %v", got)
	}
	if err := pool.Wait(context.Background(), "unlimited", 0); err != nil {
		t.Errorf("Expected zero rpm to skip limiting, got %v", err)
	}
}
