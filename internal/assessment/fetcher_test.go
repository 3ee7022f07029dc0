package assessment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pathforge/pathforge/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(url, token string) *Fetcher {
	return NewFetcher(config.AssessmentConfig{
		BaseURL:        url,
		Path:           "/api/userinterest/status",
		TimeoutSeconds: 10,
	}, token, testLogger())
}

func TestFetch_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/userinterest/status" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("userId"); got != "user 42" {
			t.Errorf("Expected userId 'user 42', got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"starterAnswers": [
			{"questionText": "Field?", "selectedOption": "Manufacturing & Engineering"}
		]}}`))
	}))
	defer server.Close()

	answers, err := newTestFetcher(server.URL+"/", "tok").Fetch(context.Background(), "user 42")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(answers) != 1 || answers[0].SelectedOption != "Manufacturing & Engineering" {
		t.Errorf("Unexpected answers %+v", answers)
	}
}

func TestFetch_Responses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCount   int
		wantFirst   string
		unavailable bool
	}{
		{
			name:      "legacy top-level answers with aliases",
			status:    http.StatusOK,
			body:      `{"success": true, "mentalHealthAnswers": [{"question": "Q1", "answer": "A1"}, {"question": "Q2", "answer": "A2"}]}`,
			wantCount: 2,
			wantFirst: "A1",
		},
		{
			name:      "completed without answers",
			status:    http.StatusOK,
			body:      `{"success": true, "hasCompletedAssessment": true}`,
			wantCount: 1,
			wantFirst: "Assessment completed",
		},
		{
			name:      "no assessment",
			status:    http.StatusOK,
			body:      `{"success": true, "hasCompletedAssessment": false}`,
			wantCount: 0,
		},
		{
			name:        "backend failure flag",
			status:      http.StatusOK,
			body:        `{"success": false, "message": "not logged in"}`,
			unavailable: true,
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        `{"success": false}`,
			unavailable: true,
		},
		{
			name:        "invalid JSON",
			status:      http.StatusOK,
			body:        `<html>`,
			unavailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "" {
					t.Error("Expected no Authorization header without a token")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			answers, err := newTestFetcher(server.URL, "").Fetch(context.Background(), "u1")
			if answers == nil {
				t.Fatal("Expected a non-nil slice")
			}
			if tt.unavailable {
				if !errors.Is(err, ErrAssessmentUnavailable) {
					t.Fatalf("Expected ErrAssessmentUnavailable, got %v", err)
				}
				if len(answers) != 0 {
					t.Errorf("Expected no answers, got %d", len(answers))
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(answers) != tt.wantCount {
				t.Fatalf("Expected %d answers, got %d", tt.wantCount, len(answers))
			}
			if tt.wantCount > 0 && answers[0].SelectedOption != tt.wantFirst {
				t.Errorf("Expected first option %q, got %q", tt.wantFirst, answers[0].SelectedOption)
			}
		})
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	f := newTestFetcher(server.URL, "").WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})
	answers, err := f.Fetch(context.Background(), "u1")
	if !errors.Is(err, ErrAssessmentUnavailable) {
		t.Fatalf("Expected ErrAssessmentUnavailable, got %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("Expected no answers, got %d", len(answers))
	}
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestFetcher(url, "").Fetch(context.Background(), "u1")
	if !errors.Is(err, ErrAssessmentUnavailable) {
		t.Fatalf("Expected ErrAssessmentUnavailable, got %v", err)
	}
}
