// Package assessment fetches a user's career assessment answers from the backend.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pathforge/pathforge/internal/config"
	"github.com/pathforge/pathforge/pkg/models"
)

// ErrAssessmentUnavailable is returned when the backend could not be asked.
// Callers treat it as an empty assessment.
var ErrAssessmentUnavailable = errors.New("assessment unavailable")

// Placeholder returned for users who completed the assessment but have no stored answers
var completedPlaceholder = models.AssessmentAnswer{
	QuestionText:   "Unknown",
	SelectedOption: "Assessment completed",
}

// statusResponse is the backend payload. Answers live under data.starterAnswers
// on newer backends and at the top level on older ones.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		StarterAnswers []models.AssessmentAnswer `json:"starterAnswers"`
	} `json:"data"`
	MentalHealthAnswers    []models.AssessmentAnswer `json:"mentalHealthAnswers"`
	HasCompletedAssessment bool                      `json:"hasCompletedAssessment"`
}

// Fetcher reads assessments over HTTP
type Fetcher struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. token is sent as a bearer token when non-empty.
func NewFetcher(cfg config.AssessmentConfig, token string, logger *slog.Logger) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Path, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithHTTPClient replaces the HTTP client
func (f *Fetcher) WithHTTPClient(c *http.Client) *Fetcher {
	f.httpClient = c
	return f
}

// Fetch returns the user's answers. An empty slice with a nil error means the
// user has no assessment; any failure returns an empty slice and an error
// matching ErrAssessmentUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, userID string) ([]models.AssessmentAnswer, error) {
	f.logger.Info("Fetching assessment", "user_id", userID)

	body, err := f.get(ctx, userID)
	if err != nil {
		f.logger.Warn("Assessment fetch failed", "user_id", userID, "error", err)
		return []models.AssessmentAnswer{}, fmt.Errorf("%w: %v", ErrAssessmentUnavailable, err)
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return []models.AssessmentAnswer{}, fmt.Errorf("%w: failed to parse response: %v", ErrAssessmentUnavailable, err)
	}
	if !resp.Success {
		f.logger.Warn("Assessment backend reported failure", "user_id", userID, "message", resp.Message)
		return []models.AssessmentAnswer{}, fmt.Errorf("%w: backend reported failure: %s", ErrAssessmentUnavailable, resp.Message)
	}

	answers := resp.Data.StarterAnswers
	if len(answers) == 0 {
		answers = resp.MentalHealthAnswers
	}
	if len(answers) > 0 {
		f.logger.Info("Fetched assessment answers", "user_id", userID, "count", len(answers))
		return answers, nil
	}

	if resp.HasCompletedAssessment {
		f.logger.Warn("Assessment completed but no answers returned", "user_id", userID)
		return []models.AssessmentAnswer{completedPlaceholder}, nil
	}

	f.logger.Info("No assessment data found", "user_id", userID)
	return []models.AssessmentAnswer{}, nil
}

func (f *Fetcher) get(ctx context.Context, userID string) ([]byte, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid assessment URL: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
