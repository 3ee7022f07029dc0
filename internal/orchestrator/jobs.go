package orchestrator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pathforge/pathforge/pkg/models"
)

// ReadJobs parses one JSON object per line:
//
//	{"user_id": "u1", "answers": [{"questionText": "...", "selectedOption": "..."}]}
//
// Blank lines and lines starting with # are skipped. Duplicate users keep
// their first entry.
func ReadJobs(r io.Reader) ([]models.BatchJob, error) {
	var jobs []models.BatchJob
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var job models.BatchJob
		if err := json.Unmarshal([]byte(line), &job); err != nil {
			return nil, fmt.Errorf("line %d: invalid job: %w", lineNo, err)
		}
		job.UserID = strings.TrimSpace(job.UserID)
		if job.UserID == "" {
			return nil, fmt.Errorf("line %d: user_id is required", lineNo)
		}
		if seen[job.UserID] {
			continue
		}
		seen[job.UserID] = true

		job.ID = len(jobs)
		job.Answers = models.CloneAnswers(job.Answers)
		jobs = append(jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return jobs, nil
}
