package writer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/pathforge/pathforge/pkg/models"
)

// ResultsWriter appends batch records to a JSONL file. Safe for concurrent use.
type ResultsWriter struct {
	file   *os.File
	mu     sync.Mutex
	logger *slog.Logger
}

// NewResultsWriter opens the session results file, appending when it exists
func NewResultsWriter(sessionMgr *SessionManager, logger *slog.Logger) (*ResultsWriter, error) {
	path := sessionMgr.GetResultsPath()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}

	logger.Info("Writing results", "path", path)
	return &ResultsWriter{file: file, logger: logger}, nil
}

// WriteRecord writes one record as a line
func (w *ResultsWriter) WriteRecord(record models.BatchRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close syncs and closes the file
func (w *ResultsWriter) Close() error {
	if err := w.file.Sync(); err != nil {
		w.logger.Warn("Failed to sync results file", "error", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}
	return nil
}

// CompletedUsers returns the users with a successful record in a results
// file. A missing file yields an empty set. Partial trailing lines from an
// interrupted run are ignored.
func CompletedUsers(path string) (map[string]bool, error) {
	done := make(map[string]bool)

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return done, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec models.BatchRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.UserID != "" && rec.Error == "" {
			done[rec.UserID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	return done, nil
}
