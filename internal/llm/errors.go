package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable is returned when no model candidate can be instantiated
var ErrModelUnavailable = errors.New("no AI models available")

// QuotaExceededError reports that the provider rejected a call for rate or quota reasons.
// The caller may retry after backing off.
type QuotaExceededError struct {
	Model string
	err   error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for model %s: %v", e.Model, e.err)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.err
}

// NewQuotaExceededError wraps err as a quota error for model
func NewQuotaExceededError(model string, err error) error {
	return &QuotaExceededError{Model: model, err: err}
}

// ModelError is any other failure from an instantiated model
type ModelError struct {
	Model string
	err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Model, e.err)
}

func (e *ModelError) Unwrap() error {
	return e.err
}

// NewModelError wraps err as a model error for model
func NewModelError(model string, err error) error {
	return &ModelError{Model: model, err: err}
}

// IsQuotaExceeded returns true if err is or wraps a QuotaExceededError
func IsQuotaExceeded(err error) bool {
	var quota *QuotaExceededError
	return errors.As(err, &quota)
}

// IsModelError returns true if err is or wraps a ModelError
func IsModelError(err error) bool {
	var modelErr *ModelError
	return errors.As(err, &modelErr)
}

// UnavailableError lists why each candidate could not be instantiated.
// It matches ErrModelUnavailable with errors.Is.
type UnavailableError struct {
	Failures []CandidateFailure
}

// CandidateFailure is one candidate that failed to instantiate
type CandidateFailure struct {
	Model string
	Err   error
}

func (e *UnavailableError) Error() string {
	if len(e.Failures) == 0 {
		return ErrModelUnavailable.Error()
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Model, f.Err))
	}
	return fmt.Sprintf("%s (%s)", ErrModelUnavailable, strings.Join(parts, "; "))
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}
