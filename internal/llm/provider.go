// Package llm defines the model abstraction used by generation and the
// ordered fallback chain that picks a model to use.
package llm

import "context"

// Response is the single accessor generation needs from a model reply
type Response interface {
	Text() string
}

// Model is an instantiated model candidate
type Model interface {
	ID() string
	// Generate runs one prompt. Quota rejections are returned as
	// *QuotaExceededError, everything else as *ModelError.
	Generate(ctx context.Context, prompt string) (Response, error)
}

// Provider instantiates models by identifier
type Provider interface {
	Name() string
	// Model returns an error when the identifier cannot be used, for example
	// when it is disabled or credentials are missing.
	Model(id string) (Model, error)
}

// Lister is implemented by providers that can enumerate the models they serve
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// TextResponse is a plain-text Response
type TextResponse string

// Text returns the response text
func (r TextResponse) Text() string {
	return string(r)
}
