// Package llm defines the text-generation provider contract shared by the
// creative pipeline and the explicit ordered fallback chain across
// providers.
package llm

import "context"

// Request describes one structured text-generation call.
type Request struct {
	Prompt      string
	Temperature float64
	JSONMode    bool
}

// Provider is implemented by each LLM backend (and by test fakes).
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a completion function into a Provider.
type Func struct {
	ProviderName string
	CompleteFunc func(ctx context.Context, req Request) (string, error)
}

// Name returns the provider identifier.
func (f Func) Name() string { return f.ProviderName }

// Complete invokes the wrapped function.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f.CompleteFunc(ctx, req)
}
