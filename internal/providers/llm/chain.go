package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Result carries a successful completion together with the provider that
// produced it, so trace spans can record which tier answered.
type Result struct {
	Text     string
	Provider string
}

// Chain tries an ordered list of providers, returning the first success or
// an aggregate error naming every tier that failed.
type Chain struct {
	providers []Provider
}

// NewChain constructs a fallback chain. Order matters: the first provider is
// the primary tier.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Name returns a slash-joined identifier for logging.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, "/")
}

// Complete walks the chain in order, collecting each tier's error. Context
// cancellation stops the walk immediately instead of burning further tiers.
func (c *Chain) Complete(ctx context.Context, req Request) (Result, error) {
	if len(c.providers) == 0 {
		return Result{}, errors.New("llm: empty provider chain")
	}
	var failures []string
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		text, err := p.Complete(ctx, req)
		if err == nil {
			return Result{Text: text, Provider: p.Name()}, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
	}
	return Result{}, fmt.Errorf("llm: all providers failed: %s", strings.Join(failures, "; "))
}
