package ai

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Backend is a single text-generation service bound to one API key.
type Backend interface {
	GenerateContent(ctx context.Context, model, systemInstruction, prompt string) (string, error)
}

// BackendFactory builds a backend for a caller-supplied key.
type BackendFactory func(ctx context.Context, apiKey string) (Backend, error)

// Source tells where the credential of a call came from.
type Source string

const (
	SourceNone    Source = "none"
	SourceDefault Source = "default"
	SourceUser    Source = "user"
)

// Credentials is the resolved backend and model for one call.
// Backend is nil when Source is SourceNone.
type Credentials struct {
	Backend Backend
	Model   string
	Source  Source
}

// Resolver picks the backend and model for a request. A caller key always
// gets a fresh backend; the default one is never mutated or reused for it.
type Resolver struct {
	Default       Backend
	DefaultModel  string
	AllowedModels []string
	NewBackend    BackendFactory
}

// Resolve returns SourceNone credentials, not an error, when no key is available.
// The error is reserved for a failure to build a backend for the caller's key.
func (r *Resolver) Resolve(ctx context.Context, userKey, userModel string) (Credentials, error) {
	userKey = strings.TrimSpace(userKey)
	if userKey != "" && r.NewBackend != nil {
		backend, err := r.NewBackend(ctx, userKey)
		if err != nil {
			return Credentials{Source: SourceUser}, fmt.Errorf("creating backend for user key: %w", err)
		}
		return Credentials{Backend: backend, Model: r.allowedModel(userModel), Source: SourceUser}, nil
	}

	if r.Default != nil {
		return Credentials{Backend: r.Default, Model: r.DefaultModel, Source: SourceDefault}, nil
	}
	return Credentials{Source: SourceNone}, nil
}

// allowedModel returns model if it is on the allow-list and the first
// allowed model otherwise.
func (r *Resolver) allowedModel(model string) string {
	model = strings.TrimSpace(model)
	if slices.Contains(r.AllowedModels, model) {
		return model
	}
	if len(r.AllowedModels) > 0 {
		return r.AllowedModels[0]
	}
	return r.DefaultModel
}
