// Package brain talks to text-generation services.
package brain

import (
	"context"
	"fmt"
)

// Provider is the interface for text-generation services
type Provider interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to a provider
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the provider's response. Content may be empty.
type Response struct {
	Content string
	Model   string
}

// ProviderManager manages multiple providers with fallback
type ProviderManager struct {
	providers []Provider
	preferred string
}

// Ensure ProviderManager implements Provider
var _ Provider = (*ProviderManager)(nil)

// NewProviderManager creates a new provider manager
func NewProviderManager(providers ...Provider) *ProviderManager {
	return &ProviderManager{providers: providers}
}

// AddProvider adds a provider to the manager
func (pm *ProviderManager) AddProvider(p Provider) {
	pm.providers = append(pm.providers, p)
}

// SetPreferred sets the preferred provider by name
func (pm *ProviderManager) SetPreferred(name string) {
	pm.preferred = name
}

// GetAvailable returns the first available provider, preferring the preferred one
func (pm *ProviderManager) GetAvailable() Provider {
	if pm.preferred != "" {
		for _, p := range pm.providers {
			if p.Name() == pm.preferred && p.Available() {
				return p
			}
		}
	}

	for _, p := range pm.providers {
		if p.Available() {
			return p
		}
	}

	return nil
}

// ListAvailable returns names of all available providers
func (pm *ProviderManager) ListAvailable() []string {
	var names []string
	for _, p := range pm.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

func (pm *ProviderManager) Name() string {
	if p := pm.GetAvailable(); p != nil {
		return p.Name()
	}
	return "none"
}

func (pm *ProviderManager) Available() bool {
	return pm.GetAvailable() != nil
}

// Generate delegates to the currently available provider
func (pm *ProviderManager) Generate(ctx context.Context, req Request) (Response, error) {
	p := pm.GetAvailable()
	if p == nil {
		return Response{}, fmt.Errorf("no text-generation provider configured")
	}
	return p.Generate(ctx, req)
}
