package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers based on model name or explicit provider choice
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
	openaiModel  string
	geminiModel  string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
		openaiModel:  defaultOpenAIModel,
		geminiModel:  defaultGeminiModel,
	}
}

// WithModels overrides the default model of each provider
func (f *ProviderFactory) WithModels(geminiModel, openaiModel string) *ProviderFactory {
	if geminiModel != "" {
		f.geminiModel = geminiModel
	}
	if openaiModel != "" {
		f.openaiModel = openaiModel
	}
	return f
}

// GetProvider returns the appropriate provider for the given model/provider name
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	if providerName != "" {
		return f.getProviderByName(ctx, providerName)
	}
	return f.getProviderByModel(ctx, model)
}

func (f *ProviderFactory) getProviderByName(ctx context.Context, providerName string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(providerName)) {
	case providerNameGemini:
		return f.newGemini(ctx)
	case providerNameOpenAI:
		return f.newOpenAI()
	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: gemini, openai)", providerName)
	}
}

// getProviderByModel infers the provider from the model name; Gemini is the default
func (f *ProviderFactory) getProviderByModel(ctx context.Context, model string) (Provider, error) {
	modelLower := strings.ToLower(model)

	if strings.HasPrefix(modelLower, "gpt-") || strings.HasPrefix(modelLower, "dall-e") {
		return f.newOpenAI()
	}
	if strings.HasPrefix(modelLower, "gemini-") {
		return f.newGemini(ctx)
	}

	if f.geminiAPIKey == "" && f.openaiAPIKey != "" {
		return f.newOpenAI()
	}
	return f.newGemini(ctx)
}

func (f *ProviderFactory) newGemini(ctx context.Context) (Provider, error) {
	if f.geminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	return NewGeminiProvider(ctx, f.geminiAPIKey, f.geminiModel)
}

func (f *ProviderFactory) newOpenAI() (Provider, error) {
	if f.openaiAPIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}
	return NewOpenAIProvider(f.openaiAPIKey, f.openaiModel), nil
}

// UnconfiguredProvider fails every call with the reason the real provider could not be built
type UnconfiguredProvider struct {
	reason error
}

// NewUnconfiguredProvider wraps the error returned by the factory
func NewUnconfiguredProvider(reason error) *UnconfiguredProvider {
	return &UnconfiguredProvider{reason: reason}
}

// Name returns the provider name
func (p *UnconfiguredProvider) Name() string {
	return "unconfigured"
}

// GenerateHairstyle always fails
func (p *UnconfiguredProvider) GenerateHairstyle(context.Context, *HairstyleRequest) (*HairstyleResponse, error) {
	return nil, fmt.Errorf("image generation is not configured: %w", p.reason)
}
