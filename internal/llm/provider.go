package llm

import (
	"context"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
)

// Provider defines the interface for image generation providers.
// A call resolves exactly once: an image or an error carrying a human-readable message.
type Provider interface {
	// GenerateHairstyle renders the user's photo with the requested hairstyle
	GenerateHairstyle(ctx context.Context, request *HairstyleRequest) (*HairstyleResponse, error)

	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string
}

// HairstyleRequest contains all parameters needed for one generation
type HairstyleRequest struct {
	Model          string // Provider model; empty uses the provider default
	UserImage      media.InlineImage
	Mode           models.GenerationMode
	Prompt         string             // Hairstyle description, used in text description mode
	ReferenceImage *media.InlineImage // Hairstyle reference, used in reference image mode
}

// HairstyleResponse contains the generated image
type HairstyleResponse struct {
	Image       media.InlineImage
	ImageURL    string // Data URL of Image
	Description string // Optional text returned alongside the image
	Model       string
	Usage       Usage
}

// Usage reports token counts when the provider returns them
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func newHairstyleResponse(img media.InlineImage, description, model string, usage Usage) *HairstyleResponse {
	return &HairstyleResponse{
		Image:       img,
		ImageURL:    img.DataURL(),
		Description: description,
		Model:       model,
		Usage:       usage,
	}
}
