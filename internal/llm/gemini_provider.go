package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/prompt"
	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini      = "gemini"
	geminiUserRole          = "user"
	defaultGeminiModel      = "gemini-2.5-flash-image"
	geminiRateLimitRetry    = 60 * time.Second
	geminiResourceExhausted = "RESOURCE_EXHAUSTED"

	// Inputs above this size are re-encoded as JPEG before upload
	compressThresholdBytes = 4 * 1024 * 1024
	compressQuality        = 85
)

// contentGenerator is the subset of genai.Models used by the provider
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements the Provider interface using Google's Gemini image models
type GeminiProvider struct {
	models  contentGenerator
	model   string
	builder *prompt.Builder
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiProvider(client.Models, model), nil
}

func newGeminiProvider(generator contentGenerator, model string) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		models:  generator,
		model:   model,
		builder: prompt.NewPromptBuilder(),
	}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// GenerateHairstyle sends the user's photo, the optional reference and the instruction in one turn
func (p *GeminiProvider) GenerateHairstyle(ctx context.Context, request *HairstyleRequest) (*HairstyleResponse, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = p.model
	}

	startTime := time.Now()
	log.Printf("💇 GEMINI HAIRSTYLE REQUEST STARTED (Model: %s, Mode: %s)", model, request.Mode)

	transaction := sentry.StartTransaction(ctx, "gemini.generate_hairstyle")
	defer transaction.Finish()

	transaction.SetTag("model", model)
	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("mode", request.Mode.String())

	contents, err := p.buildGeminiContents(request)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	systemPrompt, err := p.builder.BuildSystemPrompt()
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("failed to build system prompt: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	span := transaction.StartChild("gemini.api_call")
	result, err := p.models.GenerateContent(ctx, model, contents, config)
	apiDuration := time.Since(startTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		if rlErr := checkGeminiRateLimit(err, model); rlErr != nil {
			return nil, rlErr
		}
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)

	response, err := p.processGeminiResponse(result, model)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI HAIRSTYLE GENERATION COMPLETED in %v (%d bytes, %s)",
		time.Since(startTime), response.Image.Size(), response.Image.MIMEType)
	return response, nil
}

// buildGeminiContents puts the user photo first, then the reference, then the instruction
func (p *GeminiProvider) buildGeminiContents(request *HairstyleRequest) ([]*genai.Content, error) {
	parts := []*genai.Part{imagePart(request.UserImage)}

	if request.Mode == models.ModeReferenceImage {
		if request.ReferenceImage == nil || len(request.ReferenceImage.Data) == 0 {
			return nil, ErrMissingReference
		}
		parts = append(parts, imagePart(*request.ReferenceImage))
	}

	instruction, err := p.builder.BuildInstruction(request.Mode, request.Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}
	parts = append(parts, &genai.Part{Text: instruction})

	return []*genai.Content{{Role: geminiUserRole, Parts: parts}}, nil
}

func imagePart(img media.InlineImage) *genai.Part {
	img = media.Shrink(img, compressThresholdBytes, compressQuality)

	mimeType := img.MIMEType
	if !img.IsImage() {
		mimeType = http.DetectContentType(img.Data)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}}
}

// processGeminiResponse returns the first inline image and any accompanying text
func (p *GeminiProvider) processGeminiResponse(result *genai.GenerateContentResponse, model string) (*HairstyleResponse, error) {
	if result == nil {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: string(result.PromptFeedback.BlockReason)}
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in Gemini response")
	}

	var textParts []string
	var image *media.InlineImage
	var finishReason genai.FinishReason

	for _, candidate := range result.Candidates {
		if candidate == nil {
			continue
		}
		if finishReason == "" {
			finishReason = candidate.FinishReason
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if part.Text != "" {
				textParts = append(textParts, strings.TrimSpace(part.Text))
			}
			if image == nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				img := media.NewInlineImage(part.InlineData.MIMEType, part.InlineData.Data)
				image = &img
			}
		}
	}

	description := strings.Join(textParts, "\n")

	if image == nil {
		if finishReason != "" && finishReason != genai.FinishReasonUnspecified && finishReason != genai.FinishReasonStop {
			return nil, &BlockedError{Reason: string(finishReason)}
		}
		if description != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoImage, description)
		}
		return nil, ErrNoImage
	}

	var usage Usage
	if result.UsageMetadata != nil {
		usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
		log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
			usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
	}

	return newHairstyleResponse(*image, description, model, usage), nil
}

// checkGeminiRateLimit converts quota errors into a RateLimitError
func checkGeminiRateLimit(err error, model string) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return nil
	}
	if apiErr.Code != http.StatusTooManyRequests && apiErr.Status != geminiResourceExhausted {
		return nil
	}
	return &RateLimitError{
		RetryAfter: geminiRateLimitRetry,
		Provider:   providerNameGemini,
		Model:      model,
		Err:        err,
	}
}
