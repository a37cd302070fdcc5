package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/prompt"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	providerNameOpenAI   = "openai"
	defaultOpenAIModel   = "gpt-image-1"
	openAIRateLimitRetry = 30 * time.Second
	openAIOutputMIMEType = "image/png"
)

// imageEditor is the subset of openai.ImageService used by the provider
type imageEditor interface {
	Edit(ctx context.Context, body openai.ImageEditParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// OpenAIProvider implements the Provider interface using the OpenAI image edit endpoint
type OpenAIProvider struct {
	images  imageEditor
	model   string
	builder *prompt.Builder
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newOpenAIProvider(&client.Images, model)
}

func newOpenAIProvider(editor imageEditor, model string) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		images:  editor,
		model:   model,
		builder: prompt.NewPromptBuilder(),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// GenerateHairstyle edits the user's photo using the instruction and the optional reference
func (p *OpenAIProvider) GenerateHairstyle(ctx context.Context, request *HairstyleRequest) (*HairstyleResponse, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = p.model
	}

	startTime := time.Now()
	log.Printf("💇 OPENAI HAIRSTYLE REQUEST STARTED (Model: %s, Mode: %s)", model, request.Mode)

	transaction := sentry.StartTransaction(ctx, "openai.generate_hairstyle")
	defer transaction.Finish()

	transaction.SetTag("model", model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("mode", request.Mode.String())

	params, err := p.buildEditParams(request, model)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	span := transaction.StartChild("openai.api_call")
	resp, err := p.images.Edit(ctx, params)
	apiDuration := time.Since(startTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		if rlErr := checkOpenAIRateLimit(err, model); rlErr != nil {
			return nil, rlErr
		}
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	response, err := processOpenAIResponse(resp, model)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI HAIRSTYLE GENERATION COMPLETED in %v (%d bytes)", time.Since(startTime), response.Image.Size())
	return response, nil
}

func (p *OpenAIProvider) buildEditParams(request *HairstyleRequest, model string) (openai.ImageEditParams, error) {
	fullPrompt, err := p.builder.BuildFullPrompt(request.Mode, request.Prompt)
	if err != nil {
		return openai.ImageEditParams{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	files := []io.Reader{imageFile(request.UserImage, "user-photo")}
	if request.Mode == models.ModeReferenceImage {
		if request.ReferenceImage == nil || len(request.ReferenceImage.Data) == 0 {
			return openai.ImageEditParams{}, ErrMissingReference
		}
		files = append(files, imageFile(*request.ReferenceImage, "reference"))
	}

	return openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: files},
		Prompt: fullPrompt,
		Model:  openai.ImageModel(model),
	}, nil
}

func imageFile(img media.InlineImage, name string) io.Reader {
	img = media.Shrink(img, compressThresholdBytes, compressQuality)

	mimeType := img.MIMEType
	if !img.IsImage() {
		mimeType = http.DetectContentType(img.Data)
	}
	return openai.File(bytes.NewReader(img.Data), name+extensionFor(mimeType), mimeType)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func processOpenAIResponse(resp *openai.ImagesResponse, model string) (*HairstyleResponse, error) {
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image from OpenAI: %w", err)
	}

	img := media.NewInlineImage(openAIOutputMIMEType, data)
	usage := Usage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	return newHairstyleResponse(img, resp.Data[0].RevisedPrompt, model, usage), nil
}

// checkOpenAIRateLimit converts 429 responses into a RateLimitError
func checkOpenAIRateLimit(err error, model string) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	return &RateLimitError{
		RetryAfter: openAIRateLimitRetry,
		Provider:   providerNameOpenAI,
		Model:      model,
		Err:        err,
	}
}
