package services

import (
	"context"
	"errors"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/llm"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/logger"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/metrics"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/observability"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"golang.org/x/time/rate"
)

const (
	defaultRatePerMinute = 30
	localLimiterName     = "local"
)

// UsageRecorder persists one row per generation call
type UsageRecorder interface {
	Record(ctx context.Context, entry *models.GenerationLog) error
}

// Dependencies are the optional collaborators of GenerationService. Nil fields are skipped.
type Dependencies struct {
	Tracer        *observability.Tracer
	SentryMetrics *metrics.SentryMetrics
	CloudWatch    *metrics.Client
	Usage         UsageRecorder
}

// GenerationService runs provider calls with rate limiting, tracing and usage logging.
// It implements session.Generator.
type GenerationService struct {
	provider llm.Provider
	model    string
	limiter  *rate.Limiter
	deps     Dependencies
}

var _ session.Generator = (*GenerationService)(nil)

// NewGenerationService creates a service for provider. model may be empty to use the
// provider default; ratePerMinute <= 0 uses the default limit.
func NewGenerationService(provider llm.Provider, model string, ratePerMinute int, deps Dependencies) *GenerationService {
	if ratePerMinute <= 0 {
		ratePerMinute = defaultRatePerMinute
	}
	return &GenerationService{
		provider: provider,
		model:    model,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), ratePerMinute),
		deps:     deps,
	}
}

// GenerateHairstyle performs one generation. Provider errors are returned unchanged so
// their message reaches the user as is.
func (s *GenerationService) GenerateHairstyle(ctx context.Context, request session.Request) (session.Outcome, error) {
	fields := logger.Fields{
		"request_id": logger.RequestIDFromContext(ctx),
		"session_id": request.SessionID,
		"mode":       request.Mode.String(),
	}

	if err := s.reserve(); err != nil {
		logger.Warn("Generation rate limited", fields)
		s.recordRateLimited(ctx, localLimiterName)
		return session.Outcome{}, err
	}

	trace := s.tracer().StartGeneration(ctx, observability.TraceAttributes{
		SessionID: request.SessionID,
		RequestID: logger.RequestIDFromContext(ctx),
		Mode:      request.Mode.String(),
		Provider:  s.provider.Name(),
		Model:     s.modelLabel(),
	}, imageInput(request))

	startTime := time.Now()
	resp, err := s.provider.GenerateHairstyle(ctx, &llm.HairstyleRequest{
		Model:          s.model,
		UserImage:      request.UserPhoto,
		Mode:           request.Mode,
		Prompt:         request.PromptText,
		ReferenceImage: request.ReferenceImage,
	})
	duration := time.Since(startTime)

	model := s.model
	var usage llm.Usage
	if resp != nil {
		model = resp.Model
		usage = resp.Usage
	}

	s.recordGeneration(ctx, request, model, duration, usage, err)

	outcome := observability.GenerationOutcome{
		Model:        model,
		Output:       imageOutput(resp),
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		Duration:     duration,
		Err:          err,
	}
	if err == nil {
		outcome.Images = 1
	}
	trace.End(outcome)

	if err != nil {
		if llm.IsRateLimitError(err) {
			s.recordRateLimited(ctx, s.provider.Name())
		}
		logger.Error("Generation failed", err, fields)
		return session.Outcome{}, err
	}

	return session.Outcome{ImageURL: resp.ImageURL, Description: resp.Description}, nil
}

// reserve takes a token or reports how long the caller should wait
func (s *GenerationService) reserve() error {
	reservation := s.limiter.Reserve()
	if !reservation.OK() {
		return &llm.RateLimitError{Provider: localLimiterName, Model: s.model, RetryAfter: time.Minute}
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return &llm.RateLimitError{
			RetryAfter: delay.Round(time.Second),
			Provider:   localLimiterName,
			Model:      s.modelLabel(),
			Err:        errors.New("too many generation requests"),
		}
	}
	return nil
}

func (s *GenerationService) modelLabel() string {
	if s.model != "" {
		return s.model
	}
	return s.provider.Name()
}

func (s *GenerationService) recordGeneration(ctx context.Context, request session.Request, model string, duration time.Duration, usage llm.Usage, genErr error) {
	success := genErr == nil
	mode := request.Mode.String()

	logger.LogGenerationRequest(ctx, s.provider.Name(), model, duration, success, logger.Fields{
		"request_id": logger.RequestIDFromContext(ctx),
		"session_id": request.SessionID,
		"mode":       mode,
	})

	if s.deps.SentryMetrics != nil {
		s.deps.SentryMetrics.RecordGenerationDuration(ctx, duration, success, mode)
		if usage.TotalTokens > 0 {
			s.deps.SentryMetrics.RecordTokenUsage(ctx, model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens)
		}
	}
	if s.deps.CloudWatch != nil {
		s.deps.CloudWatch.RecordGenerationDuration(duration, success, mode)
		s.deps.CloudWatch.RecordTokenUsage(model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens)
	}

	if s.deps.Usage == nil {
		return
	}
	entry := &models.GenerationLog{
		RequestID:    logger.RequestIDFromContext(ctx),
		SessionID:    request.SessionID,
		Provider:     s.provider.Name(),
		Model:        model,
		Mode:         mode,
		PromptLength: len(request.PromptText),
		HasReference: usesReference(request),
		Success:      success,
		TotalTokens:  usage.TotalTokens,
		DurationMS:   int(duration.Milliseconds()),
	}
	if genErr != nil {
		entry.ErrorMessage = genErr.Error()
	}
	if err := s.deps.Usage.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record generation usage", logger.Fields{"error": err.Error()})
	}
}

func (s *GenerationService) recordRateLimited(ctx context.Context, provider string) {
	if s.deps.SentryMetrics != nil {
		s.deps.SentryMetrics.RecordRateLimited(ctx, provider)
	}
	if s.deps.CloudWatch != nil {
		s.deps.CloudWatch.RecordRateLimited(provider)
	}
}

func (s *GenerationService) tracer() *observability.Tracer {
	if s.deps.Tracer != nil {
		return s.deps.Tracer
	}
	return observability.DefaultTracer()
}

// usesReference reports whether the provider receives the reference image
func usesReference(request session.Request) bool {
	return request.Mode == models.ModeReferenceImage && request.ReferenceImage != nil
}

func imageInput(request session.Request) map[string]interface{} {
	input := map[string]interface{}{
		"mode":            request.Mode.String(),
		"user_image_type": request.UserPhoto.MIMEType,
		"user_image_size": request.UserPhoto.Size(),
	}
	if request.Mode == models.ModeTextDescription {
		input["prompt"] = request.PromptText
	}
	if usesReference(request) {
		input["reference_image_type"] = request.ReferenceImage.MIMEType
		input["reference_image_size"] = request.ReferenceImage.Size()
	}
	return input
}

func imageOutput(resp *llm.HairstyleResponse) map[string]interface{} {
	if resp == nil {
		return nil
	}
	output := map[string]interface{}{
		"image_type": resp.Image.MIMEType,
		"image_size": resp.Image.Size(),
	}
	if resp.Description != "" {
		output["description"] = resp.Description
	}
	return output
}
