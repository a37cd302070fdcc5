package observability

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/config"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

const (
	generationTraceName = "hairstyle_generation"
	levelError          = "ERROR"
)

// Tracer sends one Langfuse trace per hairstyle generation. A Tracer without a client
// records nothing.
type Tracer struct {
	client *langfuse.Langfuse
}

var defaultTracer = &Tracer{}

// InitializeLangfuse builds the process-wide tracer. The SDK reads LANGFUSE_PUBLIC_KEY,
// LANGFUSE_SECRET_KEY and LANGFUSE_HOST from the environment.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *Tracer {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" || cfg.LangfusePublicKey == "" {
		log.Println("⚠️  Langfuse tracing disabled (set LANGFUSE_ENABLED and both keys to enable)")
		defaultTracer = &Tracer{}
		return defaultTracer
	}

	defaultTracer = &Tracer{client: langfuse.New(ctx)}
	log.Printf("✅ Langfuse tracing enabled (host: %s)", cfg.LangfuseHost)
	return defaultTracer
}

// DefaultTracer returns the tracer built by InitializeLangfuse, or a disabled one
func DefaultTracer() *Tracer {
	return defaultTracer
}

// IsEnabled reports whether traces are sent
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.client != nil
}

// TraceAttributes identify the generation a trace belongs to
type TraceAttributes struct {
	SessionID string
	RequestID string
	Mode      string
	Provider  string
	Model     string
}

func (a TraceAttributes) metadata() map[string]interface{} {
	return map[string]interface{}{
		"session_id": a.SessionID,
		"request_id": a.RequestID,
		"mode":       a.Mode,
		"provider":   a.Provider,
	}
}

// GenerationOutcome is what a finished generation reports to its trace
type GenerationOutcome struct {
	Model        string
	Output       map[string]interface{}
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Images       int
	Duration     time.Duration
	Err          error
}

// GenerationTrace is a trace holding a single image generation observation
type GenerationTrace struct {
	ctx        context.Context
	client     *langfuse.Langfuse
	trace      *model.Trace
	generation *model.Generation
}

// StartGeneration opens a trace and its generation observation. input describes the
// images by type and size only.
func (t *Tracer) StartGeneration(ctx context.Context, attrs TraceAttributes, input map[string]interface{}) *GenerationTrace {
	if !t.IsEnabled() {
		return &GenerationTrace{ctx: ctx}
	}

	trace, err := t.client.Trace(&model.Trace{
		Name:     generationTraceName,
		Metadata: attrs.metadata(),
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &GenerationTrace{ctx: ctx}
	}

	now := time.Now()
	generation, err := t.client.Generation(&model.Generation{
		TraceID:   trace.ID,
		Name:      attrs.Provider + ".generate_hairstyle",
		StartTime: &now,
		Model:     attrs.Model,
		Input:     input,
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation for trace %s: %v", trace.ID, err)
		generation = nil
	}

	return &GenerationTrace{ctx: ctx, client: t.client, trace: trace, generation: generation}
}

// SetMetadata merges values into the trace metadata and re-sends the trace
func (g *GenerationTrace) SetMetadata(values map[string]interface{}) {
	if g.client == nil || g.trace == nil {
		return
	}
	md, ok := g.trace.Metadata.(map[string]interface{})
	if !ok {
		md = make(map[string]interface{}, len(values))
	}
	for k, v := range values {
		md[k] = v
	}
	g.trace.Metadata = md

	if _, err := g.client.Trace(g.trace); err != nil {
		log.Printf("⚠️  Failed to update Langfuse trace %s: %v", g.trace.ID, err)
	}
}

// End closes the generation with its cost and outcome, then flushes the trace.
// It returns the computed cost in USD.
func (g *GenerationTrace) End(outcome GenerationOutcome) float64 {
	cost := CalculateImageCost(outcome.Model, outcome.InputTokens, outcome.Images)
	if g.client == nil {
		return cost
	}

	if g.generation != nil {
		now := time.Now()
		g.generation.EndTime = &now
		g.generation.Model = outcome.Model
		if len(outcome.Output) > 0 {
			g.generation.Output = outcome.Output
		}
		g.generation.Usage = model.Usage{
			Input:     outcome.InputTokens,
			Output:    outcome.OutputTokens,
			Total:     outcome.TotalTokens,
			Unit:      model.ModelUsageUnitTokens,
			TotalCost: cost,
		}
		g.generation.Metadata = map[string]interface{}{
			"cost_usd":    cost,
			"duration_ms": outcome.Duration.Milliseconds(),
			"images":      outcome.Images,
		}
		if outcome.Err != nil {
			g.generation.Level = model.ObservationLevel(levelError)
		}
		if _, err := g.client.GenerationEnd(g.generation); err != nil {
			log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
		}
	}

	status := map[string]interface{}{"success": outcome.Err == nil, "cost_usd": cost}
	if outcome.Err != nil {
		status["error"] = outcome.Err.Error()
	}
	g.SetMetadata(status)

	g.client.Flush(g.ctx)
	return cost
}
