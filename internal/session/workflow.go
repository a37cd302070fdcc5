package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
)

// DefaultGenerationTimeout bounds a single generation call
const DefaultGenerationTimeout = 2 * time.Minute

// Request is what the Generator receives for one attempt
type Request struct {
	SessionID      string
	UserPhoto      media.InlineImage
	Mode           models.GenerationMode
	PromptText     string
	ReferenceImage *media.InlineImage // nil when no reference is uploaded
}

// Outcome is a successful generation
type Outcome struct {
	ImageURL    string
	Description string
}

// Generator performs the remote generation call
type Generator interface {
	GenerateHairstyle(ctx context.Context, request Request) (Outcome, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, request Request) (Outcome, error)

// GenerateHairstyle calls f(ctx, request)
func (f GeneratorFunc) GenerateHairstyle(ctx context.Context, request Request) (Outcome, error) {
	return f(ctx, request)
}

// Controller owns one State and runs the generation workflow against it
type Controller struct {
	id          string
	generator   Generator
	timeout     time.Duration
	callerBound bool

	mu    sync.Mutex
	state *State
}

// Option configures a Controller
type Option func(*Controller)

// WithCallerContext ties each generation call to the context passed to Generate, so the
// call is cancelled when the caller goes away. By default the call outlives it.
func WithCallerContext() Option {
	return func(c *Controller) {
		c.callerBound = true
	}
}

// NewController creates a controller with an empty state
func NewController(id string, generator Generator, timeout time.Duration, opts ...Option) *Controller {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	c := &Controller{
		id:        id,
		generator: generator,
		timeout:   timeout,
		state:     NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// SetUserPhoto replaces or removes (nil) the user's photo
func (c *Controller) SetUserPhoto(img *media.InlineImage) {
	c.update(func(s *State) { s.SetUserPhoto(img) })
}

// SetReferenceImage replaces or removes (nil) the hairstyle reference
func (c *Controller) SetReferenceImage(img *media.InlineImage) {
	c.update(func(s *State) { s.SetReferenceImage(img) })
}

// SetPromptText stores the hairstyle description
func (c *Controller) SetPromptText(text string) {
	c.update(func(s *State) { s.SetPromptText(text) })
}

// SetMode switches between reference image and text description
func (c *Controller) SetMode(mode models.GenerationMode) {
	c.update(func(s *State) { s.SetMode(mode) })
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

// validateLocked records the first failing input check as the error. Callers must hold
// c.mu and must not be generating.
func (c *Controller) validateLocked() error {
	if vErr := validate(c.state); vErr != nil {
		c.state.failValidation(vErr)
		return vErr
	}
	return nil
}

func validate(s *State) *ValidationError {
	if s.UserPhoto == nil {
		return ErrPhotoRequired
	}
	switch s.Mode {
	case models.ModeTextDescription:
		if strings.TrimSpace(s.PromptText) == "" {
			return ErrDescriptionRequired
		}
	default:
		if s.ReferenceImage == nil {
			return ErrReferenceRequired
		}
	}
	return nil
}

// Generate validates the inputs and starts the generation call in the background.
// The returned Attempt resolves once the state holds the result or the error.
func (c *Controller) Generate(ctx context.Context) (*Attempt, error) {
	c.mu.Lock()
	if c.state.IsGenerating {
		c.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	request := c.buildRequestLocked()
	c.state.StartGeneration()
	attempt := newAttempt()
	c.mu.Unlock()

	parent := ctx
	if !c.callerBound {
		// The call outlives the HTTP request that started it
		parent = context.WithoutCancel(ctx)
	}
	runCtx, cancel := context.WithTimeout(parent, c.timeout)
	go func() {
		defer cancel()
		c.run(runCtx, request, attempt)
	}()

	return attempt, nil
}

// buildRequestLocked passes the inputs through as entered. Providers use the reference
// only in reference mode.
func (c *Controller) buildRequestLocked() Request {
	return Request{
		SessionID:      c.id,
		UserPhoto:      c.state.UserPhoto.Clone(),
		Mode:           c.state.Mode,
		PromptText:     c.state.PromptText,
		ReferenceImage: cloneImage(c.state.ReferenceImage),
	}
}

func (c *Controller) run(ctx context.Context, request Request, attempt *Attempt) {
	var outcome Outcome
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ Generation panicked for session %s: %v", c.id, r)
				err = fmt.Errorf("generation panicked: %v", r)
			}
		}()
		outcome, err = c.generator.GenerateHairstyle(ctx, request)
	}()

	c.mu.Lock()
	if err != nil {
		c.state.FailGeneration(err.Error())
		attempt.resolve(nil, err)
	} else {
		c.state.CompleteGenerationWithDescription(outcome.ImageURL, outcome.Description)
		attempt.resolve(&Result{ImageURL: outcome.ImageURL, Description: outcome.Description}, nil)
	}
	c.mu.Unlock()
}

// Attempt is a single generation call that resolves exactly once
type Attempt struct {
	done   chan struct{}
	once   sync.Once
	result *Result
	err    error
}

func newAttempt() *Attempt {
	return &Attempt{done: make(chan struct{})}
}

func (a *Attempt) resolve(result *Result, err error) {
	a.once.Do(func() {
		a.result = result
		a.err = err
		close(a.done)
	})
}

// Done is closed when the attempt has resolved
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the attempt resolves or ctx is done
func (a *Attempt) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-a.done:
		return a.result, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
