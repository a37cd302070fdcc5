package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records calls and answers with a fixed outcome
type fakeGenerator struct {
	calls    atomic.Int32
	mu       sync.Mutex
	requests []Request
	outcome  Outcome
	err      error
	release  chan struct{}
}

func (f *fakeGenerator) GenerateHairstyle(ctx context.Context, request Request) (Outcome, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, request)
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}
	return f.outcome, f.err
}

func waitAttempt(t *testing.T, attempt *Attempt) (*Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return attempt.Wait(ctx)
}

func TestController_ValidationPhotoRequired(t *testing.T) {
	modes := []models.GenerationMode{models.ModeReferenceImage, models.ModeTextDescription}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			gen := &fakeGenerator{}
			c := NewController("s1", gen, time.Second)
			c.SetMode(mode)
			c.SetReferenceImage(imageB())
			c.SetPromptText("red curly bob")

			attempt, err := c.Generate(context.Background())

			assert.Nil(t, attempt)
			assert.ErrorIs(t, err, ErrPhotoRequired)
			assert.Equal(t, MessagePhotoRequired, c.Snapshot().ErrorMessage)
			assert.Zero(t, gen.calls.Load())
		})
	}
}

func TestController_ValidationReferenceRequired(t *testing.T) {
	gen := &fakeGenerator{}
	c := NewController("s1", gen, time.Second)
	c.SetUserPhoto(imageA())

	_, err := c.Generate(context.Background())

	assert.ErrorIs(t, err, ErrReferenceRequired)
	assert.Equal(t, MessageReferenceRequired, c.Snapshot().ErrorMessage)
	assert.Zero(t, gen.calls.Load())
}

func TestController_ValidationDescription(t *testing.T) {
	tests := []struct {
		prompt  string
		wantErr bool
	}{
		{prompt: "", wantErr: true},
		{prompt: "   ", wantErr: true},
		{prompt: "red curly bob", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			gen := &fakeGenerator{outcome: Outcome{ImageURL: "url"}}
			c := NewController("s1", gen, time.Second)
			c.SetUserPhoto(imageA())
			c.SetMode(models.ModeTextDescription)
			c.SetPromptText(tt.prompt)

			attempt, err := c.Generate(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDescriptionRequired)
				assert.True(t, IsValidationError(err))
				assert.Equal(t, MessageDescriptionRequired, c.Snapshot().ErrorMessage)
				assert.Zero(t, gen.calls.Load())
			} else {
				require.NoError(t, err)
				_, err = waitAttempt(t, attempt)
				assert.NoError(t, err)
			}
		})
	}
}

func TestController_ValidationClearsStaleResult(t *testing.T) {
	gen := &fakeGenerator{outcome: Outcome{ImageURL: "data:image/png;base64,RESULT"}}
	c := NewController("s1", gen, time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)
	_, err = waitAttempt(t, attempt)
	require.NoError(t, err)

	c.SetReferenceImage(nil)
	require.NotNil(t, c.Snapshot().Result)

	_, err = c.Generate(context.Background())
	require.ErrorIs(t, err, ErrReferenceRequired)

	snap := c.Snapshot()
	assert.Nil(t, snap.Result)
	assert.Equal(t, MessageReferenceRequired, snap.ErrorMessage)
}

func TestController_GenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{outcome: Outcome{ImageURL: "data:image/png;base64,RESULT"}}
	c := NewController("s1", gen, time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)

	result, err := waitAttempt(t, attempt)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,RESULT", result.ImageURL)

	snap := c.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, "data:image/png;base64,RESULT", snap.Result.ImageURL)
	assert.False(t, snap.IsGenerating)
	assert.Empty(t, snap.ErrorMessage)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "s1", gen.requests[0].SessionID)
	assert.Equal(t, *imageA(), gen.requests[0].UserPhoto)
	assert.Equal(t, imageB(), gen.requests[0].ReferenceImage)
}

func TestController_GenerateFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	c := NewController("s1", gen, time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)

	_, err = waitAttempt(t, attempt)
	assert.EqualError(t, err, "quota exceeded")

	snap := c.Snapshot()
	assert.Equal(t, "quota exceeded", snap.ErrorMessage)
	assert.Nil(t, snap.Result)
	assert.False(t, snap.IsGenerating)
}

func TestController_RequestCarriesInputsAsEntered(t *testing.T) {
	gen := &fakeGenerator{outcome: Outcome{ImageURL: "url"}}
	c := NewController("s1", gen, time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())
	c.SetMode(models.ModeTextDescription)
	c.SetPromptText("  red curly bob ")

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)
	_, err = waitAttempt(t, attempt)
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, imageB(), gen.requests[0].ReferenceImage)
	assert.Equal(t, "  red curly bob ", gen.requests[0].PromptText)
	assert.Equal(t, models.ModeTextDescription, gen.requests[0].Mode)
}

func TestController_RejectsReentrantGenerate(t *testing.T) {
	gen := &fakeGenerator{outcome: Outcome{ImageURL: "url"}, release: make(chan struct{})}
	c := NewController("s1", gen, 5*time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.True(t, snap.IsGenerating)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.ErrorMessage)

	c.SetReferenceImage(nil)
	second, err := c.Generate(context.Background())
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	snap = c.Snapshot()
	assert.True(t, snap.IsGenerating)
	assert.Empty(t, snap.ErrorMessage)

	close(gen.release)
	_, err = waitAttempt(t, attempt)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestController_GenerateOutlivesRequestContext(t *testing.T) {
	gen := &fakeGenerator{outcome: Outcome{ImageURL: "url"}, release: make(chan struct{})}
	c := NewController("s1", gen, 5*time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	ctx, cancel := context.WithCancel(context.Background())
	attempt, err := c.Generate(ctx)
	require.NoError(t, err)
	cancel()

	close(gen.release)
	_, err = waitAttempt(t, attempt)
	assert.NoError(t, err)
}

func TestController_CallerContextCancelsGeneration(t *testing.T) {
	gen := &fakeGenerator{outcome: Outcome{ImageURL: "url"}, release: make(chan struct{})}
	defer close(gen.release)
	c := NewController("s1", gen, 5*time.Second, WithCallerContext())
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	ctx, cancel := context.WithCancel(context.Background())
	attempt, err := c.Generate(ctx)
	require.NoError(t, err)
	cancel()

	_, err = waitAttempt(t, attempt)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Snapshot().IsGenerating)
}

func TestController_TimeoutFailsAttempt(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	c := NewController("s1", gen, 20*time.Millisecond)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)

	_, err = waitAttempt(t, attempt)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, c.Snapshot().ErrorMessage)
}

func TestController_PanicFailsAttempt(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, Request) (Outcome, error) {
		panic("boom")
	})
	c := NewController("s1", gen, time.Second)
	c.SetUserPhoto(imageA())
	c.SetReferenceImage(imageB())

	attempt, err := c.Generate(context.Background())
	require.NoError(t, err)

	_, err = waitAttempt(t, attempt)
	require.Error(t, err)
	assert.False(t, c.Snapshot().IsGenerating)
}

func TestAttempt_WaitContext(t *testing.T) {
	a := newAttempt()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	a.resolve(&Result{ImageURL: "x"}, nil)
	a.resolve(nil, errors.New("ignored"))
	<-a.Done()
	result, err := a.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", result.ImageURL)
}
