package llm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoImage is returned when the model answered without image data
	ErrNoImage = errors.New("the model did not return an image")
	// ErrMissingUserImage is returned when a request has no user photo
	ErrMissingUserImage = errors.New("a photo of the user is required")
	// ErrMissingReference is returned when reference mode has no reference image
	ErrMissingReference = errors.New("a hairstyle reference photo is required")
)

// RateLimitError is returned when a provider or the local limiter rejects a call
type RateLimitError struct {
	RetryAfter time.Duration
	Provider   string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, please try again in %v", e.Model, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// BlockedError is returned when the provider refused to produce an image
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("image generation was blocked (reason: %s)", e.Reason)
}

func validateRequest(request *HairstyleRequest) error {
	if request == nil || len(request.UserImage.Data) == 0 {
		return ErrMissingUserImage
	}
	return nil
}
