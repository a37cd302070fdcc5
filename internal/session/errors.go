package session

import "errors"

// Validation messages shown to the user
const (
	MessagePhotoRequired       = "Please upload your photo first."
	MessageReferenceRequired   = "Please upload a hairstyle reference photo."
	MessageDescriptionRequired = "Please describe the hairstyle you want."

	// FallbackErrorMessage is shown when a generation failure carries no message
	FallbackErrorMessage = "Something went wrong during generation. Please try again."
)

// ValidationError reports a missing input detected before any generation call
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches validation errors by code so sentinels work with errors.Is
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

var (
	ErrPhotoRequired       = &ValidationError{Code: "photo_required", Message: MessagePhotoRequired}
	ErrReferenceRequired   = &ValidationError{Code: "reference_required", Message: MessageReferenceRequired}
	ErrDescriptionRequired = &ValidationError{Code: "description_required", Message: MessageDescriptionRequired}

	// ErrGenerationInFlight is returned when Generate is called while an attempt is running
	ErrGenerationInFlight = errors.New("a generation is already in progress")
)

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
