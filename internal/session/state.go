package session

import (
	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
)

// Result is the outcome of a successful generation
type Result struct {
	ImageURL    string
	Description string
}

// State is the single source of truth for one user's workflow.
// After the first attempt at most one of Result and ErrorMessage is set.
// State is not safe for concurrent use; Controller serialises access.
type State struct {
	UserPhoto      *media.InlineImage
	ReferenceImage *media.InlineImage
	PromptText     string
	Mode           models.GenerationMode
	IsGenerating   bool
	Result         *Result
	ErrorMessage   string
}

// NewState returns an empty state in the default mode
func NewState() *State {
	return &State{Mode: models.DefaultGenerationMode}
}

// SetUserPhoto replaces or clears (nil) the user's photo
func (s *State) SetUserPhoto(img *media.InlineImage) {
	s.UserPhoto = cloneImage(img)
	s.ErrorMessage = ""
}

// SetReferenceImage replaces or clears (nil) the hairstyle reference
func (s *State) SetReferenceImage(img *media.InlineImage) {
	s.ReferenceImage = cloneImage(img)
	s.ErrorMessage = ""
}

// SetPromptText stores the description as typed
func (s *State) SetPromptText(text string) {
	s.PromptText = text
	s.ErrorMessage = ""
}

// SetMode switches the input mode. Inputs of the other mode are kept.
func (s *State) SetMode(mode models.GenerationMode) {
	s.Mode = mode
	s.ErrorMessage = ""
}

// StartGeneration enters the in-flight state and clears the previous outcome
func (s *State) StartGeneration() {
	s.IsGenerating = true
	s.Result = nil
	s.ErrorMessage = ""
}

// CompleteGeneration stores the generated image
func (s *State) CompleteGeneration(imageURL string) {
	s.CompleteGenerationWithDescription(imageURL, "")
}

// CompleteGenerationWithDescription stores the generated image and the model's text
func (s *State) CompleteGenerationWithDescription(imageURL, description string) {
	s.IsGenerating = false
	s.Result = &Result{ImageURL: imageURL, Description: description}
	s.ErrorMessage = ""
}

// FailGeneration stores the failure message, or the generic fallback when empty
func (s *State) FailGeneration(message string) {
	if message == "" {
		message = FallbackErrorMessage
	}
	s.IsGenerating = false
	s.Result = nil
	s.ErrorMessage = message
}

// failValidation stores a validation message and drops any stale result
func (s *State) failValidation(err *ValidationError) {
	s.Result = nil
	s.ErrorMessage = err.Message
}

// HasResult reports whether a generated image is available
func (s *State) HasResult() bool {
	return s.Result != nil && s.Result.ImageURL != ""
}

// Snapshot returns a copy that can be rendered without holding the controller lock
func (s *State) Snapshot() State {
	snap := *s
	snap.UserPhoto = cloneImage(s.UserPhoto)
	snap.ReferenceImage = cloneImage(s.ReferenceImage)
	if s.Result != nil {
		r := *s.Result
		snap.Result = &r
	}
	return snap
}

func cloneImage(img *media.InlineImage) *media.InlineImage {
	if img == nil {
		return nil
	}
	c := img.Clone()
	return &c
}
