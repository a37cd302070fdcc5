package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/hairstyle-ai/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetReferenceImageInstructions loads the instructions for reference photo mode
func (l *Loader) GetReferenceImageInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.ReferenceImageInstructionsTxt)), nil
}

// GetTextDescriptionInstructions loads the instructions for description mode.
// The text contains a {{description}} placeholder.
func (l *Loader) GetTextDescriptionInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.TextDescriptionInstructionsTxt)), nil
}

// GetPreservationRules loads the identity preservation rules shared by both modes
func (l *Loader) GetPreservationRules() (string, error) {
	return strings.TrimSpace(string(embedded.PreservationRulesTxt)), nil
}
