package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
)

const descriptionPlaceholder = "{{description}}"

// Builder builds the instruction sent to the image model alongside the photos
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// BuildSystemPrompt returns the system instruction for image models that accept one
func (b *Builder) BuildSystemPrompt() (string, error) {
	return b.loader.GetSystemPrompt()
}

// BuildInstruction builds the user instruction for the given mode.
// description is only used in text description mode.
func (b *Builder) BuildInstruction(mode models.GenerationMode, description string) (string, error) {
	var modeInstructions string
	var err error

	switch mode {
	case models.ModeReferenceImage:
		modeInstructions, err = b.loader.GetReferenceImageInstructions()
	case models.ModeTextDescription:
		description = strings.TrimSpace(description)
		if description == "" {
			return "", fmt.Errorf("description is required in %s mode", mode)
		}
		modeInstructions, err = b.loader.GetTextDescriptionInstructions()
		modeInstructions = strings.ReplaceAll(modeInstructions, descriptionPlaceholder, description)
	default:
		return "", fmt.Errorf("unsupported generation mode: %q", mode)
	}
	if err != nil {
		return "", err
	}

	rules, err := b.loader.GetPreservationRules()
	if err != nil {
		return "", err
	}

	return strings.Join([]string{modeInstructions, rules}, "\n\n"), nil
}

// BuildFullPrompt joins the system prompt and the instruction for models without a
// separate system channel
func (b *Builder) BuildFullPrompt(mode models.GenerationMode, description string) (string, error) {
	system, err := b.BuildSystemPrompt()
	if err != nil {
		return "", err
	}
	instruction, err := b.BuildInstruction(mode, description)
	if err != nil {
		return "", err
	}
	return system + "\n\n" + instruction, nil
}
