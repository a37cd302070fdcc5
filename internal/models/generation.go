package models

import (
	"fmt"
	"strings"
)

// GenerationMode selects which input describes the target hairstyle
type GenerationMode string

const (
	// ModeReferenceImage transfers the hairstyle from a reference photo
	ModeReferenceImage GenerationMode = "REFERENCE_IMAGE"
	// ModeTextDescription applies a hairstyle described in free text
	ModeTextDescription GenerationMode = "TEXT_DESCRIPTION"

	// DefaultGenerationMode is the mode a new session starts in
	DefaultGenerationMode = ModeReferenceImage
)

// ParseGenerationMode accepts the canonical names plus the short forms used by the form toggle
func ParseGenerationMode(s string) (GenerationMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ModeReferenceImage), "IMAGE", "REFERENCE":
		return ModeReferenceImage, nil
	case string(ModeTextDescription), "TEXT", "DESCRIPTION":
		return ModeTextDescription, nil
	default:
		return "", fmt.Errorf("unknown generation mode: %q (allowed: %s, %s)", s, ModeReferenceImage, ModeTextDescription)
	}
}

// String returns the canonical mode name
func (m GenerationMode) String() string {
	return string(m)
}

// Label returns the name shown on the mode toggle
func (m GenerationMode) Label() string {
	if m == ModeTextDescription {
		return "Description"
	}
	return "Reference"
}
