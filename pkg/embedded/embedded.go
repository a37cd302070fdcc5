package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/prompts/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/prompts/reference_image_instructions.txt
var ReferenceImageInstructionsTxt []byte

//go:embed data/prompts/text_description_instructions.txt
var TextDescriptionInstructionsTxt []byte

//go:embed data/prompts/preservation_rules.txt
var PreservationRulesTxt []byte
