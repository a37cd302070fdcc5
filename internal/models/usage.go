package models

import "time"

// GenerationLog records one call to the generation client.
// Image data is never stored.
type GenerationLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	RequestID    string    `gorm:"index" json:"request_id"`
	SessionID    string    `gorm:"index" json:"session_id"`
	Provider     string    `gorm:"not null" json:"provider"`
	Model        string    `gorm:"not null" json:"model"`
	Mode         string    `gorm:"not null" json:"mode"`
	PromptLength int       `gorm:"default:0" json:"prompt_length"`
	HasReference bool      `gorm:"default:false" json:"has_reference"`
	Success      bool      `gorm:"default:false;index" json:"success"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	TotalTokens  int       `gorm:"default:0" json:"total_tokens"`
	DurationMS   int       `gorm:"not null" json:"duration_ms"`
}
