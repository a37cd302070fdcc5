package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ImageInfo describes an uploaded image without its payload
type ImageInfo struct {
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// SessionResponse is the JSON view of the caller's session state
type SessionResponse struct {
	SessionID      string     `json:"session_id"`
	Mode           string     `json:"mode"`
	PromptText     string     `json:"prompt_text"`
	UserPhoto      *ImageInfo `json:"user_photo"`
	ReferenceImage *ImageInfo `json:"reference_image"`
	IsGenerating   bool       `json:"is_generating"`
	HasResult      bool       `json:"has_result"`
	Description    string     `json:"description,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// GetSession returns a snapshot of the caller's session
func GetSession(c *gin.Context) {
	controller, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return
	}

	snap := controller.Snapshot()
	resp := SessionResponse{
		SessionID:      controller.ID(),
		Mode:           snap.Mode.String(),
		PromptText:     snap.PromptText,
		UserPhoto:      imageInfo(snap.UserPhoto),
		ReferenceImage: imageInfo(snap.ReferenceImage),
		IsGenerating:   snap.IsGenerating,
		HasResult:      snap.HasResult(),
		ErrorMessage:   snap.ErrorMessage,
	}
	if snap.Result != nil {
		resp.Description = snap.Result.Description
	}

	c.JSON(http.StatusOK, resp)
}

func imageInfo(img *media.InlineImage) *ImageInfo {
	if img == nil {
		return nil
	}
	return &ImageInfo{MIMEType: img.MIMEType, Size: img.Size()}
}
