package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/llm"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/logger"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"github.com/gin-gonic/gin"
)

// requestBodySlack covers the JSON framing, data URL prefixes and the prompt
const requestBodySlack = 64 * 1024

// GenerationHandler serves the stateless JSON generation endpoint
type GenerationHandler struct {
	generator     session.Generator
	timeout       time.Duration
	maxImageBytes int64
}

// NewGenerationHandler creates the handler. maxImageBytes caps each decoded image; a
// non-positive value uses media.DefaultMaxUploadBytes.
func NewGenerationHandler(generator session.Generator, timeout time.Duration, maxImageBytes int64) *GenerationHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = media.DefaultMaxUploadBytes
	}
	return &GenerationHandler{generator: generator, timeout: timeout, maxImageBytes: maxImageBytes}
}

// maxBodyBytes fits two base64 images of the maximum size
func (h *GenerationHandler) maxBodyBytes() int64 {
	return 2*int64(base64.StdEncoding.EncodedLen(int(h.maxImageBytes))) + requestBodySlack
}

// GenerateRequest carries all inputs as data URLs
type GenerateRequest struct {
	UserImage      string `json:"user_image"`
	Mode           string `json:"mode"`
	Prompt         string `json:"prompt"`
	ReferenceImage string `json:"reference_image"`
}

// GenerateResponse is returned on success
type GenerateResponse struct {
	RequestID   string `json:"request_id"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description,omitempty"`
}

// Generate runs one generation on a fresh session state with the same validation as the page
func (h *GenerationHandler) Generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes())

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := models.DefaultGenerationMode
	if req.Mode != "" {
		parsed, err := models.ParseGenerationMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mode = parsed
	}

	userImage, err := h.parseOptionalImage(req.UserImage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid user_image: %v", err)})
		return
	}
	referenceImage, err := h.parseOptionalImage(req.ReferenceImage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid reference_image: %v", err)})
		return
	}

	requestID := c.GetString("request_id")
	controller := session.NewController(requestID, h.generator, h.timeout, session.WithCallerContext())
	controller.SetUserPhoto(userImage)
	controller.SetReferenceImage(referenceImage)
	controller.SetPromptText(req.Prompt)
	controller.SetMode(mode)

	attempt, err := controller.Generate(c.Request.Context())
	if err != nil {
		var vErr *session.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      vErr.Message,
				"code":       vErr.Code,
				"request_id": requestID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	result, err := attempt.Wait(c.Request.Context())
	if err != nil {
		h.writeGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		RequestID:   requestID,
		ImageURL:    result.ImageURL,
		Description: result.Description,
	})
}

func (h *GenerationHandler) writeGenerationError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	fields := logger.WithContext(c)

	var rlErr *llm.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		retryAfter := int(math.Ceil(rlErr.RetryAfter.Seconds()))
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       err.Error(),
			"retry_after": retryAfter,
			"request_id":  requestID,
		})
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Generation timed out", fields)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "generation timed out", "request_id": requestID})
	case errors.Is(err, context.Canceled):
		logger.Info("Client went away during generation", fields)
		c.Status(http.StatusRequestTimeout)
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "request_id": requestID})
	}
}

func (h *GenerationHandler) parseOptionalImage(dataURL string) (*media.InlineImage, error) {
	if dataURL == "" {
		return nil, nil
	}
	img, err := media.ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if int64(img.Size()) > h.maxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", img.Size(), h.maxImageBytes)
	}
	return &img, nil
}
