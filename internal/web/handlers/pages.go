package handlers

import (
	"errors"
	"html/template"
	"mime/multipart"
	"net/http"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/logger"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/middleware"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

const (
	uploadField  = "file"
	bytesPerMB   = 1024 * 1024
	htmxRefresh  = "HX-Refresh"
	pollQueryKey = "poll"
)

type WebHandler struct {
	loader *media.Loader
}

func NewWebHandler(loader *media.Loader) *WebHandler {
	return &WebHandler{loader: loader}
}

// Home renders the page for the caller's session
func (h *WebHandler) Home(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}
	h.render(c, templates.Home(h.pageData(controller.Snapshot())))
}

// ResultPanel renders the result partial. A poll that sees the generation finished asks
// htmx to reload the page so the button and inputs refresh too.
func (h *WebHandler) ResultPanel(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}

	snap := controller.Snapshot()
	if c.Query(pollQueryKey) != "" && !snap.IsGenerating {
		c.Header(htmxRefresh, "true")
	}
	h.render(c, templates.ResultPanel(h.pageData(snap)))
}

// UploadUserPhoto replaces the user's photo with the uploaded file
func (h *WebHandler) UploadUserPhoto(c *gin.Context) {
	h.upload(c, (*session.Controller).SetUserPhoto)
}

// RemoveUserPhoto clears the user's photo
func (h *WebHandler) RemoveUserPhoto(c *gin.Context) {
	h.withController(c, func(controller *session.Controller) {
		controller.SetUserPhoto(nil)
	})
}

// UploadReference replaces the hairstyle reference with the uploaded file
func (h *WebHandler) UploadReference(c *gin.Context) {
	h.upload(c, (*session.Controller).SetReferenceImage)
}

// RemoveReference clears the hairstyle reference
func (h *WebHandler) RemoveReference(c *gin.Context) {
	h.withController(c, func(controller *session.Controller) {
		controller.SetReferenceImage(nil)
	})
}

// SetPrompt stores the hairstyle description
func (h *WebHandler) SetPrompt(c *gin.Context) {
	h.withController(c, func(controller *session.Controller) {
		controller.SetPromptText(c.PostForm("prompt"))
	})
}

// SetMode switches between reference image and text description
func (h *WebHandler) SetMode(c *gin.Context) {
	h.withController(c, func(controller *session.Controller) {
		mode, err := models.ParseGenerationMode(c.PostForm("mode"))
		if err != nil {
			logger.Warn("Ignoring invalid mode", logger.WithContext(c))
			return
		}
		controller.SetMode(mode)
	})
}

// Generate starts a generation. The description textarea posts with this form so the
// latest text is saved first. Validation errors are stored on the session and shown
// after the redirect.
func (h *WebHandler) Generate(c *gin.Context) {
	h.withController(c, func(controller *session.Controller) {
		if prompt, ok := c.GetPostForm("prompt"); ok {
			controller.SetPromptText(prompt)
		}
		_, err := controller.Generate(c.Request.Context())
		switch {
		case err == nil:
			logger.Info("Generation started", logger.WithContext(c))
		case errors.Is(err, session.ErrGenerationInFlight):
			logger.Debug("Generation already in progress", logger.WithContext(c))
		case session.IsValidationError(err):
			logger.Debug("Generation rejected: "+err.Error(), logger.WithContext(c))
		default:
			logger.Error("Failed to start generation", err, logger.WithContext(c))
		}
	})
}

// DownloadResult serves the generated image as an attachment
func (h *WebHandler) DownloadResult(c *gin.Context) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}

	snap := controller.Snapshot()
	if !snap.HasResult() {
		c.String(http.StatusNotFound, "No generated image yet")
		return
	}

	img, err := media.ParseDataURL(snap.Result.ImageURL)
	if err != nil {
		// Providers may return a remote URL instead of inline data
		c.Redirect(http.StatusFound, snap.Result.ImageURL)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+templates.DownloadFilename+`"`)
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}

// upload loads the form file into the slot. Unreadable uploads are dropped without a
// user-visible error.
func (h *WebHandler) upload(c *gin.Context, set func(*session.Controller, *media.InlineImage)) {
	h.withController(c, func(controller *session.Controller) {
		img, err := h.readUpload(c)
		if err != nil {
			logger.Warn("Ignoring unreadable upload: "+err.Error(), logger.WithContext(c))
			return
		}
		set(controller, &img)
	})
}

func (h *WebHandler) readUpload(c *gin.Context) (media.InlineImage, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.loader.MaxBytes()+bytesPerMB)

	header, err := c.FormFile(uploadField)
	if err != nil {
		return media.InlineImage{}, err
	}
	file, err := header.Open()
	if err != nil {
		return media.InlineImage{}, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	result := <-h.loader.LoadAsync(c.Request.Context(), file)
	return result.Image, result.Err
}

func (h *WebHandler) withController(c *gin.Context, fn func(*session.Controller)) {
	controller, ok := h.controller(c)
	if !ok {
		return
	}
	fn(controller)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) controller(c *gin.Context) (*session.Controller, bool) {
	controller, ok := middleware.GetSession(c)
	if !ok {
		c.String(http.StatusInternalServerError, "Session unavailable")
		return nil, false
	}
	return controller, true
}

func (h *WebHandler) render(c *gin.Context, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render template", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render template"})
	}
}

func (h *WebHandler) pageData(snap session.State) templates.PageData {
	data := templates.PageData{
		PromptText:   snap.PromptText,
		Mode:         snap.Mode.String(),
		IsTextMode:   snap.Mode == models.ModeTextDescription,
		IsGenerating: snap.IsGenerating,
		ErrorMessage: snap.ErrorMessage,
		MaxUploadMB:  h.loader.MaxBytes() / bytesPerMB,
		DownloadName: templates.DownloadFilename,

		ReferenceMode:    models.ModeReferenceImage.String(),
		ReferenceLabel:   models.ModeReferenceImage.Label(),
		DescriptionMode:  models.ModeTextDescription.String(),
		DescriptionLabel: models.ModeTextDescription.Label(),
	}
	if snap.UserPhoto != nil {
		data.HasUserPhoto = true
		data.UserPhotoURL = safeURL(snap.UserPhoto.DataURL())
	}
	if snap.ReferenceImage != nil {
		data.HasReference = true
		data.ReferenceURL = safeURL(snap.ReferenceImage.DataURL())
	}
	if snap.HasResult() {
		data.HasResult = true
		data.ResultURL = safeURL(snap.Result.ImageURL)
		data.Description = snap.Result.Description
	}
	return data
}

// safeURL marks URLs produced by this server as trusted for src attributes
func safeURL(u string) template.URL {
	return template.URL(u) // #nosec G203 -- data URLs built from uploads or provider output
}
