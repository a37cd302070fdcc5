package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes bounds a single upload (25MB)
const DefaultMaxUploadBytes int64 = 25 * 1024 * 1024

var (
	// ErrEmptyUpload is returned when the selected file has no content
	ErrEmptyUpload = errors.New("uploaded file is empty")
	// ErrUploadTooLarge is returned when the selected file exceeds the loader limit
	ErrUploadTooLarge = errors.New("uploaded file exceeds maximum size")
)

// LoadResult is the single resolution of an asynchronous load
type LoadResult struct {
	Image InlineImage
	Err   error
}

// Loader reads a user-selected file into an inline image.
// The content type is detected from the bytes; it is not validated.
type Loader struct {
	maxBytes int64
}

// NewLoader creates a loader; a non-positive limit uses DefaultMaxUploadBytes
func NewLoader(maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Loader{maxBytes: maxBytes}
}

// MaxBytes returns the upload limit
func (l *Loader) MaxBytes() int64 {
	return l.maxBytes
}

// Load reads r to completion and encodes it as an inline image
func (l *Loader) Load(r io.Reader) (InlineImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return InlineImage{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return InlineImage{}, ErrEmptyUpload
	}
	if int64(len(data)) > l.maxBytes {
		return InlineImage{}, fmt.Errorf("%w: max %d bytes", ErrUploadTooLarge, l.maxBytes)
	}

	return NewInlineImage(DetectMIMEType(data), data), nil
}

// LoadAsync runs Load in its own goroutine. The returned channel receives exactly one result.
func (l *Loader) LoadAsync(ctx context.Context, r io.Reader) <-chan LoadResult {
	out := make(chan LoadResult, 1)
	go func() {
		defer close(out)
		img, err := l.Load(r)
		if ctxErr := ctx.Err(); ctxErr != nil && err == nil {
			err = ctxErr
		}
		out <- LoadResult{Image: img, Err: err}
	}()
	return out
}

// DetectMIMEType sniffs the content type of data without parameters
func DetectMIMEType(data []byte) string {
	mimeType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mimeType)
}
