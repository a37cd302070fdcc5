// Package media converts uploaded images into inline images (data URLs) and back.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	dataURLPrefix = "data:"
	base64Marker  = ";base64"

	// DefaultMIMEType is used when the payload type cannot be detected
	DefaultMIMEType = "application/octet-stream"
)

var (
	// ErrNotDataURL is returned when a string does not use the data: scheme
	ErrNotDataURL = errors.New("not a data URL")
	// ErrNotBase64 is returned for data URLs that are not base64 encoded
	ErrNotBase64 = errors.New("data URL is not base64 encoded")
)

// InlineImage is an image carried by value, embeddable in markup or requests without a fetch
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// NewInlineImage builds an inline image, falling back to DefaultMIMEType for an empty type
func NewInlineImage(mimeType string, data []byte) InlineImage {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return InlineImage{MIMEType: mimeType, Data: data}
}

// DataURL encodes the image as a base64 data URL
func (i InlineImage) DataURL() string {
	mimeType := i.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return dataURLPrefix + mimeType + base64Marker + "," + base64.StdEncoding.EncodeToString(i.Data)
}

// Size returns the decoded payload size in bytes
func (i InlineImage) Size() int {
	return len(i.Data)
}

// IsImage reports whether the MIME type is an image type
func (i InlineImage) IsImage() bool {
	return strings.HasPrefix(i.MIMEType, "image/")
}

// Clone returns a copy that does not share the payload buffer
func (i InlineImage) Clone() InlineImage {
	data := make([]byte, len(i.Data))
	copy(data, i.Data)
	return InlineImage{MIMEType: i.MIMEType, Data: data}
}

// IsDataURL reports whether s uses the data: scheme
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, dataURLPrefix)
}

// ParseDataURL decodes a base64 data URL of the form data:<mime>;base64,<payload>
func ParseDataURL(s string) (InlineImage, error) {
	if !IsDataURL(s) {
		return InlineImage{}, ErrNotDataURL
	}

	header, payload, found := strings.Cut(strings.TrimPrefix(s, dataURLPrefix), ",")
	if !found {
		return InlineImage{}, fmt.Errorf("%w: missing payload separator", ErrNotDataURL)
	}
	if !strings.HasSuffix(header, base64Marker) {
		return InlineImage{}, ErrNotBase64
	}

	mimeType := strings.TrimSuffix(header, base64Marker)
	// drop parameters such as ;charset=utf-8
	mimeType, _, _ = strings.Cut(mimeType, ";")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return InlineImage{}, fmt.Errorf("failed to decode data URL payload: %w", err)
	}

	return NewInlineImage(mimeType, data), nil
}
