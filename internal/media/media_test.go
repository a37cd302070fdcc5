package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x + y), A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestInlineImage_DataURLRoundTrip(t *testing.T) {
	img := NewInlineImage("image/png", []byte("RESULT"))

	url := img.DataURL()
	assert.Equal(t, "data:image/png;base64,UkVTVUxU", url)
	assert.True(t, IsDataURL(url))

	parsed, err := ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, img, parsed)
}

func TestNewInlineImage_DefaultMIMEType(t *testing.T) {
	img := NewInlineImage("", []byte{1})
	assert.Equal(t, DefaultMIMEType, img.MIMEType)
	assert.False(t, img.IsImage())
}

func TestParseDataURL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "http url", input: "https://example.com/a.png", wantErr: ErrNotDataURL},
		{name: "missing separator", input: "data:image/png;base64", wantErr: ErrNotDataURL},
		{name: "not base64", input: "data:text/plain,hello", wantErr: ErrNotBase64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataURL(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := ParseDataURL("data:image/png;base64,***")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestParseDataURL_DropsParameters(t *testing.T) {
	img, err := ParseDataURL("data:image/svg+xml;charset=utf-8;base64,PHN2Zy8+")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", img.MIMEType)
	assert.Equal(t, "<svg/>", string(img.Data))
}

func TestInlineImage_Clone(t *testing.T) {
	img := NewInlineImage("image/png", []byte{1, 2, 3})
	clone := img.Clone()
	clone.Data[0] = 9

	assert.Equal(t, byte(1), img.Data[0])
	assert.Equal(t, 3, clone.Size())
}

func TestLoader_Load(t *testing.T) {
	data := testPNG(t, 4, 4)
	loader := NewLoader(0)
	assert.Equal(t, DefaultMaxUploadBytes, loader.MaxBytes())

	img, err := loader.Load(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, data, img.Data)
	assert.True(t, strings.HasPrefix(img.DataURL(), "data:image/png;base64,"))
}

func TestLoader_LoadDoesNotValidateType(t *testing.T) {
	img, err := NewLoader(0).Load(strings.NewReader("plain text is accepted"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", img.MIMEType)
}

func TestLoader_LoadErrors(t *testing.T) {
	loader := NewLoader(8)

	_, err := loader.Load(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyUpload)

	_, err = loader.Load(strings.NewReader("more than eight bytes"))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = loader.Load(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read upload")
}

func TestLoader_LoadAsync(t *testing.T) {
	data := testPNG(t, 2, 2)
	results := NewLoader(0).LoadAsync(context.Background(), bytes.NewReader(data))

	res, ok := <-results
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, "image/png", res.Image.MIMEType)

	_, open := <-results
	assert.False(t, open, "channel must close after the single result")
}

func TestLoader_LoadAsyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := <-NewLoader(0).LoadAsync(ctx, strings.NewReader("x"))
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestCompressToJPEG(t *testing.T) {
	img := NewInlineImage("image/png", testPNG(t, 16, 16))

	compressed, err := CompressToJPEG(img, 75)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", compressed.MIMEType)
	assert.Equal(t, "image/jpeg", DetectMIMEType(compressed.Data))

	_, err = CompressToJPEG(NewInlineImage("text/plain", []byte("nope")), 75)
	assert.Error(t, err)
}

func TestShrink(t *testing.T) {
	small := NewInlineImage("image/png", testPNG(t, 2, 2))
	assert.Equal(t, small, Shrink(small, small.Size(), 75))

	garbage := NewInlineImage("image/png", bytes.Repeat([]byte{0x1}, 64))
	assert.Equal(t, garbage, Shrink(garbage, 10, 75))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk gone")
}
