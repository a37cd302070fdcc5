package media

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

const mimeTypeJPEG = "image/jpeg"

// CompressToJPEG re-encodes the image as JPEG at the given quality.
// Formats image.Decode cannot read are returned as an error.
func CompressToJPEG(img InlineImage, quality int) (InlineImage, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return InlineImage{}, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, decoded, &jpeg.Options{Quality: quality}); err != nil {
		return InlineImage{}, err
	}
	return InlineImage{MIMEType: mimeTypeJPEG, Data: buf.Bytes()}, nil
}

// Shrink compresses images larger than threshold and keeps the original when that fails
// or does not make it smaller.
func Shrink(img InlineImage, threshold int, quality int) InlineImage {
	if img.Size() <= threshold {
		return img
	}
	compressed, err := CompressToJPEG(img, quality)
	if err != nil || compressed.Size() >= img.Size() {
		return img
	}
	return compressed
}
