package loader

import (
	"bytes"
	"fmt"
	"image"
	"io"

	// Image codecs available to DecodeImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Blob is a raw response body plus the content type the source reported.
type Blob struct {
	Data     []byte
	Type     string
	Status   int
	Location string
}

// Size returns the number of bytes in the blob.
func (b Blob) Size() int { return len(b.Data) }

// Reader returns a fresh reader over the blob bytes.
func (b Blob) Reader() io.Reader { return bytes.NewReader(b.Data) }

// DecodeImage decodes the blob as an image, returning the codec name.
func (b Blob) DecodeImage() (image.Image, string, error) {
	img, format, err := image.Decode(b.Reader())
	if err != nil {
		return nil, "", fmt.Errorf("decode image from %s: %w", b.Location, err)
	}
	return img, format, nil
}

// ImageConfig decodes only the image header (dimensions and color model).
func (b Blob) ImageConfig() (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(b.Reader())
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode image config from %s: %w", b.Location, err)
	}
	return cfg, format, nil
}
