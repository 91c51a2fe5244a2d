package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestBlobDecodeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	blob := Blob{Data: buf.Bytes(), Type: "image/png"}
	cfg, format, err := blob.ImageConfig()
	if err != nil {
		t.Fatalf("ImageConfig: %v", err)
	}
	if format != "png" || cfg.Width != 32 || cfg.Height != 16 {
		t.Fatalf("unexpected config %s %+v", format, cfg)
	}

	decoded, _, err := blob.DecodeImage()
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if r, _, _, _ := decoded.At(1, 1).RGBA(); r == 0 {
		t.Fatalf("pixel lost in decode")
	}
}

func TestBlobDecodeImageRejectsGarbage(t *testing.T) {
	if _, _, err := (Blob{Data: []byte("nope")}).DecodeImage(); err == nil {
		t.Fatalf("expected error decoding garbage")
	}
}
