package detector

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func encodeImage(t *testing.T, format string, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDecodeImageSize(t *testing.T) {
	for _, format := range []string{"png", "jpeg", "gif", "bmp"} {
		t.Run(format, func(t *testing.T) {
			width, height, err := DecodeImageSize(encodeImage(t, format, 64, 48))
			if err != nil {
				t.Fatalf("DecodeImageSize failed: %v", err)
			}
			if width != 64 || height != 48 {
				t.Errorf("DecodeImageSize() = %dx%d, want 64x48", width, height)
			}
		})
	}
}

func TestDecodeImageSize_Invalid(t *testing.T) {
	valid := encodeImage(t, "png", 64, 48)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"gif header only", []byte("GIF89a-truncated")},
		{"truncated png", valid[:len(valid)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeImageSize(tt.data); err == nil {
				t.Error("expected error for undecodable image")
			}
		})
	}
}
