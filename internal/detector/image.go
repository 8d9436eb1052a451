package detector

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DecodeImageSize fully decodes data and returns the image dimensions.
// Header-only parsing would accept truncated files the embedding server cannot read.
func DecodeImageSize(data []byte) (width, height int, err error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
