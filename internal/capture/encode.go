package capture

import (
	"image"
	"image/jpeg"
	"image/png"
)

// EncodeJPEG encodes img at the given quality, clamped to 1-100.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	buf := getBuffer()
	defer putBuffer(buf)

	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// EncodePNG encodes img losslessly. Clipboard placement wants PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
