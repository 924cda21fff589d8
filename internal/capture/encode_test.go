package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: byte(x * 4), G: byte(y * 4), B: byte(x + y), A: 0xFF})
		}
	}
	return img
}

func TestEncodeJPEGDecodable(t *testing.T) {
	data, err := EncodeJPEG(gradient(64, 48), 85)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("decoded %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestEncodeJPEGClampsQuality(t *testing.T) {
	img := gradient(16, 16)
	for _, q := range []int{-5, 0, 1, 100, 150} {
		if _, err := EncodeJPEG(img, q); err != nil {
			t.Fatalf("quality %d: %v", q, err)
		}
	}
}

func TestEncodeJPEGQualityAffectsSize(t *testing.T) {
	img := gradient(128, 128)
	low, err := EncodeJPEG(img, 10)
	if err != nil {
		t.Fatalf("EncodeJPEG low: %v", err)
	}
	high, err := EncodeJPEG(img, 95)
	if err != nil {
		t.Fatalf("EncodeJPEG high: %v", err)
	}
	if len(low) >= len(high) {
		t.Fatalf("quality 10 (%dB) should be smaller than quality 95 (%dB)", len(low), len(high))
	}
}

func TestEncodePNGLossless(t *testing.T) {
	img := gradient(32, 32)
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, p := range [][2]int{{0, 0}, {15, 7}, {31, 31}} {
		want := img.RGBAAt(p[0], p[1])
		r, g, b, a := decoded.At(p[0], p[1]).RGBA()
		got := color.RGBA{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)}
		if got != want {
			t.Fatalf("pixel (%d,%d) = %v, want %v", p[0], p[1], got, want)
		}
	}
}

func TestEncodeResultsIndependent(t *testing.T) {
	// Encoded slices must not alias the pooled scratch buffer.
	first, err := EncodeJPEG(gradient(40, 40), 80)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	snapshot := make([]byte, len(first))
	copy(snapshot, first)

	if _, err := EncodeJPEG(gradient(80, 80), 80); err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if !bytes.Equal(first, snapshot) {
		t.Fatal("earlier result mutated by later encode")
	}
}
