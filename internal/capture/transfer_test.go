package capture

import (
	"bytes"
	"errors"
	"testing"
)

// patternBuffer builds a bufW x bufH BGRA buffer where each pixel
// encodes its own coordinates, so misplaced copies are detectable.
func patternBuffer(bufW, bufH int) []byte {
	pix := make([]byte, bufW*bufH*4)
	for y := 0; y < bufH; y++ {
		for x := 0; x < bufW; x++ {
			i := (y*bufW + x) * 4
			pix[i] = byte(x)
			pix[i+1] = byte(y)
			pix[i+2] = byte(x + y)
			pix[i+3] = 0xFF
		}
	}
	return pix
}

func TestCopyRowsStripsPitchPadding(t *testing.T) {
	const width, height = 4, 3
	const pitch = width*4 + 12 // driver-padded rows

	src := make([]byte, height*pitch)
	for y := 0; y < height; y++ {
		for i := 0; i < width*4; i++ {
			src[y*pitch+i] = byte(y*16 + i)
		}
		for i := width * 4; i < pitch; i++ {
			src[y*pitch+i] = 0xEE // padding marker, must never be copied
		}
	}

	dst := make([]byte, height*width*4)
	copyRows(dst, width*4, src, pitch, width, height)

	for y := 0; y < height; y++ {
		for i := 0; i < width*4; i++ {
			if got := dst[y*width*4+i]; got != byte(y*16+i) {
				t.Fatalf("row %d byte %d = 0x%02X, want 0x%02X", y, i, got, byte(y*16+i))
			}
		}
	}
	if bytes.IndexByte(dst, 0xEE) != -1 {
		t.Fatal("padding bytes leaked into destination")
	}
}

func TestCopyRowsPackedFastPath(t *testing.T) {
	const width, height = 8, 5
	src := patternBuffer(width, height)
	dst := make([]byte, len(src))
	copyRows(dst, width*4, src, width*4, width, height)
	if !bytes.Equal(dst, src) {
		t.Fatal("packed copy should be byte-identical")
	}
}

func TestCropPixelsInterior(t *testing.T) {
	const bufW, bufH = 16, 12
	pix := patternBuffer(bufW, bufH)

	crop := Region{X: 3, Y: 2, Width: 5, Height: 4}
	out, err := cropPixels(pix, bufW*4, bufW, bufH, crop)
	if err != nil {
		t.Fatalf("cropPixels: %v", err)
	}
	if len(out) != crop.Width*crop.Height*4 {
		t.Fatalf("len = %d, want %d", len(out), crop.Width*crop.Height*4)
	}
	for y := 0; y < crop.Height; y++ {
		for x := 0; x < crop.Width; x++ {
			i := (y*crop.Width + x) * 4
			sx, sy := crop.X+x, crop.Y+y
			if out[i] != byte(sx) || out[i+1] != byte(sy) {
				t.Fatalf("pixel (%d,%d) = (%d,%d), want (%d,%d)",
					x, y, out[i], out[i+1], sx, sy)
			}
		}
	}
}

func TestCropPixelsWholeBuffer(t *testing.T) {
	const bufW, bufH = 7, 9
	pix := patternBuffer(bufW, bufH)
	out, err := cropPixels(pix, bufW*4, bufW, bufH, Region{Width: bufW, Height: bufH})
	if err != nil {
		t.Fatalf("cropPixels: %v", err)
	}
	if !bytes.Equal(out, pix) {
		t.Fatal("whole-buffer crop should be byte-identical")
	}
}

func TestCropPixelsOutOfBounds(t *testing.T) {
	const bufW, bufH = 10, 10
	pix := patternBuffer(bufW, bufH)

	bad := []Region{
		{X: 8, Y: 0, Width: 3, Height: 1},  // right overflow
		{X: 0, Y: 9, Width: 1, Height: 2},  // bottom overflow
		{X: -1, Y: 0, Width: 2, Height: 2}, // negative origin
		{X: 0, Y: 0, Width: 0, Height: 5},  // empty
	}
	for _, crop := range bad {
		if _, err := cropPixels(pix, bufW*4, bufW, bufH, crop); !errors.Is(err, ErrCropOutOfBounds) {
			t.Fatalf("crop %+v: err = %v, want ErrCropOutOfBounds", crop, err)
		}
	}
}

func TestBGRAToRGBA(t *testing.T) {
	pix := []byte{
		0x01, 0x02, 0x03, 0x04,
		0xAA, 0xBB, 0xCC, 0xDD,
	}
	bgraToRGBA(pix)
	want := []byte{
		0x03, 0x02, 0x01, 0x04,
		0xCC, 0xBB, 0xAA, 0xDD,
	}
	if !bytes.Equal(pix, want) {
		t.Fatalf("pix = %v, want %v", pix, want)
	}
}

func TestRGBAImageWrapsWithoutCopy(t *testing.T) {
	pix := patternBuffer(6, 4)
	img := rgbaImage(pix, 6, 4)
	if img.Stride != 24 || img.Rect.Dx() != 6 || img.Rect.Dy() != 4 {
		t.Fatalf("unexpected geometry: stride=%d rect=%v", img.Stride, img.Rect)
	}
	pix[0] = 0x7F
	if img.Pix[0] != 0x7F {
		t.Fatal("image must alias the input buffer")
	}
}
