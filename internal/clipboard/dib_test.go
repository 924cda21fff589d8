package clipboard

import (
	"encoding/binary"
	"image"
	"image/color"
	"testing"
)

func TestBuildDIBHeader(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	data, err := buildDIB(img)
	if err != nil {
		t.Fatalf("buildDIB: %v", err)
	}
	if want := dibHeaderSize + 3*2*4; len(data) != want {
		t.Fatalf("len = %d, want %d", len(data), want)
	}
	if got := binary.LittleEndian.Uint32(data[0:]); got != dibHeaderSize {
		t.Fatalf("header size = %d, want %d", got, dibHeaderSize)
	}
	if got := binary.LittleEndian.Uint32(data[4:]); got != 3 {
		t.Fatalf("width = %d, want 3", got)
	}
	if got := int32(binary.LittleEndian.Uint32(data[8:])); got != -2 {
		t.Fatalf("height = %d, want -2 (top-down rows)", got)
	}
	if got := binary.LittleEndian.Uint16(data[12:]); got != 1 {
		t.Fatalf("planes = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint16(data[14:]); got != 32 {
		t.Fatalf("bpp = %d, want 32", got)
	}
	if got := binary.LittleEndian.Uint32(data[20:]); got != 3*2*4 {
		t.Fatalf("image size = %d, want %d", got, 3*2*4)
	}
}

func TestBuildDIBSwizzlesToBGRA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF})
	img.Set(1, 0, color.RGBA{R: 0xAA, G: 0xBB, B: 0xCC, A: 0x7F})

	data, err := buildDIB(img)
	if err != nil {
		t.Fatalf("buildDIB: %v", err)
	}
	px := data[dibHeaderSize:]
	want := []byte{0x30, 0x20, 0x10, 0xFF, 0xCC, 0xBB, 0xAA, 0x7F}
	for i, b := range want {
		if px[i] != b {
			t.Fatalf("pixel byte %d = %#02x, want %#02x", i, px[i], b)
		}
	}
}

func TestBuildDIBRowsInNaturalOrder(t *testing.T) {
	// Top-down DIB: the header's negative height means row 0 of the
	// image is row 0 of the buffer, not the bottom row.
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{R: 0x01, A: 0xFF})
	img.Set(0, 1, color.RGBA{R: 0x02, A: 0xFF})

	data, err := buildDIB(img)
	if err != nil {
		t.Fatalf("buildDIB: %v", err)
	}
	px := data[dibHeaderSize:]
	if px[2] != 0x01 || px[6] != 0x02 {
		t.Fatalf("rows reordered: red bytes = %#02x, %#02x", px[2], px[6])
	}
}

func TestBuildDIBEmptyImage(t *testing.T) {
	if _, err := buildDIB(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Fatal("want error for an empty image")
	}
}
