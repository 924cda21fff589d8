package clipboard

import (
	"encoding/binary"
	"errors"
	"image"
)

const dibHeaderSize = 40 // BITMAPINFOHEADER

// buildDIB renders img as a 32bpp top-down DIB: a BITMAPINFOHEADER
// with negative height followed by BGRA rows in natural order.
func buildDIB(img *image.RGBA) ([]byte, error) {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("clipboard: empty image")
	}
	imageSize := width * height * 4

	buf := make([]byte, dibHeaderSize+imageSize)
	binary.LittleEndian.PutUint32(buf[0:], dibHeaderSize)
	binary.LittleEndian.PutUint32(buf[4:], uint32(width))
	binary.LittleEndian.PutUint32(buf[8:], uint32(-int32(height)))
	binary.LittleEndian.PutUint16(buf[12:], 1)  // planes
	binary.LittleEndian.PutUint16(buf[14:], 32) // bits per pixel
	binary.LittleEndian.PutUint32(buf[16:], 0)  // BI_RGB
	binary.LittleEndian.PutUint32(buf[20:], uint32(imageSize))

	dst := buf[dibHeaderSize:]
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+width*4]
		row := dst[y*width*4 : (y+1)*width*4]
		for x := 0; x < width*4; x += 4 {
			row[x] = src[x+2]
			row[x+1] = src[x+1]
			row[x+2] = src[x]
			row[x+3] = src[x+3]
		}
	}
	return buf, nil
}
