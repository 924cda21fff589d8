package capture

import (
	"fmt"
	"image"
)

// copyRows copies height rows of width*4 bytes from a mapped GPU
// surface into a packed destination. srcPitch is the surface's row
// pitch, which the driver pads past width*4 for alignment; the padding
// bytes never reach dst. When both strides equal the packed row size a
// single bulk copy is used.
func copyRows(dst []byte, dstStride int, src []byte, srcPitch, width, height int) {
	rowBytes := width * 4
	if srcPitch == rowBytes && dstStride == rowBytes {
		copy(dst[:height*rowBytes], src[:height*rowBytes])
		return
	}
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcPitch:y*srcPitch+rowBytes])
	}
}

// cropPixels extracts crop from a 32-bit pixel buffer of bufW x bufH
// with the given stride. The crop must lie fully inside the buffer;
// anything else means the geometry calculation is defective and fails
// loudly instead of clamping.
func cropPixels(pix []byte, stride, bufW, bufH int, crop Region) ([]byte, error) {
	if crop.Empty() || crop.X < 0 || crop.Y < 0 || crop.Right() > bufW || crop.Bottom() > bufH {
		return nil, fmt.Errorf("%w: crop (%d,%d %dx%d) in %dx%d buffer",
			ErrCropOutOfBounds, crop.X, crop.Y, crop.Width, crop.Height, bufW, bufH)
	}

	rowBytes := crop.Width * 4
	out := make([]byte, crop.Height*rowBytes)
	for y := 0; y < crop.Height; y++ {
		srcOff := (crop.Y+y)*stride + crop.X*4
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[srcOff:srcOff+rowBytes])
	}
	return out, nil
}

// bgraToRGBA swaps the blue and red channels in place. Duplication
// surfaces are B8G8R8A8; the stdlib encoders want RGBA order.
func bgraToRGBA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// rgbaImage wraps a packed RGBA buffer as an image without copying.
func rgbaImage(pix []byte, w, h int) *image.RGBA {
	return &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}
