//go:build !windows

package clipboard

import (
	"image"

	"github.com/breeze-rmm/screengrab/internal/capture"
)

func setImage(_ *image.RGBA) error {
	return capture.ErrNotSupported
}
