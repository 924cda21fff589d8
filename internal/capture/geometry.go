package capture

import "fmt"

// capturePlan is the rotation-normalized geometry for one capture: the
// dimensions of the buffer the duplication source will deliver, where
// the requested rectangle lands inside that buffer, and the rotation
// hint passed through to the consumer.
type capturePlan struct {
	BufferWidth  int
	BufferHeight int
	Crop         Region // buffer-local coordinates
	RotationHint int    // clockwise degrees: 0, 90, 180, 270
}

// planCapture maps a desktop-coordinate rectangle onto the display's
// duplication buffer. The duplication source delivers frames at native
// scanout dimensions, so for 90 and 270 degree panels the buffer is the
// display's bounds with width and height swapped and the crop axes are
// remapped. No pixels are rotated here; the hint tells the consumer.
//
// The 90 and 270 branches are intentionally written out separately.
// Their offset roles are not mirror images of each other (the 90 case
// folds the X offset into the buffer's Y axis, the 270 case folds the
// Y offset into the buffer's X axis), and collapsing them into one
// parameterized formula is an easy way to get a rotated panel subtly
// wrong.
func planCapture(d Display, req Region) (capturePlan, error) {
	offsetX := req.X - d.Bounds.X
	offsetY := req.Y - d.Bounds.Y

	switch d.Rotation {
	case RotationIdentity:
		return capturePlan{
			BufferWidth:  d.Bounds.Width,
			BufferHeight: d.Bounds.Height,
			Crop:         Region{X: offsetX, Y: offsetY, Width: req.Width, Height: req.Height},
			RotationHint: 0,
		}, nil

	case Rotation180:
		// The duplication buffer is already the 180-degree view of the
		// desktop, so the crop is a pure translation; the consumer
		// applies the half turn.
		return capturePlan{
			BufferWidth:  d.Bounds.Width,
			BufferHeight: d.Bounds.Height,
			Crop:         Region{X: offsetX, Y: offsetY, Width: req.Width, Height: req.Height},
			RotationHint: 180,
		}, nil

	case Rotation90:
		return capturePlan{
			BufferWidth:  d.Bounds.Height,
			BufferHeight: d.Bounds.Width,
			Crop: Region{
				X:      offsetY,
				Y:      d.Bounds.Width - (req.Width + offsetX),
				Width:  req.Height,
				Height: req.Width,
			},
			RotationHint: 90,
		}, nil

	case Rotation270:
		return capturePlan{
			BufferWidth:  d.Bounds.Height,
			BufferHeight: d.Bounds.Width,
			Crop: Region{
				X:      d.Bounds.Height - (req.Height + offsetY),
				Y:      offsetX,
				Width:  req.Height,
				Height: req.Width,
			},
			RotationHint: 270,
		}, nil

	default:
		return capturePlan{}, fmt.Errorf("%w: display %s reports rotation %d",
			ErrUnsupportedRotation, d.DeviceName, int(d.Rotation))
	}
}
