package capture

import "fmt"

// resolveDisplay returns the first display whose bounds fully contain
// req. Containment within a single display is the contract: a rectangle
// straddling two displays fails with ErrNoMatchingDisplay even when
// every pixel of it is visible somewhere on the desktop, and when
// displays overlap (mirrored outputs) the first match in enumeration
// order wins.
func resolveDisplay(displays []Display, req Region) (Display, error) {
	if req.Empty() {
		return Display{}, fmt.Errorf("%w: region %dx%d has no area",
			ErrNoMatchingDisplay, req.Width, req.Height)
	}
	for _, d := range displays {
		if d.Bounds.contains(req) {
			return d, nil
		}
	}
	return Display{}, fmt.Errorf("%w: region (%d,%d %dx%d), %d displays checked",
		ErrNoMatchingDisplay, req.X, req.Y, req.Width, req.Height, len(displays))
}
