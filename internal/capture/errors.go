package capture

import "errors"

// Failures callers can test for with errors.Is. Each is fatal for the
// call that returns it; none of them invalidates the process-wide
// device cache.
var (
	// ErrNoMatchingDisplay means no display's bounds fully contain the
	// requested rectangle. Rectangles spanning displays are rejected.
	ErrNoMatchingDisplay = errors.New("no display contains the requested region")

	// ErrAdapterNotFound means adapter enumeration found no adapter
	// exposing the resolved display's output.
	ErrAdapterNotFound = errors.New("no adapter exposes the display")

	// ErrOutputNotFound means the resolved display's output is not
	// present on the cached adapter.
	ErrOutputNotFound = errors.New("display output not found on adapter")

	// ErrUnsupportedRotation means the platform reported a rotation the
	// geometry calculation cannot plan for.
	ErrUnsupportedRotation = errors.New("unsupported display rotation")

	// ErrDuplicationFailure means the duplication source failed with a
	// non-timeout error while opening, acquiring, copying, or mapping.
	ErrDuplicationFailure = errors.New("desktop duplication failure")

	// ErrCropOutOfBounds means a crop rectangle exceeds its capture
	// buffer. This indicates a geometry defect and is never silently
	// clamped.
	ErrCropOutOfBounds = errors.New("crop rectangle outside buffer bounds")

	// ErrNotSupported is returned on platforms without desktop
	// duplication.
	ErrNotSupported = errors.New("screen capture not supported on this platform")
)

// errFrameWaitTimeout reports an acquisition wait that elapsed with no
// new frame. The session loop retries on it; it never reaches callers.
var errFrameWaitTimeout = errors.New("frame wait timed out")
