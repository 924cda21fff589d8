// Package capture grabs still images of desktop regions through DXGI
// Desktop Duplication.
//
// A request names a rectangle in desktop (virtual screen) coordinates
// plus a JPEG quality. The pipeline resolves which physical display
// backs the rectangle, corrects the geometry for hardware rotation,
// pulls one composed frame through a CPU-readable staging texture,
// crops, and encodes. Pixels are delivered in the orientation the
// duplication source produces them; Result.RotationHint tells the
// consumer how many degrees to rotate for upright presentation.
package capture

import (
	"encoding/json"
	"sync"
)

// DefaultQuality is the JPEG quality used when a request leaves
// Quality zero.
const DefaultQuality = 85

// Region is a rectangle in desktop (virtual screen) coordinates.
// X and Y may be negative: secondary displays positioned left of or
// above the primary have negative origins.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the exclusive right edge.
func (r Region) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Region) Bottom() int { return r.Y + r.Height }

// Empty reports whether the region has no area.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// contains reports whether s lies fully inside r.
func (r Region) contains(s Region) bool {
	return s.X >= r.X && s.Y >= r.Y && s.Right() <= r.Right() && s.Bottom() <= r.Bottom()
}

// Rotation is a display's hardware rotation, in the numeric order DXGI
// reports it (DXGI_MODE_ROTATION).
type Rotation int

const (
	RotationUnspecified Rotation = iota
	RotationIdentity
	Rotation90
	Rotation180
	Rotation270
)

func (r Rotation) String() string {
	switch r {
	case RotationIdentity:
		return "identity"
	case Rotation90:
		return "90"
	case Rotation180:
		return "180"
	case Rotation270:
		return "270"
	default:
		return "unspecified"
	}
}

// Degrees returns the clockwise degrees a consumer must rotate captured
// pixels for upright presentation.
func (r Rotation) Degrees() int {
	switch r {
	case Rotation90:
		return 90
	case Rotation180:
		return 180
	case Rotation270:
		return 270
	default:
		return 0
	}
}

// MarshalJSON emits the rotation in degrees; consumers never see the
// DXGI enumeration values.
func (r Rotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Degrees())
}

func (r *Rotation) UnmarshalJSON(data []byte) error {
	var deg int
	if err := json.Unmarshal(data, &deg); err != nil {
		return err
	}
	switch deg {
	case 0:
		*r = RotationIdentity
	case 90:
		*r = Rotation90
	case 180:
		*r = Rotation180
	case 270:
		*r = Rotation270
	default:
		*r = RotationUnspecified
	}
	return nil
}

// Display describes one attached display output.
type Display struct {
	// DeviceName is the GDI device path, e.g. `\\.\DISPLAY1`.
	DeviceName string `json:"deviceName"`
	// Bounds is the display's rectangle in desktop coordinates, already
	// rotation-corrected by the OS (a portrait 1080x1920 panel reports
	// 1080x1920 here regardless of its native scanout dimensions).
	Bounds   Region   `json:"bounds"`
	Rotation Rotation `json:"rotation"`
	// AdapterIndex and OutputIndex are the display's enumeration
	// position, used to reopen its output for duplication.
	AdapterIndex int  `json:"adapterIndex"`
	OutputIndex  int  `json:"outputIndex"`
	Primary      bool `json:"primary"`
}

// Request asks for one still capture.
type Request struct {
	Region  Region `json:"region"`
	Quality int    `json:"quality"` // JPEG quality 1-100; 0 means DefaultQuality
}

// Result is a finished capture.
type Result struct {
	// Data is the encoded JPEG.
	Data []byte
	// RotationHint is the clockwise degrees the consumer must rotate
	// Data for upright presentation (0, 90, 180, 270).
	RotationHint int
	// Width and Height are the delivered dimensions before the hint is
	// applied. For 90/270 displays these are the request's dimensions
	// swapped.
	Width  int
	Height int
	// Display is the device name of the resolved display.
	Display string
}

// displayLocks serializes captures per display. The duplication
// interface on an output is exclusive; two concurrent grabs of the same
// display would steal frames from each other.
var displayLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func lockDisplay(deviceName string) (unlock func()) {
	displayLocks.mu.Lock()
	if displayLocks.m == nil {
		displayLocks.m = make(map[string]*sync.Mutex)
	}
	l, ok := displayLocks.m[deviceName]
	if !ok {
		l = &sync.Mutex{}
		displayLocks.m[deviceName] = l
	}
	displayLocks.mu.Unlock()

	l.Lock()
	return l.Unlock
}
