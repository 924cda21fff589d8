//go:build windows

package capture

var (
	procInvalidateRect = user32.NewProc("InvalidateRect")
	procRedrawWindow   = user32.NewProc("RedrawWindow")
)

const (
	rdwInvalidate  = 0x0001
	rdwAllChildren = 0x0080
	rdwUpdateNow   = 0x0100
)

// forceDesktopRepaint invalidates every top-level window so the next
// AcquireNextFrame has dirty content to deliver. Without this, a fully
// static desktop (wallpaper only, nothing moving) can keep the
// duplication source waiting through attempt after attempt.
func forceDesktopRepaint() {
	// InvalidateRect(NULL, NULL, TRUE) marks all top-level windows.
	procInvalidateRect.Call(0, 0, 1)

	// UPDATENOW forces immediate WM_PAINT processing rather than
	// waiting for each window's next message loop cycle.
	procRedrawWindow.Call(0, 0, 0, uintptr(rdwInvalidate|rdwAllChildren|rdwUpdateNow))
}
