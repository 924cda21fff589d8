//go:build windows

package clipboard

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/breeze-rmm/screengrab/internal/capture"
)

// x/sys/windows carries no clipboard bindings, so the procs are loaded
// directly, the way the capture backbone loads its user32 entry points.
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClipboardFormatW = user32.NewProc("RegisterClipboardFormatW")
	procOpenClipboard            = user32.NewProc("OpenClipboard")
	procCloseClipboard           = user32.NewProc("CloseClipboard")
	procEmptyClipboard           = user32.NewProc("EmptyClipboard")
	procSetClipboardData         = user32.NewProc("SetClipboardData")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
)

const (
	gmemMoveable = 0x0002
	cfDIB        = 8
)

var (
	formatInit sync.Once
	formatPNG  uint32
)

func initFormats() {
	name, err := windows.UTF16PtrFromString("PNG")
	if err != nil {
		return
	}
	r, _, _ := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(name)))
	formatPNG = uint32(r)
}

func setImage(img *image.RGBA) error {
	formatInit.Do(initFormats)

	pngData, err := capture.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	dibData, err := buildDIB(img)
	if err != nil {
		return err
	}

	if r, _, err := procOpenClipboard.Call(0); r == 0 {
		return fmt.Errorf("OpenClipboard: %w", err)
	}
	defer procCloseClipboard.Call()

	if r, _, err := procEmptyClipboard.Call(); r == 0 {
		return fmt.Errorf("EmptyClipboard: %w", err)
	}

	if formatPNG != 0 {
		if err := writeClipboardBytes(formatPNG, pngData); err != nil {
			return err
		}
	}
	return writeClipboardBytes(cfDIB, dibData)
}

// writeClipboardBytes hands data to the clipboard as a movable global
// allocation. The clipboard owns the handle once SetClipboardData
// succeeds; on any failure the allocation is freed here.
func writeClipboardBytes(format uint32, data []byte) error {
	if len(data) == 0 {
		return errors.New("clipboard: empty data")
	}

	handle, _, err := procGlobalAlloc.Call(gmemMoveable, uintptr(len(data)))
	if handle == 0 {
		return fmt.Errorf("GlobalAlloc: %w", err)
	}
	ptr, _, err := procGlobalLock.Call(handle)
	if ptr == 0 {
		procGlobalFree.Call(handle)
		return fmt.Errorf("GlobalLock: %w", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(data)), data)
	procGlobalUnlock.Call(handle)

	if r, _, err := procSetClipboardData.Call(uintptr(format), handle); r == 0 {
		procGlobalFree.Call(handle)
		return fmt.Errorf("SetClipboardData: %w", err)
	}
	return nil
}
