package capture

import "sync"

// gpuDevice is the adapter/device/context triple shared by every
// capture in the process. The handles are opaque COM interface pointers
// on Windows and dummies in tests.
type gpuDevice struct {
	adapter uintptr
	device  uintptr
	context uintptr
	release func() // tears the triple down in reverse creation order
}

// newDeviceFn builds the device triple for a display. It points at the
// platform implementation; tests swap in fakes.
var newDeviceFn = newGPUDevice

var deviceCache struct {
	mu  sync.Mutex
	dev *gpuDevice
}

// acquireDevice returns the process-wide device triple, creating it on
// first use for the adapter that owns d's output. Every later call
// returns the cached triple unconditionally, even when d sits on a
// different adapter: the cache is deliberately single-adapter, and a
// cross-adapter display surfaces later as ErrOutputNotFound when its
// output is missing from the cached adapter. Failed creation caches
// nothing, so the next call retries.
func acquireDevice(d Display) (*gpuDevice, error) {
	deviceCache.mu.Lock()
	defer deviceCache.mu.Unlock()

	if deviceCache.dev != nil {
		return deviceCache.dev, nil
	}
	dev, err := newDeviceFn(d)
	if err != nil {
		return nil, err
	}
	deviceCache.dev = dev
	return dev, nil
}

// ResetDeviceCache releases the cached device triple so the next
// capture recreates it. Capture paths never call this, not even on
// duplication failure; it exists for tests and for explicit recovery
// after display topology changes.
func ResetDeviceCache() {
	deviceCache.mu.Lock()
	defer deviceCache.mu.Unlock()

	if deviceCache.dev != nil {
		if deviceCache.dev.release != nil {
			deviceCache.dev.release()
		}
		deviceCache.dev = nil
	}
}
