package capture

import (
	"errors"
	"testing"
)

// swapDeviceFactory installs a fake device builder and guarantees a
// clean cache before and after the test.
func swapDeviceFactory(t *testing.T, fn func(Display) (*gpuDevice, error)) {
	t.Helper()
	ResetDeviceCache()
	prev := newDeviceFn
	newDeviceFn = fn
	t.Cleanup(func() {
		ResetDeviceCache()
		newDeviceFn = prev
	})
}

func TestAcquireDeviceCreatesOnce(t *testing.T) {
	builds := 0
	swapDeviceFactory(t, func(d Display) (*gpuDevice, error) {
		builds++
		return &gpuDevice{adapter: 0xA}, nil
	})

	d1 := Display{DeviceName: `\\.\DISPLAY1`, AdapterIndex: 0}
	first, err := acquireDevice(d1)
	if err != nil {
		t.Fatalf("acquireDevice: %v", err)
	}
	second, err := acquireDevice(d1)
	if err != nil {
		t.Fatalf("acquireDevice: %v", err)
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}
	if first != second {
		t.Fatal("second call must return the cached device")
	}
}

func TestAcquireDeviceCachedAcrossDisplays(t *testing.T) {
	builds := 0
	swapDeviceFactory(t, func(d Display) (*gpuDevice, error) {
		builds++
		return &gpuDevice{adapter: 0xA}, nil
	})

	if _, err := acquireDevice(Display{DeviceName: `\\.\DISPLAY1`, AdapterIndex: 0}); err != nil {
		t.Fatalf("acquireDevice: %v", err)
	}
	// A display on another adapter still gets the cached device; its
	// output simply won't be found there later.
	if _, err := acquireDevice(Display{DeviceName: `\\.\DISPLAY9`, AdapterIndex: 3}); err != nil {
		t.Fatalf("acquireDevice: %v", err)
	}
	if builds != 1 {
		t.Fatalf("builds = %d, cache must be unconditional after first success", builds)
	}
}

func TestAcquireDeviceFailureNotCached(t *testing.T) {
	builds := 0
	swapDeviceFactory(t, func(d Display) (*gpuDevice, error) {
		builds++
		if builds == 1 {
			return nil, ErrAdapterNotFound
		}
		return &gpuDevice{}, nil
	})

	d := Display{DeviceName: `\\.\DISPLAY1`}
	if _, err := acquireDevice(d); !errors.Is(err, ErrAdapterNotFound) {
		t.Fatalf("err = %v, want ErrAdapterNotFound", err)
	}
	if _, err := acquireDevice(d); err != nil {
		t.Fatalf("retry after failed creation: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2", builds)
	}
}

func TestResetDeviceCacheReleasesAndRebuilds(t *testing.T) {
	builds, releases := 0, 0
	swapDeviceFactory(t, func(d Display) (*gpuDevice, error) {
		builds++
		return &gpuDevice{release: func() { releases++ }}, nil
	})

	d := Display{DeviceName: `\\.\DISPLAY1`}
	if _, err := acquireDevice(d); err != nil {
		t.Fatalf("acquireDevice: %v", err)
	}
	ResetDeviceCache()
	if releases != 1 {
		t.Fatalf("releases = %d, want 1", releases)
	}
	if _, err := acquireDevice(d); err != nil {
		t.Fatalf("acquireDevice after reset: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want rebuild after reset", builds)
	}
}

func TestResetDeviceCacheEmptyIsNoop(t *testing.T) {
	swapDeviceFactory(t, func(d Display) (*gpuDevice, error) {
		return &gpuDevice{}, nil
	})
	ResetDeviceCache()
	ResetDeviceCache()
}
