//go:build windows

package capture

import (
	"fmt"
	"log/slog"
	"syscall"
	"unsafe"
)

// newGPUDevice locates the adapter exposing d's output and creates a
// D3D11 device on it. Creation is tried with BGRA support first (the
// format duplication surfaces use) and retried plain if the driver
// rejects the flag.
func newGPUDevice(d Display) (*gpuDevice, error) {
	factory, err := createFactory()
	if err != nil {
		return nil, err
	}
	defer comRelease(factory)

	adapter, err := findAdapter(factory, d.DeviceName)
	if err != nil {
		return nil, err
	}

	device, context, err := createDeviceOn(adapter)
	if err != nil {
		comRelease(adapter)
		return nil, err
	}

	slog.Debug("created D3D11 device", "display", d.DeviceName, "adapter", d.AdapterIndex)

	dev := &gpuDevice{adapter: adapter, device: device, context: context}
	dev.release = func() {
		comRelease(dev.context)
		comRelease(dev.device)
		comRelease(dev.adapter)
		dev.context, dev.device, dev.adapter = 0, 0, 0
	}
	return dev, nil
}

// findAdapter scans every adapter's outputs for deviceName and returns
// the owning adapter with a reference held.
func findAdapter(factory uintptr, deviceName string) (uintptr, error) {
	for ai := 0; ; ai++ {
		adapter, ok := enumAdapter(factory, ai)
		if !ok {
			break
		}
		for oi := 0; ; oi++ {
			output, ok := enumOutput(adapter, oi)
			if !ok {
				break
			}
			desc, err := outputDesc(output)
			comRelease(output)
			if err != nil {
				continue
			}
			if syscall.UTF16ToString(desc.DeviceName[:]) == deviceName {
				return adapter, nil
			}
		}
		comRelease(adapter)
	}
	return 0, fmt.Errorf("%w: %s", ErrAdapterNotFound, deviceName)
}

func createDeviceOn(adapter uintptr) (device, context uintptr, err error) {
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32

	create := func(flags uint32) uintptr {
		// Driver type must be UNKNOWN when an explicit adapter is given.
		hr, _, _ := procD3D11CreateDevice.Call(
			adapter,
			uintptr(d3dDriverTypeUnknown),
			0,
			uintptr(flags),
			uintptr(unsafe.Pointer(&featureLevel)),
			1,
			uintptr(d3d11SDKVersion),
			uintptr(unsafe.Pointer(&device)),
			uintptr(unsafe.Pointer(&actualLevel)),
			uintptr(unsafe.Pointer(&context)),
		)
		return hr
	}

	hr := create(d3d11CreateDeviceBGRASupport)
	if int32(hr) < 0 {
		slog.Debug("D3D11CreateDevice with BGRA flag failed, retrying without",
			"hr", fmt.Sprintf("0x%08X", uint32(hr)))
		hr = create(0)
	}
	if int32(hr) < 0 {
		return 0, 0, fmt.Errorf("D3D11CreateDevice failed: 0x%08X", uint32(hr))
	}
	return device, context, nil
}
