//go:build windows

package capture

import (
	"fmt"
	"log/slog"
	"syscall"
	"unsafe"
)

// Displays enumerates attached outputs adapter-first, so each display's
// enumeration position can be reused to reopen its output when a
// duplication session starts.
func Displays() ([]Display, error) {
	factory, err := createFactory()
	if err != nil {
		return nil, err
	}
	defer comRelease(factory)

	var displays []Display
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
				slog.Warn("DXGI GetDesc failed", "adapter", ai, "output", oi, "error", err)
				continue
			}
			if desc.AttachedToDesktop == 0 {
				continue
			}
			displays = append(displays, displayFromDesc(ai, oi, &desc))
		}
		comRelease(adapter)
	}
	return displays, nil
}

func displayFromDesc(adapterIndex, outputIndex int, desc *dxgiOutputDesc) Display {
	return Display{
		DeviceName: syscall.UTF16ToString(desc.DeviceName[:]),
		Bounds: Region{
			X:      int(desc.Left),
			Y:      int(desc.Top),
			Width:  int(desc.Right - desc.Left),
			Height: int(desc.Bottom - desc.Top),
		},
		Rotation:     Rotation(desc.Rotation),
		AdapterIndex: adapterIndex,
		OutputIndex:  outputIndex,
		Primary:      desc.Left == 0 && desc.Top == 0,
	}
}

func createFactory() (uintptr, error) {
	var factory uintptr
	hr, _, _ := procCreateDXGIFactory1.Call(
		uintptr(unsafe.Pointer(&iidIDXGIFactory1)),
		uintptr(unsafe.Pointer(&factory)),
	)
	if int32(hr) < 0 {
		return 0, fmt.Errorf("CreateDXGIFactory1 failed: 0x%08X", uint32(hr))
	}
	return factory, nil
}

// enumAdapter returns adapter index of factory, or false at the end of
// enumeration.
func enumAdapter(factory uintptr, index int) (uintptr, bool) {
	var adapter uintptr
	hr, _, _ := syscall.SyscallN(
		comVtblFn(factory, dxgiFactory1EnumAdapters1),
		factory,
		uintptr(index),
		uintptr(unsafe.Pointer(&adapter)),
	)
	if int32(hr) < 0 {
		if uint32(hr) != dxgiErrNotFound {
			slog.Warn("DXGI EnumAdapters1 failed", "index", index, "hr", fmt.Sprintf("0x%08X", uint32(hr)))
		}
		return 0, false
	}
	return adapter, true
}

// enumOutput returns output index of adapter, or false at the end of
// enumeration.
func enumOutput(adapter uintptr, index int) (uintptr, bool) {
	var output uintptr
	hr, _, _ := syscall.SyscallN(
		comVtblFn(adapter, dxgiAdapterEnumOutputs),
		adapter,
		uintptr(index),
		uintptr(unsafe.Pointer(&output)),
	)
	if int32(hr) < 0 {
		if uint32(hr) != dxgiErrNotFound {
			slog.Warn("DXGI EnumOutputs failed", "index", index, "hr", fmt.Sprintf("0x%08X", uint32(hr)))
		}
		return 0, false
	}
	return output, true
}

func outputDesc(output uintptr) (dxgiOutputDesc, error) {
	var desc dxgiOutputDesc
	_, err := comCall(output, dxgiOutputGetDesc, uintptr(unsafe.Pointer(&desc)))
	return desc, err
}
