//go:build windows

package capture

import (
	"fmt"
	"image"
	"log/slog"
	"syscall"
	"time"
	"unsafe"
)

// dxgiDuplication is the Windows duplicationSource: one
// IDXGIOutputDuplication plus the staging texture frames are copied
// into. It lives for a single capture call.
type dxgiDuplication struct {
	dev         *gpuDevice
	duplication uintptr
	staging     uintptr
	width       int
	height      int
}

// openDuplication reopens d's output on the cached adapter and starts
// duplicating it. The staging texture is created at the plan's buffer
// dimensions, which already account for hardware rotation.
func openDuplication(dev *gpuDevice, d Display, plan capturePlan) (*dxgiDuplication, error) {
	output, err := findOutput(dev.adapter, d.DeviceName)
	if err != nil {
		return nil, err
	}

	output1, err := comQueryInterface(output, &iidIDXGIOutput1)
	comRelease(output)
	if err != nil {
		return nil, fmt.Errorf("%w: QueryInterface IDXGIOutput1: %v", ErrDuplicationFailure, err)
	}

	var duplication uintptr
	_, err = comCall(output1, dxgiOutput1DuplicateOut,
		dev.device,
		uintptr(unsafe.Pointer(&duplication)),
	)
	comRelease(output1)
	if err != nil {
		return nil, fmt.Errorf("%w: DuplicateOutput %s: %v", ErrDuplicationFailure, d.DeviceName, err)
	}

	// Sanity-check the duplication's mode against the planned buffer.
	// The crop math stays bound to the plan either way; a mismatch here
	// means the OS and DXGI disagree about the display mode. GetDesc on
	// the duplication interface returns void, so there is no HRESULT to
	// check.
	var duplDesc dxgiOutDuplDesc
	syscall.SyscallN(comVtblFn(duplication, dxgiDuplGetDesc),
		duplication, uintptr(unsafe.Pointer(&duplDesc)))
	if !modeMatchesPlan(&duplDesc, plan) {
		slog.Warn("duplication mode differs from planned buffer",
			"display", d.DeviceName,
			"mode", fmt.Sprintf("%dx%d", duplDesc.ModeDesc.Width, duplDesc.ModeDesc.Height),
			"plan", fmt.Sprintf("%dx%d", plan.BufferWidth, plan.BufferHeight))
	}

	staging, err := createStagingTexture(dev.device, plan.BufferWidth, plan.BufferHeight)
	if err != nil {
		comRelease(duplication)
		return nil, err
	}

	return &dxgiDuplication{
		dev:         dev,
		duplication: duplication,
		staging:     staging,
		width:       plan.BufferWidth,
		height:      plan.BufferHeight,
	}, nil
}

func modeMatchesPlan(desc *dxgiOutDuplDesc, plan capturePlan) bool {
	return int(desc.ModeDesc.Width) == plan.BufferWidth &&
		int(desc.ModeDesc.Height) == plan.BufferHeight
}

// findOutput scans adapter's outputs for deviceName and returns the
// output with a reference held.
func findOutput(adapter uintptr, deviceName string) (uintptr, error) {
	for oi := 0; ; oi++ {
		output, ok := enumOutput(adapter, oi)
		if !ok {
			break
		}
		desc, err := outputDesc(output)
		if err != nil {
			comRelease(output)
			continue
		}
		if syscall.UTF16ToString(desc.DeviceName[:]) == deviceName {
			return output, nil
		}
		comRelease(output)
	}
	return 0, fmt.Errorf("%w: %s", ErrOutputNotFound, deviceName)
}

func createStagingTexture(device uintptr, w, h int) (uintptr, error) {
	desc := d3d11Texture2DDesc{
		Width:          uint32(w),
		Height:         uint32(h),
		MipLevels:      1,
		ArraySize:      1,
		Format:         dxgiFormatB8G8R8A8,
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	var tex uintptr
	_, err := comCall(device, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)),
		0,
		uintptr(unsafe.Pointer(&tex)),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: create %dx%d staging texture: %v", ErrDuplicationFailure, w, h, err)
	}
	return tex, nil
}

// AcquireFrame implements duplicationSource. ACCESS_LOST and
// DEVICE_REMOVED land in the generic failure branch on purpose: the
// session never reopens mid-call, and the next capture call starts a
// fresh duplication which normally recovers.
func (c *dxgiDuplication) AcquireFrame(timeout time.Duration) (frameHandle, error) {
	var frameInfo dxgiOutDuplFrameInfo
	var resource uintptr

	hr, _, _ := syscall.SyscallN(
		comVtblFn(c.duplication, dxgiDuplAcquireNextFrame),
		c.duplication,
		uintptr(timeout.Milliseconds()),
		uintptr(unsafe.Pointer(&frameInfo)),
		uintptr(unsafe.Pointer(&resource)),
	)
	switch {
	case uint32(hr) == dxgiErrWaitTimeout:
		return nil, errFrameWaitTimeout
	case int32(hr) < 0:
		return nil, fmt.Errorf("%w: AcquireNextFrame HRESULT 0x%08X", ErrDuplicationFailure, uint32(hr))
	}
	return &dxgiFrame{dup: c, resource: resource}, nil
}

// Close releases the staging texture and the duplication interface in
// reverse acquisition order.
func (c *dxgiDuplication) Close() {
	comRelease(c.staging)
	c.staging = 0
	comRelease(c.duplication)
	c.duplication = 0
}

// readStaging maps the staging texture and copies its rows into a
// pooled image, stripping row pitch padding.
func (c *dxgiDuplication) readStaging() (*image.RGBA, error) {
	ctx := c.dev.context

	var mapped d3d11MappedSubresource
	hr, _, _ := syscall.SyscallN(
		comVtblFn(ctx, d3d11CtxMap),
		ctx,
		c.staging,
		0,
		uintptr(d3d11MapRead),
		0,
		uintptr(unsafe.Pointer(&mapped)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("%w: map staging texture HRESULT 0x%08X", ErrDuplicationFailure, uint32(hr))
	}

	img := stagingImagePool.Get(c.width, c.height)
	src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), c.height*int(mapped.RowPitch))
	copyRows(img.Pix, img.Stride, src, int(mapped.RowPitch), c.width, c.height)

	syscall.SyscallN(comVtblFn(ctx, d3d11CtxUnmap), ctx, c.staging, 0)
	return img, nil
}

// dxgiFrame is one acquired frame. Release must run before the next
// AcquireFrame on the same duplication.
type dxgiFrame struct {
	dup      *dxgiDuplication
	resource uintptr
	released bool
}

func (f *dxgiFrame) CopyToStaging() error {
	texture, err := comQueryInterface(f.resource, &iidID3D11Texture2D)
	if err != nil {
		return fmt.Errorf("%w: frame resource is not a texture: %v", ErrDuplicationFailure, err)
	}

	ctx := f.dup.dev.context
	syscall.SyscallN(comVtblFn(ctx, d3d11CtxCopyResource), ctx, f.dup.staging, texture)
	syscall.SyscallN(comVtblFn(ctx, d3d11CtxFlush), ctx)
	comRelease(texture)
	return nil
}

func (f *dxgiFrame) Release() {
	if f.released {
		return
	}
	f.released = true
	comRelease(f.resource)
	f.resource = 0
	syscall.SyscallN(comVtblFn(f.dup.duplication, dxgiDuplReleaseFrame), f.dup.duplication)
}
