//go:build windows

package capture

// DXGI and Direct3D 11 bindings for desktop duplication, done over raw
// vtables so no cgo is needed. Interface method indices follow the
// declaration order in dxgi.h / d3d11.h and are ABI-stable.

import (
	"syscall"
)

var (
	d3d11DLL = syscall.NewLazyDLL("d3d11.dll")
	dxgiDLL  = syscall.NewLazyDLL("dxgi.dll")
	user32   = syscall.NewLazyDLL("user32.dll")

	procD3D11CreateDevice  = d3d11DLL.NewProc("D3D11CreateDevice")
	procCreateDXGIFactory1 = dxgiDLL.NewProc("CreateDXGIFactory1")
)

const (
	d3dDriverTypeUnknown  = 0 // required when an explicit adapter is passed
	d3dDriverTypeHardware = 1

	d3dFeatureLevel11_0 = 0xb000
	d3d11SDKVersion     = 7

	d3d11CreateDeviceBGRASupport = 0x20

	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	d3d11MapRead       = 1
	dxgiFormatB8G8R8A8 = 87
)

// HRESULTs the capture path distinguishes.
const (
	dxgiErrNotFound      = 0x887A0002 // end of enumeration
	dxgiErrWaitTimeout   = 0x887A0027
	dxgiErrAccessLost    = 0x887A0026
	dxgiErrDeviceRemoved = 0x887A0005
)

// Vtable indices per interface, in dxgi.h / d3d11.h declaration order.
const (
	dxgiFactory1EnumAdapters1 = 12 // IDXGIFactory1::EnumAdapters1
	dxgiAdapterEnumOutputs    = 7  // IDXGIAdapter1::EnumOutputs
	dxgiOutputGetDesc         = 7  // IDXGIOutput::GetDesc
	dxgiOutput1DuplicateOut   = 22 // IDXGIOutput1::DuplicateOutput

	dxgiDuplGetDesc          = 7  // IDXGIOutputDuplication::GetDesc
	dxgiDuplAcquireNextFrame = 8  // IDXGIOutputDuplication::AcquireNextFrame
	dxgiDuplReleaseFrame     = 14 // IDXGIOutputDuplication::ReleaseFrame

	d3d11DeviceCreateTexture2D = 5 // ID3D11Device::CreateTexture2D

	d3d11CtxMap          = 14  // ID3D11DeviceContext::Map
	d3d11CtxUnmap        = 15  // ID3D11DeviceContext::Unmap
	d3d11CtxCopyResource = 47  // ID3D11DeviceContext::CopyResource
	d3d11CtxFlush        = 111 // ID3D11DeviceContext::Flush
)

var (
	iidIDXGIFactory1 = comGUID{0x770aae78, 0xf26f, 0x4dba,
		[8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	iidIDXGIOutput1 = comGUID{0x00cddea8, 0x939b, 0x4b83,
		[8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidID3D11Texture2D = comGUID{0x6f15aaf2, 0xd208, 0x4e89,
		[8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// DXGI_OUTPUT_DESC.
type dxgiOutputDesc struct {
	DeviceName        [32]uint16
	Left              int32
	Top               int32
	Right             int32
	Bottom            int32
	AttachedToDesktop int32
	Rotation          uint32
	Monitor           uintptr
}

type dxgiRational struct {
	Numerator   uint32
	Denominator uint32
}

// DXGI_MODE_DESC.
type dxgiModeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      dxgiRational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

// DXGI_OUTDUPL_DESC.
type dxgiOutDuplDesc struct {
	ModeDesc                   dxgiModeDesc
	Rotation                   uint32
	DesktopImageInSystemMemory int32
}

// DXGI_OUTDUPL_FRAME_INFO.
type dxgiOutDuplFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

// D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}
