//go:build windows

package capture

import (
	"testing"
	"unsafe"
)

// A COM interface pointer addresses a struct whose first word points at
// the vtable. Lay that shape out by hand and check every slot resolves
// to the method pointer, not the vtable pointer or object memory.
func TestComVtblFnIndexesThroughObject(t *testing.T) {
	vtbl := [8]uintptr{0x1111, 0x2222, 0x3333, 0x4444, 0x5555, 0x6666, 0x7777, 0x8888}
	object := struct {
		vtbl *[8]uintptr
		data [2]uintptr
	}{vtbl: &vtbl, data: [2]uintptr{0xdead, 0xbeef}}

	obj := uintptr(unsafe.Pointer(&object))
	for i, want := range vtbl {
		if got := comVtblFn(obj, i); got != want {
			t.Fatalf("slot %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestModeMatchesPlan(t *testing.T) {
	plan := capturePlan{BufferWidth: 1920, BufferHeight: 1080}

	desc := dxgiOutDuplDesc{}
	desc.ModeDesc.Width = 1920
	desc.ModeDesc.Height = 1080
	if !modeMatchesPlan(&desc, plan) {
		t.Fatal("matching mode reported as mismatch")
	}

	desc.ModeDesc.Width = 1080
	desc.ModeDesc.Height = 1920
	if modeMatchesPlan(&desc, plan) {
		t.Fatal("swapped mode reported as match")
	}
}
