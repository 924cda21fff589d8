//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"unsafe"
)

// comGUID is a COM GUID in registry byte order.
type comGUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// IUnknown vtable slots shared by every COM interface.
const (
	vtblQueryInterface = 0
	vtblAddRef         = 1
	vtblRelease        = 2
)

// comVtblFn returns the function pointer at vtable slot index of obj.
// A COM interface pointer is the address of a struct whose first word
// holds the vtable pointer.
func comVtblFn(obj uintptr, index int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(index)*unsafe.Sizeof(uintptr(0))))
}

// comCall invokes vtable slot index on obj with the given args. The
// object pointer is passed as the implicit first argument. A negative
// HRESULT becomes an error.
func comCall(obj uintptr, index int, args ...uintptr) (uintptr, error) {
	callArgs := make([]uintptr, 0, len(args)+1)
	callArgs = append(callArgs, obj)
	callArgs = append(callArgs, args...)

	hr, _, _ := syscall.SyscallN(comVtblFn(obj, index), callArgs...)
	if int32(hr) < 0 {
		return hr, fmt.Errorf("COM vtable[%d] HRESULT 0x%08X", index, uint32(hr))
	}
	return hr, nil
}

// comRelease calls IUnknown::Release. Safe on zero handles.
func comRelease(obj uintptr) {
	if obj != 0 {
		syscall.SyscallN(comVtblFn(obj, vtblRelease), obj)
	}
}

// comQueryInterface asks obj for the interface identified by iid.
func comQueryInterface(obj uintptr, iid *comGUID) (uintptr, error) {
	var out uintptr
	_, err := comCall(obj, vtblQueryInterface,
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	if err != nil {
		return 0, err
	}
	return out, nil
}
