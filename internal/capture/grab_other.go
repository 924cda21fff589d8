//go:build !windows

package capture

import (
	"context"
	"image"
)

// Desktop duplication is a Windows facility. Other platforms keep the
// API surface so shared code compiles, but every call fails with
// ErrNotSupported.

func Grab(ctx context.Context, req Request) (*Result, error) {
	return nil, ErrNotSupported
}

func GrabImage(ctx context.Context, req Request) (*image.RGBA, int, error) {
	return nil, 0, ErrNotSupported
}

func Displays() ([]Display, error) {
	return nil, ErrNotSupported
}

func newGPUDevice(d Display) (*gpuDevice, error) {
	return nil, ErrNotSupported
}
