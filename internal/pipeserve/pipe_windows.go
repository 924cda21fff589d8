//go:build windows

package pipeserve

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// SDDL: SYSTEM gets full control, Interactive Users get read/write.
// IU excludes service accounts, batch jobs, and network logons.
const pipeSecurity = "D:P(A;;GA;;;SY)(A;;GRGW;;;IU)"

// Endpoint returns the named pipe path for the given pipe name.
func Endpoint(name string) string {
	return `\\.\pipe\` + name
}

func listen(endpoint string) (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurity,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}
	return winio.ListenPipe(endpoint, cfg)
}

// cleanupEndpoint is a no-op on Windows; the pipe disappears with its
// last handle.
func cleanupEndpoint(string) {}
