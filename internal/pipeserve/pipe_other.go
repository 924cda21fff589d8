//go:build !windows

package pipeserve

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Endpoint returns the unix socket path for the given pipe name.
func Endpoint(name string) string {
	return filepath.Join(os.TempDir(), name+".sock")
}

func listen(endpoint string) (net.Listener, error) {
	// Remove stale socket file
	os.Remove(endpoint)

	dir := filepath.Dir(endpoint)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	listener, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, err
	}

	// Owner + group can connect.
	if err := os.Chmod(endpoint, 0770); err != nil {
		listener.Close()
		return nil, fmt.Errorf("chmod %s: %w", endpoint, err)
	}
	return listener, nil
}

func cleanupEndpoint(endpoint string) {
	os.Remove(endpoint)
}
