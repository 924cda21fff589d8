//go:build !windows

package diag

func collectGPUs() []GPUInfo { return nil }

func monitorNames() []string { return nil }
