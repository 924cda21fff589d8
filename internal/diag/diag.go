// Package diag reports host, display, and GPU information for
// troubleshooting capture problems.
package diag

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/breeze-rmm/screengrab/internal/capture"
	"github.com/breeze-rmm/screengrab/internal/logging"
)

var log = logging.L("diag")

type Report struct {
	Host     HostInfo          `json:"host"`
	CPU      CPUInfo           `json:"cpu"`
	Memory   MemoryInfo        `json:"memory"`
	Displays []capture.Display `json:"displays,omitempty"`
	GPUs     []GPUInfo         `json:"gpus,omitempty"`
	Monitors []string          `json:"monitors,omitempty"`
}

type HostInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	OSVersion     string `json:"osVersion"`
	KernelVersion string `json:"kernelVersion,omitempty"`
	Architecture  string `json:"architecture"`
	UptimeSeconds uint64 `json:"uptimeSeconds"`
}

type CPUInfo struct {
	Model        string  `json:"model"`
	Cores        int     `json:"cores"`
	Threads      int     `json:"threads"`
	UsagePercent float64 `json:"usagePercent"`
}

type MemoryInfo struct {
	TotalMB     uint64  `json:"totalMb"`
	UsedMB      uint64  `json:"usedMb"`
	UsedPercent float64 `json:"usedPercent"`
}

type GPUInfo struct {
	Name          string `json:"name"`
	DriverVersion string `json:"driverVersion,omitempty"`
	VRAMMB        uint64 `json:"vramMb,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Collect gathers everything it can. Fields stay zero when a probe
// fails; a partial report is more useful than none.
func Collect() *Report {
	r := &Report{}
	r.Host.Architecture = runtime.GOARCH

	hostInfo, err := host.Info()
	if err == nil {
		r.Host.Hostname = hostInfo.Hostname
		r.Host.OS = hostInfo.OS
		r.Host.OSVersion = hostInfo.Platform + " " + hostInfo.PlatformVersion
		r.Host.KernelVersion = hostInfo.KernelVersion
		r.Host.UptimeSeconds = hostInfo.Uptime
	}

	cpuInfo, err := cpu.Info()
	if err == nil && len(cpuInfo) > 0 {
		r.CPU.Model = cpuInfo[0].ModelName
		r.CPU.Cores = int(cpuInfo[0].Cores)
	}
	if counts, err := cpu.Counts(true); err == nil {
		r.CPU.Threads = counts
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		r.CPU.UsagePercent = pct[0]
	}

	vmem, err := mem.VirtualMemory()
	if err == nil {
		r.Memory.TotalMB = vmem.Total / 1024 / 1024
		r.Memory.UsedMB = vmem.Used / 1024 / 1024
		r.Memory.UsedPercent = vmem.UsedPercent
	}

	displays, err := capture.Displays()
	if err != nil {
		log.Debug("display enumeration unavailable", "error", err)
	} else {
		r.Displays = displays
	}

	r.GPUs = collectGPUs()
	r.Monitors = monitorNames()

	return r
}

// Render writes the report as human-readable text.
func Render(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Host\n")
	fmt.Fprintf(w, "  Hostname:      %s\n", r.Host.Hostname)
	fmt.Fprintf(w, "  OS:            %s (%s)\n", r.Host.OSVersion, r.Host.Architecture)
	if r.Host.KernelVersion != "" {
		fmt.Fprintf(w, "  Kernel:        %s\n", r.Host.KernelVersion)
	}
	fmt.Fprintf(w, "  Uptime:        %s\n", time.Duration(r.Host.UptimeSeconds)*time.Second)

	fmt.Fprintf(w, "\nCPU\n")
	fmt.Fprintf(w, "  Model:         %s\n", r.CPU.Model)
	fmt.Fprintf(w, "  Cores/Threads: %d/%d\n", r.CPU.Cores, r.CPU.Threads)
	fmt.Fprintf(w, "  Usage:         %.1f%%\n", r.CPU.UsagePercent)

	fmt.Fprintf(w, "\nMemory\n")
	fmt.Fprintf(w, "  Total:         %d MB\n", r.Memory.TotalMB)
	fmt.Fprintf(w, "  Used:          %d MB (%.1f%%)\n", r.Memory.UsedMB, r.Memory.UsedPercent)

	if len(r.Displays) > 0 {
		fmt.Fprintf(w, "\nDisplays\n")
		for _, d := range r.Displays {
			primary := ""
			if d.Primary {
				primary = " primary"
			}
			fmt.Fprintf(w, "  %-16s %dx%d at (%d,%d), rotation %d, adapter %d output %d%s\n",
				d.DeviceName,
				d.Bounds.Width, d.Bounds.Height,
				d.Bounds.X, d.Bounds.Y,
				d.Rotation.Degrees(),
				d.AdapterIndex, d.OutputIndex,
				primary)
		}
	}

	if len(r.GPUs) > 0 {
		fmt.Fprintf(w, "\nGPUs\n")
		for _, g := range r.GPUs {
			fmt.Fprintf(w, "  %s", g.Name)
			if g.DriverVersion != "" {
				fmt.Fprintf(w, ", driver %s", g.DriverVersion)
			}
			if g.VRAMMB > 0 {
				fmt.Fprintf(w, ", %d MB", g.VRAMMB)
			}
			if g.Status != "" {
				fmt.Fprintf(w, " (%s)", g.Status)
			}
			fmt.Fprintln(w)
		}
	}

	if len(r.Monitors) > 0 {
		fmt.Fprintf(w, "\nMonitors\n")
		for _, m := range r.Monitors {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
}
