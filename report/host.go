package report

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo describes the machine the benchmark ran on.
type HostInfo struct {
	OS          string `json:"os"`
	Platform    string `json:"platform,omitempty"`
	Kernel      string `json:"kernel,omitempty"`
	CPU         string `json:"cpu,omitempty"`
	Cores       int    `json:"cores"`
	MemoryBytes uint64 `json:"memory_bytes"`
}

// CollectHostInfo gathers host details. Fields that cannot be read are
// left empty rather than failing the run.
func CollectHostInfo() HostInfo {
	info := HostInfo{
		OS:    runtime.GOOS + "/" + runtime.GOARCH,
		Cores: runtime.NumCPU(),
	}

	if h, err := host.Info(); err == nil {
		info.Platform = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
		info.Kernel = h.KernelVersion
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPU = cpus[0].ModelName
	}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.Cores = n
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryBytes = vm.Total
	}

	return info
}

func writeHost(b *strings.Builder, h HostInfo) {
	if h.OS == "" {
		return
	}

	b.WriteString("## Environment\n\n")
	fmt.Fprintf(b, "- OS: %s\n", h.OS)

	if h.Platform != "" {
		fmt.Fprintf(b, "- Platform: %s\n", h.Platform)
	}

	if h.Kernel != "" {
		fmt.Fprintf(b, "- Kernel: %s\n", h.Kernel)
	}

	if h.CPU != "" {
		fmt.Fprintf(b, "- CPU: %s\n", h.CPU)
	}

	fmt.Fprintf(b, "- Logical cores: %d\n", h.Cores)
	fmt.Fprintf(b, "- Memory: %s\n\n", formatBytes(h.MemoryBytes))
}
