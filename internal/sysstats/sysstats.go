// Package sysstats backs GET /api/system-stats (spec §6) with host CPU,
// memory, and disk figures from github.com/shirou/gopsutil/v3, the host
// metrics library guiperry-HASHER's UI uses for the same kind of at-a-glance
// resource readout (see SPEC_FULL.md's domain-stack table).
package sysstats

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Stats is the JSON shape of GET /api/system-stats.
type Stats struct {
	CPUPercent   float64 `json:"cpu_percent"`
	MemUsedBytes uint64  `json:"mem_used_bytes"`
	MemTotalBytes uint64 `json:"mem_total_bytes"`
	DiskUsedBytes uint64 `json:"disk_used_bytes"`
	DiskTotalBytes uint64 `json:"disk_total_bytes"`
}

// Collect gathers a snapshot of host resource usage. diskPath is the
// recording store's root, so the reported disk figures reflect the
// filesystem QMDL files are actually written to.
func Collect(diskPath string) (Stats, error) {
	const op = "sysstats.Collect"

	cpuPercents, err := cpu.Percent(0, false)
	if err != nil {
		return Stats{}, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Stats{}, rherr.Wrap(op, rherr.CodeIoError, err)
	}

	du, err := disk.Usage(diskPath)
	if err != nil {
		return Stats{}, rherr.Wrap(op, rherr.CodeIoError, err)
	}

	return Stats{
		CPUPercent:     cpuPercent,
		MemUsedBytes:   vm.Used,
		MemTotalBytes:  vm.Total,
		DiskUsedBytes:  du.Used,
		DiskTotalBytes: du.Total,
	}, nil
}
