package skills

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bowerhall/parley/internal/skill"
)

// Snapshot is one reading of the host the bot runs on.
type Snapshot struct {
	Hostname string  `json:"hostname"`
	OS       string  `json:"os"`
	Arch     string  `json:"arch"`
	CPUUsage float64 `json:"cpu_usage"`
	MemTotal uint64  `json:"mem_total"`
	MemUsed  uint64  `json:"mem_used"`
	MemUsage float64 `json:"mem_usage"`
	DiskPath string  `json:"disk_path"`
	DiskUsed uint64  `json:"disk_used"`
	DiskFree uint64  `json:"disk_free"`
}

type ProbeFunc func(ctx context.Context) (Snapshot, error)

// HostProbe reads CPU, memory and root disk usage.
func HostProbe(ctx context.Context) (Snapshot, error) {
	hostname, _ := os.Hostname()

	cpuPercent, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cpu: %w", err)
	}
	cpuUsage := 0.0
	if len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("memory: %w", err)
	}

	diskInfo, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return Snapshot{}, fmt.Errorf("disk: %w", err)
	}

	return Snapshot{
		Hostname: hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUUsage: cpuUsage,
		MemTotal: memInfo.Total,
		MemUsed:  memInfo.Used,
		MemUsage: memInfo.UsedPercent,
		DiskPath: "/",
		DiskUsed: diskInfo.Used,
		DiskFree: diskInfo.Free,
	}, nil
}

// NewStatus reports host stats and offers disk details. The reading is taken
// once per activation, so the follow-up answer describes the same snapshot.
func NewStatus(probe ProbeFunc) *skill.Definition {
	if probe == nil {
		probe = HostProbe
	}

	return skill.New("status", func(t *skill.Turn, msg string) error {
		snap, err := skill.Call[Snapshot](t, "probe", probe)
		if err != nil {
			return err
		}

		t.Say(fmt.Sprintf("%s (%s/%s): CPU %.1f%%, memory %s of %s (%.1f%%)",
			snap.Hostname, snap.OS, snap.Arch,
			snap.CPUUsage,
			formatBytes(snap.MemUsed), formatBytes(snap.MemTotal), snap.MemUsage,
		))

		answer, err := t.Ask("Show disk usage too? (yes/no)")
		if err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "yes", "y":
			return t.Finish(fmt.Sprintf("Disk %s: %s used, %s free",
				snap.DiskPath, formatBytes(snap.DiskUsed), formatBytes(snap.DiskFree)))
		case "no", "n":
			return t.Finish("Ok")
		default:
			return t.Abort("expected yes or no")
		}
	})
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
