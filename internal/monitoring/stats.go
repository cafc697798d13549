package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

var startedAt = time.Now()

// Pinger is anything with a health ping, such as the database pool
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemStats struct {
	DatabaseStatus string  `json:"database_status"`
	ResponseTimeMs int64   `json:"response_time_ms"`
	CacheStatus    string  `json:"cache_status"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	MemoryUsed     string  `json:"memory_used"`
	MemoryTotal    string  `json:"memory_total"`
	DiskPercent    float64 `json:"disk_percent"`
	DiskUsed       string  `json:"disk_used"`
	DiskTotal      string  `json:"disk_total"`
	Goroutines     int     `json:"goroutines"`
	LiveClients    int     `json:"live_clients"`
	Uptime         string  `json:"uptime"`
}

// CollectSystemStats samples the host and the database. Host metrics that
// cannot be read are left at zero.
func CollectSystemStats(ctx context.Context, db Pinger, cacheHealthy bool, hub *Hub) *SystemStats {
	s := &SystemStats{
		DatabaseStatus: "healthy",
		CacheStatus:    "disabled",
		Goroutines:     runtime.NumGoroutine(),
		Uptime:         formatUptime(time.Since(startedAt)),
	}
	if cacheHealthy {
		s.CacheStatus = "healthy"
	}
	if hub != nil {
		s.LiveClients = hub.Clients()
	}

	if db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		if err := db.Ping(pingCtx); err != nil {
			s.DatabaseStatus = "unhealthy"
		}
		s.ResponseTimeMs = time.Since(start).Milliseconds()
		cancel()
	}

	if pcts, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryPercent = vm.UsedPercent
		s.MemoryUsed = formatBytes(vm.Used)
		s.MemoryTotal = formatBytes(vm.Total)
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		s.DiskPercent = du.UsedPercent
		s.DiskUsed = formatBytes(du.Used)
		s.DiskTotal = formatBytes(du.Total)
	}
	return s
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
