package scrapers

import (
	"github.com/RecoveryAshes/BadgeHarvest/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 每个worker在抓取期间独占一个无头浏览器实例,内存开销可观;
// 根据可用内存和CPU负载把请求的并发数收窄到安全范围
type ResourceMonitor struct {
	config ResourceMonitorConfig
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64   // 安全保留内存(字节)
	WorkerMemoryUsage   int64   // 单worker预估内存消耗(字节)
	CPULoadThreshold    float64 // CPU负载阈值(%)
	MaxWorkersLimit     int     // 绝对最大worker数
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WorkerMemoryUsage == 0 {
		config.WorkerMemoryUsage = 400 * 1024 * 1024 // 每个无头浏览器约400MB
	}
	if config.SafetyReserveMemory == 0 {
		config.SafetyReserveMemory = 1024 * 1024 * 1024 // 1GB
	}
	if config.CPULoadThreshold == 0 {
		config.CPULoadThreshold = 90
	}
	if config.MaxWorkersLimit == 0 {
		config.MaxWorkersLimit = 16
	}
	return &ResourceMonitor{config: config}
}

// CalculateMaxWorkers 根据当前可用内存计算可安全并发的worker数
// 内存信息不可用时退回绝对上限,至少返回1
func (rm *ResourceMonitor) CalculateMaxWorkers() int {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		utils.Warnf("获取系统内存失败: %v, 使用配置上限 %d", err, rm.config.MaxWorkersLimit)
		return rm.config.MaxWorkersLimit
	}

	available := int64(vmStat.Available) - rm.config.SafetyReserveMemory
	workers := rm.config.MaxWorkersLimit
	if available < rm.config.WorkerMemoryUsage {
		workers = 1
	} else if n := int(available / rm.config.WorkerMemoryUsage); n < workers {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// ClampWorkers 将请求的worker数收窄到资源允许的范围
func (rm *ResourceMonitor) ClampWorkers(requested int) int {
	allowed := rm.CalculateMaxWorkers()

	// CPU负载过高时减半
	if load, err := rm.currentCPULoad(); err == nil && load > rm.config.CPULoadThreshold {
		utils.Warnf("CPU负载过高 (%.1f%% > %.1f%%), worker数减半", load, rm.config.CPULoadThreshold)
		allowed = allowed / 2
		if allowed < 1 {
			allowed = 1
		}
	}

	if requested > allowed {
		utils.Warnf("资源受限: worker数从 %d 收窄到 %d", requested, allowed)
		return allowed
	}
	return requested
}

// currentCPULoad 返回当前系统CPU使用率(%)
func (rm *ResourceMonitor) currentCPULoad() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0, err
	}
	return percents[0], nil
}
