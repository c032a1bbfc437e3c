package metrics

import (
	"sync"
)

var (
	globalMu      sync.RWMutex
	globalMonitor *Monitor
)

// SetGlobalMonitor 设置全局监控器实例
func SetGlobalMonitor(monitor *Monitor) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMonitor = monitor
}

// GetGlobalMonitor 获取全局监控器实例, 未初始化时返回 nil
func GetGlobalMonitor() *Monitor {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMonitor
}

// IsGlobalMonitorEnabled 检查全局监控器是否启用
func IsGlobalMonitorEnabled() bool {
	monitor := GetGlobalMonitor()
	return monitor != nil && monitor.IsEnabled()
}
