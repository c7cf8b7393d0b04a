package monitoring

import "sync/atomic"

// global is consulted by every dataset transform; nil means unmonitored
var global atomic.Pointer[MetricsCollector]

// SetGlobalCollector installs collector for all transforms. Passing nil
// turns monitoring off.
func SetGlobalCollector(collector *MetricsCollector) {
	global.Store(collector)
}

// GetGlobalCollector returns the installed collector, or nil
func GetGlobalCollector() *MetricsCollector {
	return global.Load()
}

// RecordGlobalOperation runs fn, recording it when a collector is installed
func RecordGlobalOperation(operation string, fn func() (Outcome, error)) error {
	if collector := global.Load(); collector != nil {
		return collector.RecordOperation(operation, fn)
	}
	_, err := fn()
	return err
}

// IsGlobalMonitoringEnabled reports whether transforms are being recorded
func IsGlobalMonitoringEnabled() bool {
	collector := global.Load()
	return collector != nil && collector.IsEnabled()
}

// EnableGlobalMonitoring installs a fresh, enabled collector
func EnableGlobalMonitoring() {
	global.Store(NewMetricsCollector(true))
}

// DisableGlobalMonitoring pauses the installed collector, keeping what it
// has recorded
func DisableGlobalMonitoring() {
	if collector := global.Load(); collector != nil {
		collector.SetEnabled(false)
	}
}

// GetGlobalSummary summarises the installed collector
func GetGlobalSummary() MetricsSummary {
	if collector := global.Load(); collector != nil {
		return collector.GetSummary()
	}
	return MetricsSummary{}
}
