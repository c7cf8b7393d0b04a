// Package monitoring provides metrics collection for dataset transforms.
package monitoring

import (
	"encoding/json"
	"runtime"
	"sort"
	"sync"
	"time"
)

// OperationMetrics represents performance metrics for a single dataset operation.
type OperationMetrics struct {
	Duration      time.Duration `json:"duration"`
	RowsProcessed int64         `json:"rows_processed"`
	Groups        int           `json:"groups"`
	MemoryUsed    int64         `json:"memory_used"`
	Operation     string        `json:"operation"`
	Parallel      bool          `json:"parallel"`
	Failed        bool          `json:"failed"`
}

// Outcome is what an operation reports about its own work.
type Outcome struct {
	Rows     int64
	Groups   int
	Parallel bool
}

// MetricsCollector collects and stores performance metrics for dataset operations.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation executes fn and records its duration, heap growth and
// reported outcome. The error of fn is returned unchanged.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() (Outcome, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	start := time.Now()
	outcome, err := fn()
	duration := time.Since(start)

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	metrics := OperationMetrics{
		Duration:      duration,
		RowsProcessed: outcome.Rows,
		Groups:        outcome.Groups,
		MemoryUsed:    int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // monotonic counter
		Operation:     operation,
		Parallel:      outcome.Parallel,
		Failed:        err != nil,
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, metrics)
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalMemory int64
	var totalRows int64
	var failures, parallel int
	operationCounts := make(map[string]int)

	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		totalMemory += metric.MemoryUsed
		totalRows += metric.RowsProcessed
		operationCounts[metric.Operation]++
		if metric.Failed {
			failures++
		}
		if metric.Parallel {
			parallel++
		}
	}

	return MetricsSummary{
		TotalOperations:    len(mc.metrics),
		TotalDuration:      totalDuration,
		TotalMemory:        totalMemory,
		TotalRows:          totalRows,
		Failures:           failures,
		ParallelOperations: parallel,
		OperationCounts:    operationCounts,
		AverageDuration:    totalDuration / time.Duration(len(mc.metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations    int            `json:"total_operations"`
	TotalDuration      time.Duration  `json:"total_duration"`
	TotalMemory        int64          `json:"total_memory"`
	TotalRows          int64          `json:"total_rows"`
	Failures           int            `json:"failures"`
	ParallelOperations int            `json:"parallel_operations"`
	OperationCounts    map[string]int `json:"operation_counts"`
	AverageDuration    time.Duration  `json:"average_duration"`
}

// Operations returns the recorded operation names in sorted order
func (s MetricsSummary) Operations() []string {
	names := make([]string, 0, len(s.OperationCounts))
	for name := range s.OperationCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSON renders the summary for reports
func (s MetricsSummary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
