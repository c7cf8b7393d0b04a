//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("create disabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(false)
		assert.False(t, collector.IsEnabled())
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with disabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(false)

		callCount := 0
		err := collector.RecordOperation("Regrid", func() (Outcome, error) {
			callCount++
			return Outcome{Rows: 10}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("record operation with enabled collector", func(t *testing.T) {
		collector := NewMetricsCollector(true)

		err := collector.RecordOperation("Regrid", func() (Outcome, error) {
			return Outcome{Rows: 30, Groups: 3, Parallel: true}, nil
		})
		require.NoError(t, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "Regrid", metrics[0].Operation)
		assert.Equal(t, int64(30), metrics[0].RowsProcessed)
		assert.Equal(t, 3, metrics[0].Groups)
		assert.True(t, metrics[0].Parallel)
		assert.False(t, metrics[0].Failed)
		assert.GreaterOrEqual(t, metrics[0].Duration.Nanoseconds(), int64(0))
	})

	t.Run("record failing operation", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		boom := errors.New("boom")

		err := collector.RecordOperation("FourierTransform", func() (Outcome, error) {
			return Outcome{}, boom
		})
		assert.ErrorIs(t, err, boom)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.True(t, metrics[0].Failed)
	})

	t.Run("clear and toggle", func(t *testing.T) {
		collector := NewMetricsCollector(true)
		_ = collector.RecordOperation("Sort", func() (Outcome, error) { return Outcome{}, nil })
		collector.Clear()
		assert.Empty(t, collector.GetMetrics())

		collector.SetEnabled(false)
		_ = collector.RecordOperation("Sort", func() (Outcome, error) { return Outcome{}, nil })
		assert.Empty(t, collector.GetMetrics())
	})
}

func TestMetricsSummary(t *testing.T) {
	collector := NewMetricsCollector(true)
	assert.Equal(t, MetricsSummary{}, collector.GetSummary())

	_ = collector.RecordOperation("Regrid", func() (Outcome, error) { return Outcome{Rows: 10, Parallel: true}, nil })
	_ = collector.RecordOperation("Regrid", func() (Outcome, error) { return Outcome{Rows: 5}, nil })
	_ = collector.RecordOperation("FourierTransform", func() (Outcome, error) { return Outcome{}, errors.New("x") })

	summary := collector.GetSummary()
	assert.Equal(t, 3, summary.TotalOperations)
	assert.Equal(t, int64(15), summary.TotalRows)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 1, summary.ParallelOperations)
	assert.Equal(t, map[string]int{"Regrid": 2, "FourierTransform": 1}, summary.OperationCounts)
	assert.Equal(t, []string{"FourierTransform", "Regrid"}, summary.Operations())

	data, err := summary.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 3, decoded["total_operations"])
}

func TestGlobalCollector(t *testing.T) {
	original := GetGlobalCollector()
	t.Cleanup(func() { SetGlobalCollector(original) })

	SetGlobalCollector(nil)
	assert.False(t, IsGlobalMonitoringEnabled())
	require.NoError(t, RecordGlobalOperation("Sort", func() (Outcome, error) { return Outcome{}, nil }))
	assert.Equal(t, MetricsSummary{}, GetGlobalSummary())

	EnableGlobalMonitoring()
	assert.True(t, IsGlobalMonitoringEnabled())
	require.NoError(t, RecordGlobalOperation("Sort", func() (Outcome, error) { return Outcome{Rows: 4}, nil }))
	assert.Equal(t, 1, GetGlobalSummary().TotalOperations)

	DisableGlobalMonitoring()
	assert.False(t, IsGlobalMonitoringEnabled())
}
