package metrics

import (
	"sync/atomic"
	"time"
)

// Names of the gauges a SourceReaderMetrics registers. The reporting
// subsystem addresses the reader's signals by these names.
const (
	MetricFetchEventTimeLag = "current_fetch_event_time_lag"
	MetricEmitEventTimeLag  = "current_emit_event_time_lag"
	MetricSourceIdleTime    = "source_idle_time"
	MetricPendingRecords    = "pending_records"
	MetricRecordsInErrors   = "num_records_in_errors"
)

// GaugeRegistry is the single capability the aggregator needs from the
// metrics-reporting subsystem: register a named gauge backed by a
// zero-argument callback. The registry invokes the callback on its own
// schedule, so callbacks must be cheap and non-blocking.
type GaugeRegistry interface {
	RegisterGauge(name, help string, value func() int64)
}

// SourceReaderMetrics aggregates latency, backlog and error signals for a
// single source reader instance. Writers are the reader's processing
// goroutines, readers are the registry's polling goroutines; every field is
// an independently updated atomic scalar, so no lock is held on either path.
type SourceReaderMetrics struct {
	registry GaugeRegistry

	// processTime is the wall-clock time (ms since epoch) the last batch
	// was fetched. Zero means no batch has been fetched yet.
	processTime atomic.Int64

	// fetchDelay is the latest observed fetch-time minus record-timestamp,
	// in milliseconds. Overwritten on every observation.
	fetchDelay atomic.Int64

	// emitDelay is the latest observed emit-time minus record-timestamp,
	// in milliseconds. Overwritten on every observation.
	emitDelay atomic.Int64

	// pendingRecords is the reader's estimate of records not yet fetched
	// from the upstream source.
	pendingRecords atomic.Int64

	// errorCount is the cumulative number of records that failed to
	// consume, process or emit.
	errorCount atomic.Int64
}

// NewSourceReaderMetrics creates an aggregator bound to the given registry.
// All signals start at zero; nothing is registered until RegisterMetrics.
func NewSourceReaderMetrics(registry GaugeRegistry) *SourceReaderMetrics {
	return &SourceReaderMetrics{registry: registry}
}

// RegisterMetrics registers the five pull gauges with the registry. Each
// gauge reads the live field at call time, not a snapshot taken here.
// Called once, after construction and before the reader starts.
func (m *SourceReaderMetrics) RegisterMetrics() {
	m.registry.RegisterGauge(MetricFetchEventTimeLag,
		"Latency in ms between a record's timestamp and its arrival at the reader", m.FetchDelay)
	m.registry.RegisterGauge(MetricEmitEventTimeLag,
		"Latency in ms between a record's timestamp and its departure from the reader", m.EmitDelay)
	m.registry.RegisterGauge(MetricSourceIdleTime,
		"Time in ms since the reader last fetched a batch", m.IdleTime)
	m.registry.RegisterGauge(MetricPendingRecords,
		"Estimated records not yet fetched from the upstream source", m.PendingRecords)
	m.registry.RegisterGauge(MetricRecordsInErrors,
		"Total records that failed to consume, process or emit", m.NumRecordsInErrors)
}

// FetchDelay returns the most recently recorded fetch lag in milliseconds.
func (m *SourceReaderMetrics) FetchDelay() int64 {
	return m.fetchDelay.Load()
}

// EmitDelay returns the most recently recorded emit lag in milliseconds.
func (m *SourceReaderMetrics) EmitDelay() int64 {
	return m.emitDelay.Load()
}

// IdleTime returns the elapsed milliseconds since the last batch fetch, or
// 0 if no batch has ever been fetched.
func (m *SourceReaderMetrics) IdleTime() int64 {
	t := m.processTime.Load()
	if t == 0 {
		// no previous process time yet, report 0 rather than "since epoch"
		return 0
	}
	return time.Now().UnixMilli() - t
}

// PendingRecords returns the current backlog estimate.
func (m *SourceReaderMetrics) PendingRecords() int64 {
	return m.pendingRecords.Load()
}

// NumRecordsInErrors returns the cumulative error count.
func (m *SourceReaderMetrics) NumRecordsInErrors() int64 {
	return m.errorCount.Load()
}

// RecordProcessTime sets the idle-time baseline to t (ms since epoch).
// Called whenever a new batch is fetched.
func (m *SourceReaderMetrics) RecordProcessTime(t int64) {
	m.processTime.Store(t)
}

// RecordFetchDelay overwrites the fetch lag with the latest observation.
func (m *SourceReaderMetrics) RecordFetchDelay(d int64) {
	m.fetchDelay.Store(d)
}

// RecordEmitDelay overwrites the emit lag with the latest observation.
func (m *SourceReaderMetrics) RecordEmitDelay(d int64) {
	m.emitDelay.Store(d)
}

// RecordPendingRecords overwrites the backlog estimate.
func (m *SourceReaderMetrics) RecordPendingRecords(n int64) {
	m.pendingRecords.Store(n)
}

// RecordNumRecordsInErrors sets the error count to an absolute value, used
// to reconcile with an externally tracked total on reader restart.
func (m *SourceReaderMetrics) RecordNumRecordsInErrors(n int64) {
	m.errorCount.Store(n)
}

// AddNumRecordsInErrors atomically adds delta to the error count and
// returns the count as it was before the add, so concurrent writers never
// lose updates.
func (m *SourceReaderMetrics) AddNumRecordsInErrors(delta int64) int64 {
	return m.errorCount.Add(delta) - delta
}
