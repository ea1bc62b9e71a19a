package go_smcu

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines the interface for collecting emulator metrics.
// Applications can plug in their own implementation (Prometheus, StatsD, ...);
// InMemoryMetrics covers tests and development.
//
// All methods are safe for concurrent use and should be non-blocking.
type MetricsCollector interface {
	// IncrementSignature counts a successful signature.
	// kind is SIGN_KIND_PAYLOAD or SIGN_KIND_PACKET.
	IncrementSignature(kind string)

	// IncrementError counts a rejected sign request by error category
	// ("length", "not_initialized", "invalid_input", "other").
	IncrementError(errorType string)

	// AddBytesSigned adds the size of a signed message.
	AddBytesSigned(bytes uint64)

	// RecordSignLatency records the duration of one signing operation.
	RecordSignLatency(kind string, duration time.Duration)
}

// InMemoryMetrics provides a simple in-memory implementation of MetricsCollector.
//
// All operations are thread-safe using atomic operations and minimal locking.
type InMemoryMetrics struct {
	payloadSignatures uint64
	packetSignatures  uint64
	bytesSigned       uint64

	// Error tracking (map protected by mutex)
	errorsMu     sync.RWMutex
	errorsByType map[string]uint64

	// Latency tracking (protected by mutex for histogram updates)
	latencyMu     sync.RWMutex
	latencyByKind map[string]*latencyStats
}

// latencyStats tracks latency statistics for a signature kind
type latencyStats struct {
	count      uint64
	totalNanos uint64
	minNanos   uint64
	maxNanos   uint64
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		errorsByType:  make(map[string]uint64),
		latencyByKind: make(map[string]*latencyStats),
	}
}

// IncrementSignature increments the signature counter for kind.
func (m *InMemoryMetrics) IncrementSignature(kind string) {
	switch kind {
	case SIGN_KIND_PACKET:
		atomic.AddUint64(&m.packetSignatures, 1)
	default:
		atomic.AddUint64(&m.payloadSignatures, 1)
	}
}

// IncrementError increments the error counter for the given error type.
func (m *InMemoryMetrics) IncrementError(errorType string) {
	m.errorsMu.Lock()
	m.errorsByType[errorType]++
	m.errorsMu.Unlock()
}

// AddBytesSigned adds to the total bytes signed.
func (m *InMemoryMetrics) AddBytesSigned(bytes uint64) {
	atomic.AddUint64(&m.bytesSigned, bytes)
}

// RecordSignLatency records the latency for a signature kind.
func (m *InMemoryMetrics) RecordSignLatency(kind string, duration time.Duration) {
	nanos := uint64(duration.Nanoseconds())

	m.latencyMu.Lock()
	defer m.latencyMu.Unlock()

	stats := m.latencyByKind[kind]
	if stats == nil {
		stats = &latencyStats{
			minNanos: nanos,
			maxNanos: nanos,
		}
		m.latencyByKind[kind] = stats
	}

	stats.count++
	stats.totalNanos += nanos

	if nanos < stats.minNanos {
		stats.minNanos = nanos
	}
	if nanos > stats.maxNanos {
		stats.maxNanos = nanos
	}
}

// Getter methods for programmatic access to metrics

// Signatures returns the number of successful signatures of kind.
func (m *InMemoryMetrics) Signatures(kind string) uint64 {
	if kind == SIGN_KIND_PACKET {
		return atomic.LoadUint64(&m.packetSignatures)
	}
	return atomic.LoadUint64(&m.payloadSignatures)
}

// BytesSigned returns the total bytes signed.
func (m *InMemoryMetrics) BytesSigned() uint64 {
	return atomic.LoadUint64(&m.bytesSigned)
}

// Errors returns the total count of errors by type.
func (m *InMemoryMetrics) Errors(errorType string) uint64 {
	m.errorsMu.RLock()
	defer m.errorsMu.RUnlock()
	return m.errorsByType[errorType]
}

// AllErrors returns a copy of all error counts by type.
func (m *InMemoryMetrics) AllErrors() map[string]uint64 {
	m.errorsMu.RLock()
	defer m.errorsMu.RUnlock()

	result := make(map[string]uint64, len(m.errorsByType))
	for k, v := range m.errorsByType {
		result[k] = v
	}
	return result
}

// SignCount returns how many latency samples were recorded for kind.
func (m *InMemoryMetrics) SignCount(kind string) uint64 {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByKind[kind]
	if stats == nil {
		return 0
	}
	return stats.count
}

// AvgLatency returns the average signing latency for kind.
// Returns 0 if no measurements have been recorded.
func (m *InMemoryMetrics) AvgLatency(kind string) time.Duration {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByKind[kind]
	if stats == nil || stats.count == 0 {
		return 0
	}

	return time.Duration(stats.totalNanos / stats.count)
}

// MinLatency returns the minimum signing latency for kind.
func (m *InMemoryMetrics) MinLatency(kind string) time.Duration {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByKind[kind]
	if stats == nil {
		return 0
	}

	return time.Duration(stats.minNanos)
}

// MaxLatency returns the maximum signing latency for kind.
func (m *InMemoryMetrics) MaxLatency(kind string) time.Duration {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByKind[kind]
	if stats == nil {
		return 0
	}

	return time.Duration(stats.maxNanos)
}

// Reset clears all metrics. Useful for testing.
func (m *InMemoryMetrics) Reset() {
	atomic.StoreUint64(&m.payloadSignatures, 0)
	atomic.StoreUint64(&m.packetSignatures, 0)
	atomic.StoreUint64(&m.bytesSigned, 0)

	m.errorsMu.Lock()
	m.errorsByType = make(map[string]uint64)
	m.errorsMu.Unlock()

	m.latencyMu.Lock()
	m.latencyByKind = make(map[string]*latencyStats)
	m.latencyMu.Unlock()
}
