package go_smcu

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.IncrementSignature(SIGN_KIND_PAYLOAD)
	m.IncrementSignature(SIGN_KIND_PAYLOAD)
	m.IncrementSignature(SIGN_KIND_PACKET)
	m.AddBytesSigned(10)
	m.AddBytesSigned(22)
	m.IncrementError("length")

	if got := m.Signatures(SIGN_KIND_PAYLOAD); got != 2 {
		t.Errorf("Payload signatures = %d, want 2", got)
	}
	if got := m.Signatures(SIGN_KIND_PACKET); got != 1 {
		t.Errorf("Packet signatures = %d, want 1", got)
	}
	if got := m.BytesSigned(); got != 32 {
		t.Errorf("BytesSigned = %d, want 32", got)
	}
	if got := m.AllErrors(); len(got) != 1 || got["length"] != 1 {
		t.Errorf("AllErrors = %v", got)
	}

	m.Reset()
	if m.Signatures(SIGN_KIND_PAYLOAD) != 0 || m.BytesSigned() != 0 || m.Errors("length") != 0 {
		t.Error("Reset should clear all counters")
	}
}

func TestInMemoryMetricsLatency(t *testing.T) {
	m := NewInMemoryMetrics()

	if m.AvgLatency(SIGN_KIND_PACKET) != 0 {
		t.Error("AvgLatency without samples should be 0")
	}

	m.RecordSignLatency(SIGN_KIND_PACKET, 10*time.Microsecond)
	m.RecordSignLatency(SIGN_KIND_PACKET, 30*time.Microsecond)

	if got := m.SignCount(SIGN_KIND_PACKET); got != 2 {
		t.Errorf("SignCount = %d, want 2", got)
	}
	if got := m.AvgLatency(SIGN_KIND_PACKET); got != 20*time.Microsecond {
		t.Errorf("AvgLatency = %v, want 20µs", got)
	}
	if got := m.MinLatency(SIGN_KIND_PACKET); got != 10*time.Microsecond {
		t.Errorf("MinLatency = %v, want 10µs", got)
	}
	if got := m.MaxLatency(SIGN_KIND_PACKET); got != 30*time.Microsecond {
		t.Errorf("MaxLatency = %v, want 30µs", got)
	}
}

func TestInMemoryMetricsConcurrent(t *testing.T) {
	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementSignature(SIGN_KIND_PAYLOAD)
			m.IncrementError("other")
			m.RecordSignLatency(SIGN_KIND_PAYLOAD, time.Microsecond)
		}()
	}
	wg.Wait()

	if got := m.Signatures(SIGN_KIND_PAYLOAD); got != 50 {
		t.Errorf("Signatures = %d, want 50", got)
	}
	if got := m.Errors("other"); got != 50 {
		t.Errorf("Errors = %d, want 50", got)
	}
}

var _ MetricsCollector = (*InMemoryMetrics)(nil)
