// internal/transport/transport.go
package transport

import (
	"context"
	"sync"
	"time"

	"printer-service/internal/model"
)

// Transport represents one channel capable of carrying ESC/POS bytes to a printer.
// A transport owns its device handle between Connect and Disconnect.
type Transport interface {
	// Connection lifecycle
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// Data communication. A write either delivers all bytes or fails.
	Write(ctx context.Context, data []byte) error

	// Best-effort introspection
	Status(ctx context.Context) (*model.StatusReport, error)

	Kind() model.PrinterKind
}

// Stats provides transport-level statistics
type Stats struct {
	mu             sync.Mutex
	BytesWritten   int64         `json:"bytes_written"`
	WriteCount     int64         `json:"write_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
}

func (s *Stats) recordWrite(n int, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BytesWritten += int64(n)
	s.WriteCount++
	s.LastActivity = time.Now()
	if s.AverageLatency == 0 {
		s.AverageLatency = latency
	} else {
		s.AverageLatency = (s.AverageLatency + latency) / 2
	}
}

func (s *Stats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorCount++
}

// summary merges the counters into a status summary map
func (s *Stats) summary(extra map[string]interface{}) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]interface{}{
		"bytes_written":      s.BytesWritten,
		"write_count":        s.WriteCount,
		"error_count":        s.ErrorCount,
		"average_latency_ms": s.AverageLatency.Milliseconds(),
	}
	if !s.LastActivity.IsZero() {
		out["last_activity"] = s.LastActivity
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// localStatus builds the static report local transports return
func localStatus(kind model.PrinterKind, connected bool, stats *Stats, extra map[string]interface{}) *model.StatusReport {
	phase := model.PhaseDisconnected
	if connected {
		phase = model.PhaseConnected
	}
	return &model.StatusReport{
		Kind:      kind,
		Phase:     phase,
		Connected: connected,
		Live:      false,
		Summary:   stats.summary(extra),
		CheckedAt: time.Now(),
	}
}

// checkContext returns the context error if ctx is already done
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
