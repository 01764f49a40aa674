package metrics

import (
	"sync"
	"time"
)

// Metrics represents the metrics for the route manager
type Metrics struct {
	RouteOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	AverageOpTime   time.Duration
	PollCycles      int64
	TableChanges    int64
	EventsPublished int64
	LastUpdate      time.Time
	mutex           sync.RWMutex
}

// Stats is a copy of the counters, safe to hand out
type Stats struct {
	RouteOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	AverageOpTime   time.Duration
	PollCycles      int64
	TableChanges    int64
	EventsPublished int64
	LastUpdate      time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		LastUpdate: time.Now(),
	}
}

// RecordOperation records a single add/delete round-trip
func (m *Metrics) RecordOperation(duration time.Duration, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.RouteOperations++
	if success {
		m.SuccessfulOps++
	} else {
		m.FailedOps++
	}

	if m.AverageOpTime == 0 {
		m.AverageOpTime = duration
	} else {
		m.AverageOpTime = (m.AverageOpTime + duration) / 2
	}

	m.LastUpdate = time.Now()
}

// RecordPoll records one completed poll cycle and the events it produced
func (m *Metrics) RecordPoll(events int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.PollCycles++
	if events > 0 {
		m.TableChanges++
		m.EventsPublished += int64(events)
	}
	m.LastUpdate = time.Now()
}

// GetStats returns the metrics statistics
func (m *Metrics) GetStats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Stats{
		RouteOperations: m.RouteOperations,
		SuccessfulOps:   m.SuccessfulOps,
		FailedOps:       m.FailedOps,
		AverageOpTime:   m.AverageOpTime,
		PollCycles:      m.PollCycles,
		TableChanges:    m.TableChanges,
		EventsPublished: m.EventsPublished,
		LastUpdate:      m.LastUpdate,
	}
}

// Map flattens the stats for logger.Performance
func (s Stats) Map() map[string]interface{} {
	return map[string]interface{}{
		"route_operations": s.RouteOperations,
		"successful_ops":   s.SuccessfulOps,
		"failed_ops":       s.FailedOps,
		"average_op_ms":    s.AverageOpTime.Milliseconds(),
		"poll_cycles":      s.PollCycles,
		"table_changes":    s.TableChanges,
		"events_published": s.EventsPublished,
	}
}
