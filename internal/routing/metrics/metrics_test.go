package metrics

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()

	// Test initial state
	stats := metrics.GetStats()
	if stats.RouteOperations != 0 || stats.SuccessfulOps != 0 || stats.FailedOps != 0 || stats.PollCycles != 0 {
		t.Error("Initial metrics should be zero")
	}

	// Record successful operation
	metrics.RecordOperation(100*time.Millisecond, true)
	stats = metrics.GetStats()

	if stats.RouteOperations != 1 {
		t.Errorf("Expected 1 operation, got %d", stats.RouteOperations)
	}

	if stats.SuccessfulOps != 1 {
		t.Errorf("Expected 1 success, got %d", stats.SuccessfulOps)
	}

	if stats.AverageOpTime != 100*time.Millisecond {
		t.Errorf("Expected 100ms avg time, got %v", stats.AverageOpTime)
	}

	// Record failed operation
	metrics.RecordOperation(200*time.Millisecond, false)
	stats = metrics.GetStats()

	if stats.RouteOperations != 2 {
		t.Errorf("Expected 2 operations, got %d", stats.RouteOperations)
	}

	if stats.FailedOps != 1 {
		t.Errorf("Expected 1 failure, got %d", stats.FailedOps)
	}

	if stats.AverageOpTime != 150*time.Millisecond {
		t.Errorf("Expected 150ms avg time, got %v", stats.AverageOpTime)
	}
}

func TestRecordPoll(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordPoll(0)
	metrics.RecordPoll(3)
	stats := metrics.GetStats()

	if stats.PollCycles != 2 {
		t.Errorf("Expected 2 poll cycles, got %d", stats.PollCycles)
	}
	if stats.TableChanges != 1 {
		t.Errorf("Expected 1 table change, got %d", stats.TableChanges)
	}
	if stats.EventsPublished != 3 {
		t.Errorf("Expected 3 events, got %d", stats.EventsPublished)
	}

	m := stats.Map()
	if m["poll_cycles"] != int64(2) {
		t.Errorf("Expected poll_cycles 2 in map, got %v", m["poll_cycles"])
	}
}
