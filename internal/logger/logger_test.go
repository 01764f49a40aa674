package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestValidLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"INFO", true},
		{"warn", true},
		{"error", true},
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ValidLevel(tt.level); got != tt.valid {
				t.Errorf("Expected ValidLevel(%q) to be %v, got %v", tt.level, tt.valid, got)
			}
		})
	}
}

func TestRouteChangeFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info").WithComponent("bridge")

	log.RouteChange("Added", "10.0.0.0/8 gateway 0.0.0.0 metric 1 if 3", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "bridge" || entry["event"] != "Added" {
		t.Errorf("Unexpected entry %v", entry)
	}
	if entry["subscribers"] != float64(2) {
		t.Errorf("Expected 2 subscribers, got %v", entry["subscribers"])
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.RouteOperation("add", "10.0.0.0/8", "", 1, true)
	if buf.Len() != 0 {
		t.Errorf("Expected no debug entry at info level, got %q", buf.String())
	}

	NewWithWriter(&buf, "debug").RouteOperation("add", "10.0.0.0/8", "", 1, true)
	if buf.Len() == 0 {
		t.Error("Expected debug entry at debug level")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.MonitorStart("all", 3)
	if log.Enabled(context.Background(), slog.LevelError) {
		t.Error("Nop logger should not be enabled")
	}
}
