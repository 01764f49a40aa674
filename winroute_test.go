package winroute

import (
	"bytes"
	"errors"
	"log/slog"
	"net/netip"
	"strings"
	"testing"

	"github.com/wesleywu/winroute/internal/testutil"
)

func TestNewWithTable(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	table := testutil.NewMemoryTable()
	rm, err := NewWithTable(table, table, WithLogger(log), WithFamily(FamilyIPv4))
	if err != nil {
		t.Fatalf("NewWithTable failed: %v", err)
	}
	defer rm.Close()

	sub := rm.SubscribeRouteChange()
	route := MustRoute(netip.MustParseAddr("223.6.6.6"), 32).WithMetric(1)
	if err := rm.AddRoute(route); err != nil {
		t.Fatalf("AddRoute failed: %v", err)
	}
	if err := rm.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	ev, ok := sub.TryRecv()
	if !ok || ev.Kind != RouteAdded {
		t.Fatalf("Expected Added event, got %v (ok=%v)", ev, ok)
	}
	if got := ev.String(); got != "Added 223.6.6.6/32 gateway 0.0.0.0 metric 1 if 1" {
		t.Errorf("Unexpected event string %q", got)
	}
	if !strings.Contains(buf.String(), "223.6.6.6/32") {
		t.Errorf("Expected route in log output, got %q", buf.String())
	}

	err = rm.AddRoute(route)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected AlreadyExists on duplicate add, got %v", err)
	}
	if typ, ok := ErrorType(err); !ok || typ != ErrTypeAlreadyExists {
		t.Errorf("Expected AlreadyExists error type, got %v (ok=%v)", typ, ok)
	}
}

func TestParseRouteAlias(t *testing.T) {
	r, err := ParseRoute("10.0.0.0/8")
	if err != nil {
		t.Fatalf("ParseRoute failed: %v", err)
	}
	if r.Family() != FamilyIPv4 {
		t.Errorf("Expected ipv4, got %v", r.Family())
	}
	if _, err := ParseRoute("10.0.0.0/40"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected InvalidParameter for /40, got %v", err)
	}
}
