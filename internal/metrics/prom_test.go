package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	SetServerBuildInfo("1.0.0", "abc", "2024-01-01")

	RelayStart()
	RecordFragment("local")
	RecordFragment("local")
	RelayEnd("local", true, 100*time.Millisecond)
	RelayStart()
	RelayEnd("nova", false, time.Second)
	RecordConnection("websocket")

	if v := testutil.ToFloat64(relayRequests.WithLabelValues("local", "success")); v != 1 {
		t.Fatalf("local success: %v", v)
	}
	if v := testutil.ToFloat64(relayRequests.WithLabelValues("nova", "error")); v != 1 {
		t.Fatalf("nova error: %v", v)
	}
	if v := testutil.ToFloat64(relayFragments.WithLabelValues("local")); v != 2 {
		t.Fatalf("fragments: %v", v)
	}
	if v := testutil.ToFloat64(relayInflight); v != 0 {
		t.Fatalf("inflight: %v", v)
	}
	if v := testutil.ToFloat64(connections.WithLabelValues("websocket")); v != 1 {
		t.Fatalf("connections: %v", v)
	}
	if v := testutil.ToFloat64(buildInfo.WithLabelValues("2024-01-01", "abc", "1.0.0")); v != 1 {
		t.Fatalf("build info: %v", v)
	}
	if n := testutil.CollectAndCount(relayDuration); n != 2 {
		t.Fatalf("duration series: %d", n)
	}
}
