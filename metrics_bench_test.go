package sessionauth

import (
	"context"
	"testing"
	"time"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricProfileSuccess)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricProfileSuccess)
	}
}

func BenchmarkMetricsObserveLoginLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	d := 12 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricLoginLatency, d)
		}
	})
}

// request mix seen by a busy authd: mostly profile checks.
var requestMixMetricIDs = [...]MetricID{
	MetricProfileSuccess,
	MetricProfileSuccess,
	MetricProfileSuccess,
	MetricProfileUnauthenticated,
	MetricLoginSuccess,
	MetricLoginFailure,
	MetricSessionCreated,
	MetricLogout,
}

func BenchmarkMetricsIncRequestMixParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(requestMixMetricIDs[idx])
			idx++
			if idx == len(requestMixMetricIDs) {
				idx = 0
			}
		}
	})
}

func BenchmarkProfileLookup(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = b.TempDir()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		b.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if err := engine.Register(ctx, "bench", "bench-password"); err != nil {
		b.Fatalf("register: %v", err)
	}
	handle, err := engine.Login(ctx, "bench", "bench-password")
	if err != nil {
		b.Fatalf("login: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Profile(ctx, handle.SessionID); err != nil {
			b.Fatalf("profile: %v", err)
		}
	}
}
