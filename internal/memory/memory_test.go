package memory

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"testing"
	"time"
)

func testMonitor(limit int64, alloc *atomic.Uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        limit,
		HighWaterMark:     0.5,
		CriticalWaterMark: 0.8,
		CheckInterval:     time.Millisecond,
	})
	m.readAlloc = alloc.Load
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("HighWaterMark %v >= CriticalWaterMark %v", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", cfg.CheckInterval)
	}
}

func TestMonitorPausesAndResumes(t *testing.T) {
	var alloc atomic.Uint64
	m := testMonitor(1000, &alloc)

	alloc.Store(100)
	m.check()
	if m.IsPaused() {
		t.Fatal("paused below the high watermark")
	}

	alloc.Store(900)
	m.check()
	if !m.IsPaused() {
		t.Fatal("not paused above the critical watermark")
	}

	released := make(chan error, 1)
	go func() { released <- m.Wait(context.Background()) }()

	select {
	case <-released:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	// between the watermarks stays paused
	alloc.Store(600)
	m.check()
	if !m.IsPaused() {
		t.Fatal("resumed above the high watermark")
	}

	alloc.Store(200)
	m.check()
	select {
	case err := <-released:
		if err != nil {
			t.Errorf("Wait() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after recovery")
	}

	current, limit, usage := m.Stats()
	if current != 200 || limit != 1000 || usage != 0.2 {
		t.Errorf("Stats() = %d, %d, %v", current, limit, usage)
	}
}

func TestMonitorWaitHonorsContext(t *testing.T) {
	var alloc atomic.Uint64
	m := testMonitor(1000, &alloc)
	alloc.Store(950)
	m.check()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	var alloc atomic.Uint64
	m := testMonitor(1000, &alloc)
	alloc.Store(950)
	m.check()

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()
	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop did not release waiter")
	}
}

func TestMonitorStartStop(t *testing.T) {
	var alloc atomic.Uint64
	m := testMonitor(1000, &alloc)
	alloc.Store(900)
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for !m.IsPaused() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !m.IsPaused() {
		t.Error("monitor loop never sampled")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	m := &Monitor{stopChan: make(chan struct{}), pauseChan: make(chan struct{}), readAlloc: func() uint64 { return 1 << 40 }}
	m.check()
	if m.IsPaused() {
		t.Error("monitor without a limit paused")
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		ratio      string
		configured bool
		wantRatio  float64
	}{
		{"unset", "", "", false, 0},
		{"invalid", "lots", "", false, 0},
		{"negative", "-5", "", false, 0},
		{"default ratio", "1073741824", "", true, DefaultMemoryRatio},
		{"custom ratio", "1073741824", "0.5", true, 0.5},
		{"ratio out of range", "1073741824", "1.5", true, DefaultMemoryRatio},
		{"ratio garbage", "1073741824", "half", true, DefaultMemoryRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := debug.SetMemoryLimit(-1)
			t.Cleanup(func() { debug.SetMemoryLimit(prev) })

			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			got := ConfigureFromEnv()
			if got.Configured != tt.configured {
				t.Fatalf("Configured = %v, want %v (%+v)", got.Configured, tt.configured, got)
			}
			if !tt.configured {
				return
			}
			if got.Source != "MEMORY_LIMIT" || got.Ratio != tt.wantRatio {
				t.Errorf("result = %+v", got)
			}
			if want := int64(float64(got.ContainerLimit) * tt.wantRatio); got.GoMemLimit != want {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{512 << 20, "512 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
