package workers

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "limit caps the count",
			multiplier: 100.0,
			limit:      3,
			minExpect:  1,
			maxExpect:  3,
		},
		{
			name:       "tiny multiplier still yields one worker",
			multiplier: 0.0001,
			minExpect:  1,
			maxExpect:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want between %d and %d",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		want     int
	}{
		{name: "valid override", envValue: "5", want: 5},
		{name: "override capped by limit", envValue: "50", limit: 8, want: 8},
		{name: "invalid override ignored", envValue: "many", want: Count(1.0, 0)},
		{name: "zero override ignored", envValue: "0", want: Count(1.0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, "")
			want := tt.want
			t.Setenv(EnvOverride, tt.envValue)

			if got := Count(1.0, tt.limit); got != want {
				t.Errorf("Count() with %s=%q = %d, want %d", EnvOverride, tt.envValue, got, want)
			}
		})
	}
}

func TestForCPUAndForIO(t *testing.T) {
	t.Setenv(EnvOverride, "")

	if got, want := ForCPU(0), Count(1.0, 0); got != want {
		t.Errorf("ForCPU(0) = %d, want %d", got, want)
	}
	if got, want := ForIO(0), Count(2.0, 0); got != want {
		t.Errorf("ForIO(0) = %d, want %d", got, want)
	}
	if got := ForIO(1); got != 1 {
		t.Errorf("ForIO(1) = %d, want 1", got)
	}
}

func TestEachVisitsEveryItem(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	seen := make(map[int]bool)
	err := Each(context.Background(), 4, items, func(_ context.Context, item int) {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
	})

	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if len(seen) != len(items) {
		t.Errorf("visited %d items, want %d", len(seen), len(items))
	}
}

func TestEachRespectsWorkerLimit(t *testing.T) {
	items := make([]int, 50)

	var active, peak atomic.Int32
	err := Each(context.Background(), 3, items, func(_ context.Context, _ int) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		runtime.Gosched()
		active.Add(-1)
	})

	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak.Load())
	}
}

func TestEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := make([]int, 1000)

	var calls atomic.Int32
	err := Each(ctx, 1, items, func(_ context.Context, _ int) {
		if calls.Add(1) == 5 {
			cancel()
		}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Each() error = %v, want context.Canceled", err)
	}
	if calls.Load() >= int32(len(items)) {
		t.Error("Each() should stop dispatching after cancellation")
	}
}

func TestEachEmpty(t *testing.T) {
	called := false
	err := Each(context.Background(), 4, []string{}, func(_ context.Context, _ string) {
		called = true
	})

	if err != nil {
		t.Errorf("Each() error = %v", err)
	}
	if called {
		t.Error("fn should not be called for an empty slice")
	}
}
