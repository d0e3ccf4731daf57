package resilience

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolExecutesAllJobs(t *testing.T) {
	pool := NewWorkerPool(3, 6)

	var count int32
	for i := 0; i < 20; i++ {
		if err := pool.Submit(context.Background(), func() {
			atomic.AddInt32(&count, 1)
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	pool.Close()
	pool.Wait()

	if got := atomic.LoadInt32(&count); got != 20 {
		t.Fatalf("expected 20 jobs executed, got %d", got)
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	pool.Close()
	if err := pool.Submit(context.Background(), func() {}); err != ErrPoolClosed {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		name   string
		active int
		cap    int
		want   int
	}{
		{"fewer nodes than cap", 3, 8, 3},
		{"more nodes than cap", 20, 8, 8},
		{"no active nodes", 0, 8, 1},
		{"zero cap", 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PoolSize(tt.active, tt.cap); got != tt.want {
				t.Fatalf("PoolSize(%d, %d) = %d, want %d", tt.active, tt.cap, got, tt.want)
			}
		})
	}
}
