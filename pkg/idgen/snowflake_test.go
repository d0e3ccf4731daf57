package idgen

import (
	"testing"
)

type stubClock struct {
	now int64
}

func (c *stubClock) Now() int64 { return c.now }

func TestSnowflakeNextIsMonotonic(t *testing.T) {
	sf, err := New(1, &stubClock{now: Epoch + 1000})
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	id1, err := sf.Next()
	if err != nil {
		t.Fatalf("failed to generate ID: %v", err)
	}
	id2, err := sf.Next()
	if err != nil {
		t.Fatalf("failed to generate ID: %v", err)
	}

	if id1 >= id2 {
		t.Fatalf("expected increasing IDs, got %d then %d", id1, id2)
	}
}

func TestSnowflakeNodeIDTooLarge(t *testing.T) {
	if _, err := New(maxNodeID+1, nil); err != ErrNodeIDTooLarge {
		t.Fatalf("expected ErrNodeIDTooLarge, got %v", err)
	}
}

func TestSnowflakeClockMovedBack(t *testing.T) {
	clock := &stubClock{now: Epoch + 2000}
	sf, _ := New(1, clock)
	_, _ = sf.Next()

	clock.now = Epoch + 1000
	if _, err := sf.Next(); err != ErrClockMovedBack {
		t.Fatalf("expected ErrClockMovedBack, got %v", err)
	}
}

func TestSnowflakeConcurrentUniqueness(t *testing.T) {
	sf, _ := New(1, &SystemClock{})

	const goroutines = 20
	const perGoroutine = 500
	ids := make(chan int64, goroutines*perGoroutine)

	for i := 0; i < goroutines; i++ {
		go func() {
			for j := 0; j < perGoroutine; j++ {
				id, err := sf.Next()
				if err != nil {
					t.Errorf("concurrent generation failed: %v", err)
					return
				}
				ids <- id
			}
		}()
	}

	seen := make(map[int64]bool, goroutines*perGoroutine)
	for i := 0; i < goroutines*perGoroutine; i++ {
		id := <-ids
		if seen[id] {
			t.Fatalf("duplicate ID generated: %d", id)
		}
		seen[id] = true
	}
}
