package parallel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWorkerPool_SubmitAndWait(t *testing.T) {
	ctx := context.Background()

	t.Run("results follow submission order", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 3)

		delays := []time.Duration{30 * time.Millisecond, 0, 10 * time.Millisecond}
		for i, d := range delays {
			d := d
			idx := pool.Submit(func(ctx context.Context) error {
				time.Sleep(d)
				return nil
			})
			if idx != i {
				t.Errorf("Submit returned index %d, want %d", idx, i)
			}
		}

		results := pool.Wait()
		if len(results) != len(delays) {
			t.Fatalf("expected %d results, got %d", len(delays), len(results))
		}
		for i, r := range results {
			if r.Index != i {
				t.Errorf("results[%d].Index = %d", i, r.Index)
			}
			if r.Error != nil {
				t.Errorf("results[%d].Error = %v", i, r.Error)
			}
		}
	})

	t.Run("respects max workers limit", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 2)

		maxConcurrent := 0
		current := 0
		var mu sync.Mutex

		for i := 0; i < 6; i++ {
			pool.Submit(func(ctx context.Context) error {
				mu.Lock()
				current++
				if current > maxConcurrent {
					maxConcurrent = current
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil
			})
		}

		if results := pool.Wait(); len(results) != 6 {
			t.Fatalf("expected 6 results, got %d", len(results))
		}
		if maxConcurrent > 2 {
			t.Errorf("expected at most 2 concurrent jobs, saw %d", maxConcurrent)
		}
	})

	t.Run("one failure does not stop others", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 1)

		boom := errors.New("boom")
		pool.Submit(func(ctx context.Context) error { return boom })
		pool.Submit(func(ctx context.Context) error { return nil })

		results := pool.Wait()
		if !errors.Is(results[0].Error, boom) {
			t.Errorf("results[0].Error = %v, want boom", results[0].Error)
		}
		if results[1].Error != nil {
			t.Errorf("results[1].Error = %v, want nil", results[1].Error)
		}
	})

	t.Run("unlimited workers", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 0)
		for i := 0; i < 10; i++ {
			pool.Submit(func(ctx context.Context) error { return nil })
		}
		if results := pool.Wait(); len(results) != 10 {
			t.Errorf("expected 10 results, got %d", len(results))
		}
	})
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(ctx, 1)
	pool.Submit(func(ctx context.Context) error {
		t.Error("job should not run after cancel")
		return nil
	})

	results := pool.Wait()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !errors.Is(results[0].Error, context.Canceled) {
		t.Errorf("Error = %v, want context.Canceled", results[0].Error)
	}
}
