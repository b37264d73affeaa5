package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerAdd(t *testing.T) {
	t.Run("rejects invalid jobs", func(t *testing.T) {
		s := NewScheduler(nil)

		if err := s.Add(&Job{Interval: time.Second, Fn: func(ctx context.Context) error { return nil }}); err == nil {
			t.Error("expected error for missing name")
		}
		if err := s.Add(&Job{Name: "x", Fn: func(ctx context.Context) error { return nil }}); err == nil {
			t.Error("expected error for missing interval")
		}
		if err := s.Add(&Job{Name: "x", Interval: time.Second}); err == nil {
			t.Error("expected error for missing function")
		}
	})

	t.Run("rejects add after start", func(t *testing.T) {
		s := NewScheduler(nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := s.Start(ctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		defer s.Stop(context.Background())

		err := s.Add(&Job{Name: "late", Interval: time.Second, Fn: func(ctx context.Context) error { return nil }})
		if err == nil {
			t.Error("expected error adding job after start")
		}
	})
}

func TestSchedulerRun(t *testing.T) {
	t.Run("run on start executes immediately", func(t *testing.T) {
		s := NewScheduler(nil)
		var runs atomic.Int32

		err := s.Add(&Job{
			Name:       "immediate",
			Interval:   time.Hour,
			RunOnStart: true,
			Fn: func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		deadline := time.After(time.Second)
		for runs.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("job never ran")
			case <-time.After(5 * time.Millisecond):
			}
		}

		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("stop failed: %v", err)
		}
	})

	t.Run("ticks on interval", func(t *testing.T) {
		s := NewScheduler(nil)
		var runs atomic.Int32

		err := s.Add(&Job{
			Name:     "ticking",
			Interval: 10 * time.Millisecond,
			Fn: func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		deadline := time.After(time.Second)
		for runs.Load() < 2 {
			select {
			case <-deadline:
				t.Fatalf("expected at least 2 runs, got %d", runs.Load())
			case <-time.After(5 * time.Millisecond):
			}
		}

		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("stop failed: %v", err)
		}
	})

	t.Run("skips when previous run is in progress", func(t *testing.T) {
		s := NewScheduler(nil)
		var started atomic.Int32
		release := make(chan struct{})

		err := s.Add(&Job{
			Name:     "slow",
			Interval: 5 * time.Millisecond,
			Fn: func(ctx context.Context) error {
				started.Add(1)
				select {
				case <-release:
				case <-ctx.Done():
				}
				return nil
			},
		})
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		// Give the ticker several intervals while the first run blocks
		time.Sleep(50 * time.Millisecond)
		close(release)

		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("stop failed: %v", err)
		}

		if started.Load() > 2 {
			t.Errorf("expected overlapping runs to be skipped, got %d starts", started.Load())
		}
	})

	t.Run("stop waits for in-flight run", func(t *testing.T) {
		s := NewScheduler(nil)
		var finished atomic.Bool

		err := s.Add(&Job{
			Name:       "draining",
			Interval:   time.Hour,
			RunOnStart: true,
			Fn: func(ctx context.Context) error {
				time.Sleep(20 * time.Millisecond)
				finished.Store(true)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		time.Sleep(5 * time.Millisecond)
		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("stop failed: %v", err)
		}

		if !finished.Load() {
			t.Error("stop returned before the in-flight run finished")
		}
	})

	t.Run("stop honors context deadline", func(t *testing.T) {
		s := NewScheduler(nil)
		release := make(chan struct{})
		defer close(release)

		err := s.Add(&Job{
			Name:       "stuck",
			Interval:   time.Hour,
			RunOnStart: true,
			Fn: func(ctx context.Context) error {
				<-release
				return nil
			},
		})
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		time.Sleep(5 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := s.Stop(ctx); err == nil {
			t.Error("expected timeout error from stop")
		}
	})
}
