package pkgroutine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewManagerDefaultMax(t *testing.T) {
	mgr := NewManager(0)
	if got := cap(mgr.sema); got != DefaultMaxGoroutine {
		t.Fatalf("expected cap %d, got %d", DefaultMaxGoroutine, got)
	}
}

func TestManagerCollectsNamedErrors(t *testing.T) {
	mgr := NewManager(2)
	errOne := errors.New("one")
	errTwo := errors.New("two")

	mgr.Go(context.Background(), "first", func(ctx context.Context) error {
		return errOne
	})
	mgr.Go(context.Background(), "second", func(ctx context.Context) error {
		return errTwo
	})

	joined := mgr.Wait()
	if joined == nil {
		t.Fatalf("expected errors")
	}
	if !errors.Is(joined, errOne) || !errors.Is(joined, errTwo) {
		t.Fatalf("expected both errors, got %v", joined)
	}
	if !strings.Contains(joined.Error(), "first: one") {
		t.Fatalf("expected task name in error, got %v", joined)
	}
}

func TestManagerRecordsPanics(t *testing.T) {
	mgr := NewManager(1)
	mgr.Go(context.Background(), "explode", func(ctx context.Context) error {
		panic("boom")
	})

	err := mgr.Wait()
	if err == nil || !strings.Contains(err.Error(), "explode: panic: boom") {
		t.Fatalf("expected recorded panic, got %v", err)
	}
}

func TestManagerSkipsCanceledContext(t *testing.T) {
	mgr := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	mgr.Go(ctx, "late", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	if err := mgr.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran.Load() {
		t.Fatal("task should not run with a canceled context")
	}
}

func TestManagerTryGoWhenFull(t *testing.T) {
	mgr := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	if !mgr.TryGo(context.Background(), "holder", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}) {
		t.Fatalf("expected first task to start")
	}
	<-started

	var ran atomic.Bool
	if mgr.TryGo(context.Background(), "extra", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}) {
		t.Fatalf("expected TryGo to refuse while the only slot is taken")
	}

	close(release)
	if err := mgr.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran.Load() {
		t.Fatalf("refused task must not run")
	}

	if !mgr.TryGo(context.Background(), "after", func(ctx context.Context) error { return nil }) {
		t.Fatalf("expected slot to be free after Wait")
	}
	if err := mgr.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
