// Feedloom - Feed Ranking and Personalization Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// TestMockService validates the test helper itself so the tree tests
// built on it are trustworthy.
func TestMockService(t *testing.T) {
	t.Run("implements suture.Service", func(t *testing.T) {
		var _ suture.Service = (*MockService)(nil)
	})

	t.Run("runs until context canceled", func(t *testing.T) {
		svc := NewMockService("test")
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := svc.Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if svc.StartCount() != 1 {
			t.Errorf("expected 1 start, got %d", svc.StartCount())
		}
	})

	t.Run("returns scripted error", func(t *testing.T) {
		svc := NewMockService("failing")
		svc.SetError(errors.New("simulated failure"))

		err := svc.Serve(context.Background())
		if err == nil || err.Error() != "simulated failure" {
			t.Errorf("expected simulated failure, got %v", err)
		}
	})

	t.Run("fails N times then succeeds", func(t *testing.T) {
		svc := NewMockService("retry-test")
		svc.SetFailCount(2)

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); err == nil {
				t.Errorf("call %d should fail", i+1)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("third call should run until timeout, got %v", err)
		}

		if svc.StartCount() != 3 {
			t.Errorf("expected 3 starts, got %d", svc.StartCount())
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		svc := NewMockService("my-service")
		if svc.String() != "my-service" {
			t.Errorf("expected 'my-service', got %q", svc.String())
		}
	})
}

// TestSupervisorBehavior pins the suture semantics the tree relies on:
// restart on failure, no restart on ErrDoNotRestart, nested startup.
func TestSupervisorBehavior(t *testing.T) {
	t.Run("supervisor restarts crashed service", func(t *testing.T) {
		svc := NewMockService("crasher")
		svc.SetFailCount(2)

		sup := suture.New("restart-test", suture.Spec{
			FailureThreshold: 10,
			FailureDecay:     1,
			FailureBackoff:   10 * time.Millisecond,
			Timeout:          100 * time.Millisecond,
		})
		sup.Add(svc)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		go sup.Serve(ctx)
		time.Sleep(300 * time.Millisecond)

		if svc.StartCount() < 3 {
			t.Errorf("expected at least 3 starts (2 failures + 1 success), got %d", svc.StartCount())
		}
	})

	t.Run("service returning ErrDoNotRestart is not restarted", func(t *testing.T) {
		svc := NewMockService("one-shot")
		svc.SetError(suture.ErrDoNotRestart)

		sup := suture.New("no-restart-test", suture.Spec{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			Timeout:          100 * time.Millisecond,
		})
		sup.Add(svc)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		go sup.Serve(ctx)
		time.Sleep(100 * time.Millisecond)

		if svc.StartCount() != 1 {
			t.Errorf("expected exactly 1 start for ErrDoNotRestart, got %d", svc.StartCount())
		}
	})

	t.Run("child supervisors are started by parent", func(t *testing.T) {
		childSvc := NewMockService("child-service")
		childSup := suture.NewSimple("child-supervisor")
		childSup.Add(childSvc)

		parentSup := suture.NewSimple("parent-supervisor")
		parentSup.Add(childSup)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		go parentSup.Serve(ctx)
		time.Sleep(100 * time.Millisecond)

		if childSvc.StartCount() < 1 {
			t.Error("child service was not started through hierarchy")
		}
	})
}
