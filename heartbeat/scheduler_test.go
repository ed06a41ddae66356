/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package heartbeat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/wentaojin/cachefs/utils/waitfor"
)

func TestExecuteUnknownTask(t *testing.T) {
	s := NewScheduler(context.Background())
	s.Start()
	defer s.Close()

	err := s.Execute(context.Background(), "no-such-task")
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected unknown task error, got: %v", err)
	}
	var ute *UnknownTaskError
	if !errors.As(err, &ute) || ute.Name != "no-such-task" {
		t.Fatalf("unknown task error should name the task, got: %v", err)
	}
}

func TestExecuteRunsOneCycle(t *testing.T) {
	s := NewScheduler(context.Background())
	cycles := atomic.NewInt64(0)
	if err := s.Register("manual-sync", "", func(ctx context.Context) error {
		cycles.Inc()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Close()

	if err := s.Execute(context.Background(), "manual-sync"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	// execute returns once the cycle started, give the body a moment to finish
	err := waitfor.WaitFor(context.Background(), waitfor.Config{
		Description: "manual cycle completed",
		Sleep:       10 * time.Millisecond,
		Timeout:     2 * time.Second,
	}, func() (bool, error) {
		return cycles.Load() == 1, nil
	})
	if err != nil {
		t.Fatalf("triggered cycle never completed: %v", err)
	}

	started, err := s.StartedCycles("manual-sync")
	if err != nil {
		t.Fatal(err)
	}
	if started != 1 {
		t.Fatalf("expected exactly 1 started cycle, got %d", started)
	}
}

func TestTimerDrivenCycles(t *testing.T) {
	s := NewScheduler(context.Background())
	cycles := atomic.NewInt64(0)
	// every second, the finest grain cronexpr offers
	if err := s.Register("timer-sync", "* * * * * * *", func(ctx context.Context) error {
		cycles.Inc()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Close()

	err := waitfor.WaitFor(context.Background(), waitfor.Config{
		Description: "timer driven cycle fired",
		Sleep:       50 * time.Millisecond,
		Timeout:     3 * time.Second,
	}, func() (bool, error) {
		return cycles.Load() >= 1, nil
	})
	if err != nil {
		t.Fatalf("timer never fired a cycle: %v", err)
	}
}

// A timer-driven cycle of the same task must not satisfy the execute gate;
// only the manually triggered cycle acknowledges the trigger.
func TestExecuteAcknowledgesManualCycle(t *testing.T) {
	s := NewScheduler(context.Background())
	if err := s.Register("mixed-sync", "* * * * * * *", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Close()

	// let timer cycles flow before triggering
	err := waitfor.WaitFor(context.Background(), waitfor.Config{
		Description: "timer cycles running",
		Sleep:       50 * time.Millisecond,
		Timeout:     3 * time.Second,
	}, func() (bool, error) {
		started, serr := s.StartedCycles("mixed-sync")
		return started >= 1, serr
	})
	if err != nil {
		t.Fatalf("timer never fired a cycle: %v", err)
	}

	if err = s.Execute(context.Background(), "mixed-sync"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	triggered, err := s.TriggeredCycles("mixed-sync")
	if err != nil {
		t.Fatal(err)
	}
	if triggered != 1 {
		t.Fatalf("expected exactly 1 acknowledged manual cycle, got %d", triggered)
	}
}

func TestExecuteScheduleTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the fixed pickup timeout")
	}

	s := NewScheduler(context.Background())
	if err := s.Register("stalled-sync", "", func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	// scheduler intentionally not started, the trigger is queued but never picked up

	err := s.Execute(context.Background(), "stalled-sync")
	if !errors.Is(err, ErrScheduleTimeout) {
		t.Fatalf("expected schedule timeout, got: %v", err)
	}
	var ste *ScheduleTimeoutError
	if !errors.As(err, &ste) || ste.Name != "stalled-sync" {
		t.Fatalf("schedule timeout should name the task, got: %v", err)
	}
}

// The two-phase dance: the first cycle produces a visible side effect, the
// wait observes it, the second cycle consumes it. The intermediate state must
// be observable between the two triggers.
func TestTwoPhaseTriggerObserveTrigger(t *testing.T) {
	var (
		mu      sync.Mutex
		pending []int64
		flushed []int64
		queued  = []int64{7, 11}
	)

	s := NewScheduler(context.Background())
	if err := s.Register("block-sync", "", func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if len(pending) > 0 {
			flushed = append(flushed, pending...)
			pending = nil
			return nil
		}
		pending = append(pending, queued...)
		queued = nil
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Close()

	ctx := context.Background()
	if err := s.Execute(ctx, "block-sync"); err != nil {
		t.Fatalf("first trigger failed: %v", err)
	}

	err := waitfor.WaitFor(ctx, waitfor.Config{
		Description: "blocks pending removal",
		Sleep:       10 * time.Millisecond,
		Timeout:     2 * time.Second,
	}, func() (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return len(pending) == 2, nil
	})
	if err != nil {
		t.Fatalf("first cycle effect never observable: %v", err)
	}

	mu.Lock()
	if len(flushed) != 0 {
		mu.Unlock()
		t.Fatalf("second cycle effect leaked into the first wait: %v", flushed)
	}
	mu.Unlock()

	if err = s.Execute(ctx, "block-sync"); err != nil {
		t.Fatalf("second trigger failed: %v", err)
	}

	err = waitfor.WaitFor(ctx, waitfor.Config{
		Description: "pending removals consumed",
		Sleep:       10 * time.Millisecond,
		Timeout:     2 * time.Second,
	}, func() (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return len(flushed) == 2 && len(pending) == 0, nil
	})
	if err != nil {
		t.Fatalf("second cycle never consumed the effect: %v", err)
	}
}
