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
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/logger"
	"github.com/wentaojin/cachefs/utils/constant"
	"github.com/wentaojin/cachefs/utils/waitfor"
)

// Job is the body of one heartbeat cycle. The scheduler runs cycles of one
// task serially, a triggered cycle never overlaps a timer-driven one.
type Job func(ctx context.Context) error

// Plan tracks one named periodic background task.
type Plan struct {
	Name    string
	Express string
	Job     Job `json:"-"`

	expr *cronexpr.Expression
	next time.Time

	// cycles started and completed, plus the manually triggered subset. The
	// execute gate acknowledges on triggered, a coinciding timer cycle must
	// not satisfy a manual trigger.
	started   *atomic.Int64
	triggered *atomic.Int64
	completed *atomic.Int64
}

// Scheduler owns the named background tasks of a cluster process. Tasks fire
// on their cron timers, and tests force one extra cycle out of band through
// Execute instead of waiting for the next natural tick.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	plans map[string]*Plan

	triggerChan chan string
	wg          sync.WaitGroup
	running     *atomic.Bool
}

func NewScheduler(ctx context.Context) *Scheduler {
	schedCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:         schedCtx,
		cancel:      cancel,
		plans:       make(map[string]*Plan),
		triggerChan: make(chan string, constant.DefaultHeartbeatEventChannelSize),
		running:     atomic.NewBool(false),
	}
}

// Register adds a named task. An empty express registers a manual-only task
// that never fires on a timer and only runs when triggered through Execute.
func (s *Scheduler) Register(name, express string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[name]; exists {
		return fmt.Errorf("the heartbeat task [%s] register failed: already registered", name)
	}

	p := &Plan{
		Name:      name,
		Express:   express,
		Job:       job,
		started:   atomic.NewInt64(0),
		triggered: atomic.NewInt64(0),
		completed: atomic.NewInt64(0),
	}
	if express != "" {
		expr, err := cronexpr.Parse(express)
		if err != nil {
			return fmt.Errorf("the heartbeat task [%s] express [%s] parse failed: %v", name, express, err)
		}
		p.expr = expr
		p.next = expr.Next(time.Now())
	}
	s.plans[name] = p
	return nil
}

// Start launches the scheduling loop
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go s.scheduling()
}

// Close stops the scheduling loop and waits for the in-flight cycle to finish
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) scheduling() {
	defer s.wg.Done()

	interval := s.trySchedule()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case name := <-s.triggerChan:
			s.runCycle(name, true)
		case <-ticker.C:
		case <-s.ctx.Done():
			logger.Warn("heartbeat scheduling canceled", zap.Int("tasks", s.planCount()))
			return
		}
		interval = s.trySchedule()
		ticker.Reset(interval)
	}
}

// trySchedule runs all overdue timer-driven cycles and returns the duration
// until the nearest next fire, so the loop only sleeps as long as it must.
func (s *Scheduler) trySchedule() time.Duration {
	now := time.Now()
	var near *time.Time

	for _, p := range s.snapshotPlans() {
		if p.expr == nil {
			continue
		}
		if p.next.Before(now) || p.next.Equal(now) {
			s.runCycle(p.Name, false)
			// next is only touched on the scheduling goroutine
			p.next = p.expr.Next(now)
		}
		if near == nil || p.next.Before(*near) {
			next := p.next
			near = &next
		}
	}

	if near == nil {
		return 1 * time.Second
	}
	interval := time.Until(*near)
	if interval <= 0 {
		interval = time.Millisecond
	}
	return interval
}

// runCycle executes exactly one cycle of the named task on the scheduling
// goroutine. The counters advance before the body runs; triggered is the
// pickup signal the execute gate polls for and only manual cycles move it.
func (s *Scheduler) runCycle(name string, manual bool) {
	s.mu.RLock()
	p := s.plans[name]
	s.mu.RUnlock()
	if p == nil {
		return
	}

	if manual {
		p.triggered.Inc()
	}
	p.started.Inc()
	if err := p.Job(s.ctx); err != nil {
		logger.Error("heartbeat cycle failed",
			zap.String("task", name),
			zap.Int64("cycle", p.started.Load()),
			zap.Error(err))
	}
	p.completed.Inc()
}

// Execute requests one out-of-band cycle of the named task and blocks until
// that cycle has actually started executing, not merely been queued. A fixed
// internal timeout bounds the wait, exceeding it is potentially transient and
// the caller may retry.
func (s *Scheduler) Execute(ctx context.Context, name string) error {
	s.mu.RLock()
	p := s.plans[name]
	s.mu.RUnlock()
	if p == nil {
		return &UnknownTaskError{Name: name}
	}

	before := p.triggered.Load()

	select {
	case s.triggerChan <- name:
	case <-ctx.Done():
		return &waitfor.InterruptedError{Description: fmt.Sprintf("heartbeat [%s] trigger", name), Cause: ctx.Err()}
	}

	err := waitfor.WaitFor(ctx, waitfor.Config{
		Description: fmt.Sprintf("heartbeat [%s] cycle pickup", name),
		Sleep:       10 * time.Millisecond,
		Timeout:     constant.DefaultHeartbeatExecuteTimeout,
	}, func() (bool, error) {
		return p.triggered.Load() > before, nil
	})

	var te *waitfor.TimeoutError
	if errors.As(err, &te) {
		return &ScheduleTimeoutError{Name: name, Elapsed: te.Elapsed}
	}
	return err
}

// TriggeredCycles returns how many manually triggered cycles of the named
// task have started
func (s *Scheduler) TriggeredCycles(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.plans[name]
	if p == nil {
		return 0, &UnknownTaskError{Name: name}
	}
	return p.triggered.Load(), nil
}

// StartedCycles returns how many cycles of the named task have started
func (s *Scheduler) StartedCycles(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.plans[name]
	if p == nil {
		return 0, &UnknownTaskError{Name: name}
	}
	return p.started.Load(), nil
}

// CompletedCycles returns how many cycles of the named task have finished
func (s *Scheduler) CompletedCycles(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.plans[name]
	if p == nil {
		return 0, &UnknownTaskError{Name: name}
	}
	return p.completed.Load(), nil
}

func (s *Scheduler) snapshotPlans() []*Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := make([]*Plan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	return plans
}

func (s *Scheduler) planCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}
