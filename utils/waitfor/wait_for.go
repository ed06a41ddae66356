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
package waitfor

import (
	"context"
	"time"

	"github.com/wentaojin/cachefs/utils/constant"
)

// Condition is a read-only probe over externally owned state. Returning
// (false, nil) means the condition is not yet satisfied and the wait keeps
// polling. A non-nil error is a hard failure and stops the wait immediately.
// The probe may be evaluated many times and must re-check state on every
// call rather than trust an earlier observation.
type Condition func() (bool, error)

// Config is the configurations of one condition wait.
type Config struct {
	// Description names the awaited condition for diagnostics
	Description string
	// Sleep is the duration between two condition evaluations, default 100 milliseconds
	Sleep time.Duration
	// Timeout is the maximum duration to wait for, default 15 seconds
	Timeout time.Duration
}

// WaitFor repeatedly evaluates cond until it reports true, the timeout is
// exceeded or ctx is canceled. The first evaluation happens immediately with
// no initial delay. Timeouts are never retried here, the caller decides.
func WaitFor(ctx context.Context, c Config, cond Condition) error {
	if c.Sleep == 0 {
		c.Sleep = constant.DefaultWaitForSleepTime
	}
	if c.Timeout == 0 {
		c.Timeout = constant.DefaultWaitForTimeout
	}

	start := time.Now()
	for {
		ok, err := cond()
		if err != nil {
			// a condition error is a hard failure, distinct from "not yet true"
			return err
		}
		if ok {
			return nil
		}

		elapsed := time.Since(start)
		if elapsed >= c.Timeout {
			return &TimeoutError{Description: c.Description, Elapsed: elapsed}
		}

		sleep := c.Sleep
		if remain := c.Timeout - elapsed; remain < sleep {
			sleep = remain
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &InterruptedError{Description: c.Description, Cause: ctx.Err()}
		case <-timer.C:
		}
	}
}
