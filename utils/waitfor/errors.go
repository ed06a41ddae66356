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
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWaitTimeout matches any TimeoutError via errors.Is
	ErrWaitTimeout = errors.New("wait for condition timed out")
	// ErrWaitInterrupted matches any InterruptedError via errors.Is
	ErrWaitInterrupted = errors.New("wait for condition interrupted")
)

// TimeoutError reports a condition that never became true within budget.
type TimeoutError struct {
	Description string
	Elapsed     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for [%s] after %s", e.Description, e.Elapsed)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}

// InterruptedError reports a wait canceled externally before completion.
type InterruptedError struct {
	Description string
	Cause       error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted waiting for [%s]: %v", e.Description, e.Cause)
}

func (e *InterruptedError) Is(target error) bool {
	return target == ErrWaitInterrupted
}

func (e *InterruptedError) Unwrap() error {
	return e.Cause
}
