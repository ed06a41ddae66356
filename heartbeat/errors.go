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
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownTask matches any UnknownTaskError via errors.Is. Triggering a
	// task that was never registered is a caller error, not retriable.
	ErrUnknownTask = errors.New("unknown heartbeat task")
	// ErrScheduleTimeout matches any ScheduleTimeoutError via errors.Is. The
	// scheduler did not pick the trigger up in time, the caller may retry.
	ErrScheduleTimeout = errors.New("heartbeat schedule timeout")
)

type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("the heartbeat task [%s] is not registered", e.Name)
}

func (e *UnknownTaskError) Is(target error) bool {
	return target == ErrUnknownTask
}

type ScheduleTimeoutError struct {
	Name    string
	Elapsed time.Duration
}

func (e *ScheduleTimeoutError) Error() string {
	return fmt.Sprintf("the heartbeat task [%s] trigger was not picked up after %s", e.Name, e.Elapsed)
}

func (e *ScheduleTimeoutError) Is(target error) bool {
	return target == ErrScheduleTimeout
}
