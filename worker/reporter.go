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
package worker

import "sync"

// Reporter accumulates block removals between two block sync heartbeats and
// hands the pending report to the coordinator on the next cycle. The pending
// entries are exposed through read-only accessors as a supported observation
// point, tests poll these instead of reaching into worker internals.
type Reporter struct {
	mu      sync.Mutex
	pending []int64
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// PendingRemovals returns a copy of the removals awaiting the next report
func (r *Reporter) PendingRemovals() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.pending...)
}

// HasPendingRemovals reports whether every given block sits in the pending report
func (r *Reporter) HasPendingRemovals(blockIDs ...int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, blockID := range blockIDs {
		found := false
		for _, pending := range r.pending {
			if pending == blockID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *Reporter) merge(blockIDs []int64) {
	if len(blockIDs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, blockIDs...)
}

// flush returns and clears the pending report, nil when empty
func (r *Reporter) flush() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	report := r.pending
	r.pending = nil
	return report
}
