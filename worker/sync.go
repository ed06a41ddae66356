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

import (
	"context"

	"github.com/wentaojin/cachefs/heartbeat"
)

// NewSyncJob returns the worker block sync heartbeat body.
//
// A cycle that finds a pending report flushes it to the coordinator; an idle
// cycle folds freshly evicted blocks into the reporter instead. One removal
// therefore takes two cycles to reach the coordinator: the first makes it
// observable in the reporter, the second delivers it. That intermediate state
// is what tests wait on between two triggered cycles.
func NewSyncJob(w *BlockWorker) heartbeat.Job {
	return func(ctx context.Context) error {
		if report := w.reporter.flush(); len(report) > 0 {
			w.coord.ApplyRemovals(w.id, report)
			return nil
		}
		w.reporter.merge(w.takeFresh())
		return nil
	}
}
