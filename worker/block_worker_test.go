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
	"testing"

	"github.com/wentaojin/cachefs/master"
)

func TestRemovalTravelsTwoSyncCycles(t *testing.T) {
	ctx := context.Background()
	coord := master.NewCoordinator()
	w := NewBlockWorker("worker-1", coord)
	coord.CreateFile("/data/a", 1, 2)
	w.CommitBlock(1)
	w.CommitBlock(2)

	w.RemoveBlocks(1)
	if w.HasBlock(1) {
		t.Fatalf("block 1 should be evicted locally")
	}
	if got := coord.BlockWorkers(1); len(got) != 1 {
		t.Fatalf("the coordinator must not learn the removal before a sync, got %v", got)
	}

	job := NewSyncJob(w)

	// first cycle folds the removal into the reporter
	if err := job(ctx); err != nil {
		t.Fatalf("sync cycle failed: %v", err)
	}
	if !w.Reporter().HasPendingRemovals(1) {
		t.Fatalf("reporter should hold block 1 after the first cycle")
	}
	if got := coord.BlockWorkers(1); len(got) != 1 {
		t.Fatalf("the coordinator must still list block 1 after the first cycle, got %v", got)
	}

	// second cycle flushes the report
	if err := job(ctx); err != nil {
		t.Fatalf("sync cycle failed: %v", err)
	}
	if got := coord.BlockWorkers(1); len(got) != 0 {
		t.Fatalf("the coordinator should have dropped block 1, got %v", got)
	}
	if w.Reporter().HasPendingRemovals(1) {
		t.Fatalf("reporter should be drained after the flushing cycle")
	}
	if got := coord.BlockWorkers(2); len(got) != 1 {
		t.Fatalf("block 2 was never removed, got %v", got)
	}
}

func TestSyncCycleIdleWithoutRemovals(t *testing.T) {
	ctx := context.Background()
	coord := master.NewCoordinator()
	w := NewBlockWorker("worker-1", coord)
	w.CommitBlock(1)

	job := NewSyncJob(w)
	if err := job(ctx); err != nil {
		t.Fatalf("sync cycle failed: %v", err)
	}
	if got := w.Reporter().PendingRemovals(); len(got) != 0 {
		t.Fatalf("an idle cycle must not invent removals, got %v", got)
	}
}

func TestPersistFile(t *testing.T) {
	coord := master.NewCoordinator()
	w := NewBlockWorker("worker-1", coord)
	coord.CreateFile("/data/b", 1, 2, 3)
	for _, blockID := range []int64{1, 2, 3} {
		w.CommitBlock(blockID)
	}

	if err := w.PersistFile("/data/b"); err != nil {
		t.Fatalf("persist file failed: %v", err)
	}
	status, err := coord.FileStatus("/data/b")
	if err != nil {
		t.Fatalf("file status failed: %v", err)
	}
	if !status.Persisted {
		t.Fatalf("expected the file to be marked persisted")
	}
}

func TestPersistFileMissingBlock(t *testing.T) {
	coord := master.NewCoordinator()
	w := NewBlockWorker("worker-1", coord)
	coord.CreateFile("/data/c", 1, 2)
	w.CommitBlock(1)

	if err := w.PersistFile("/data/c"); err == nil {
		t.Fatalf("expected persist to fail on a missing block")
	}
	status, err := coord.FileStatus("/data/c")
	if err != nil {
		t.Fatalf("file status failed: %v", err)
	}
	if status.Persisted {
		t.Fatalf("a failed persist must not mark the file persisted")
	}
}

func TestPersistFileUnknown(t *testing.T) {
	coord := master.NewCoordinator()
	w := NewBlockWorker("worker-1", coord)
	if err := w.PersistFile("/no/such/file"); err == nil {
		t.Fatalf("expected an error for an unknown file")
	}
}

func TestCacheFilePercentRange(t *testing.T) {
	coord := master.NewCoordinator()
	w := NewBlockWorker("worker-1", coord)
	coord.CreateFile("/data/d", 1)

	if err := w.CacheFile("/data/d", 101); err == nil {
		t.Fatalf("expected an out of range error")
	}
	if err := w.CacheFile("/data/d", -1); err == nil {
		t.Fatalf("expected an out of range error")
	}
	if err := w.CacheFile("/data/d", 40); err != nil {
		t.Fatalf("cache file failed: %v", err)
	}
	status, err := coord.FileStatus("/data/d")
	if err != nil {
		t.Fatalf("file status failed: %v", err)
	}
	if status.InCachePercent != 40 {
		t.Fatalf("expected 40%% cached, got %d%%", status.InCachePercent)
	}
}
