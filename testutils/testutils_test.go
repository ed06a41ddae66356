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
package testutils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wentaojin/cachefs/conf"
	"github.com/wentaojin/cachefs/heartbeat"
	"github.com/wentaojin/cachefs/master"
	"github.com/wentaojin/cachefs/utils/constant"
	"github.com/wentaojin/cachefs/utils/waitfor"
	"github.com/wentaojin/cachefs/worker"
)

func TestWaitForBlocksFreed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := master.NewCoordinator()
	w := worker.NewBlockWorker("worker-1", coord)
	coord.CreateFile("/data/parquet/part-0", 1, 2)
	w.CommitBlock(1)
	w.CommitBlock(2)

	scheduler := heartbeat.NewScheduler(ctx)
	if err := scheduler.Register(constant.HeartbeatWorkerBlockSync, "", worker.NewSyncJob(w)); err != nil {
		t.Fatalf("register block sync failed: %v", err)
	}
	scheduler.Start()
	defer scheduler.Close()

	w.RemoveBlocks(1, 2)
	if got := coord.BlockWorkers(1); len(got) != 1 {
		t.Fatalf("coordinator should not see the removal before the sync, got workers %v", got)
	}

	if err := WaitForBlocksFreed(ctx, scheduler, w, 1, 2); err != nil {
		t.Fatalf("wait for blocks freed failed: %v", err)
	}

	// the second trigger only guarantees the flushing cycle has started
	err := waitfor.WaitFor(ctx, waitfor.Config{Description: "coordinator dropped freed blocks"}, func() (bool, error) {
		return len(coord.BlockWorkers(1)) == 0 && len(coord.BlockWorkers(2)) == 0, nil
	})
	if err != nil {
		t.Fatalf("coordinator still lists freed blocks: %v", err)
	}
	if w.Reporter().HasPendingRemovals(1) {
		t.Fatalf("reporter should be drained after the flushing cycle")
	}
}

func TestWaitForPersistedAndCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := master.NewCoordinator()
	w := worker.NewBlockWorker("worker-1", coord)
	coord.CreateFile("/data/csv/orders", 10)
	w.CommitBlock(10)

	go func() {
		time.Sleep(100 * time.Millisecond)
		if err := w.PersistFile("/data/csv/orders"); err != nil {
			t.Errorf("persist file failed: %v", err)
			return
		}
		if err := w.CacheFile("/data/csv/orders", 100); err != nil {
			t.Errorf("cache file failed: %v", err)
		}
	}()

	if err := WaitForPersisted(ctx, coord, "/data/csv/orders"); err != nil {
		t.Fatalf("wait for persisted failed: %v", err)
	}
	if err := WaitForCached(ctx, coord, "/data/csv/orders", 100); err != nil {
		t.Fatalf("wait for cached failed: %v", err)
	}
}

func TestWaitForPersistedInterrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	coord := master.NewCoordinator()
	coord.CreateFile("/data/never-persisted")

	err := WaitForPersisted(ctx, coord, "/data/never-persisted")
	if !errors.Is(err, waitfor.ErrWaitInterrupted) {
		t.Fatalf("expected an interrupted wait, got %v", err)
	}
}

func TestReserveClusterPorts(t *testing.T) {
	store := conf.NewMemStore()

	reserved, err := ReserveClusterPorts(store)
	if err != nil {
		t.Fatalf("reserve cluster ports failed: %v", err)
	}
	defer func() {
		for _, rp := range reserved {
			_ = rp.Listener.Close()
		}
	}()

	if len(reserved) != 3 {
		t.Fatalf("expected 3 reserved services, got %d", len(reserved))
	}
	seen := make(map[int]string)
	for service, rp := range reserved {
		if prev, ok := seen[rp.Port]; ok {
			t.Fatalf("services [%s] and [%s] share port %d", prev, service, rp.Port)
		}
		seen[rp.Port] = service
	}

	for _, key := range []string{
		constant.ConfKeyMasterClientPort,
		constant.ConfKeyMasterPeerPort,
		constant.ConfKeyWorkerDataPort,
	} {
		port, err := conf.GetInt(store, key)
		if err != nil {
			t.Fatalf("configuration key [%s] missing: %v", key, err)
		}
		if port <= 0 {
			t.Fatalf("configuration key [%s] holds invalid port %d", key, port)
		}
	}
}
