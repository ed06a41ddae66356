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
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/logger"
	"github.com/wentaojin/cachefs/master"
	"github.com/wentaojin/cachefs/thread"
	"github.com/wentaojin/cachefs/utils/constant"
)

// BlockWorker holds the block replicas of one cluster worker. Removals are
// folded into the heartbeat Reporter by the block sync cycle, never applied
// to the coordinator directly, the coordinator learns about them one cycle
// later through the report.
type BlockWorker struct {
	id    string
	coord *master.Coordinator

	mu     sync.Mutex
	blocks map[int64]struct{}
	// removed since the last block sync cycle
	fresh []int64

	reporter *Reporter
}

func NewBlockWorker(id string, coord *master.Coordinator) *BlockWorker {
	return &BlockWorker{
		id:       id,
		coord:    coord,
		blocks:   make(map[int64]struct{}),
		reporter: NewReporter(),
	}
}

func (w *BlockWorker) ID() string {
	return w.id
}

func (w *BlockWorker) Reporter() *Reporter {
	return w.reporter
}

// CommitBlock stores a block replica and registers the location
func (w *BlockWorker) CommitBlock(blockID int64) {
	w.mu.Lock()
	w.blocks[blockID] = struct{}{}
	w.mu.Unlock()
	w.coord.CommitBlock(w.id, blockID)
}

// HasBlock reports whether the worker holds a block replica
func (w *BlockWorker) HasBlock(blockID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.blocks[blockID]
	return ok
}

// RemoveBlocks evicts block replicas locally. The coordinator is not told
// here, the removals travel with the next block sync heartbeat report.
func (w *BlockWorker) RemoveBlocks(blockIDs ...int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, blockID := range blockIDs {
		if _, ok := w.blocks[blockID]; !ok {
			continue
		}
		delete(w.blocks, blockID)
		w.fresh = append(w.fresh, blockID)
	}
}

// takeFresh drains the removals not yet folded into the reporter
func (w *BlockWorker) takeFresh() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	fresh := w.fresh
	w.fresh = nil
	return fresh
}

// PersistFile copies every block of a file to the under storage and marks the
// file persisted at the coordinator. Blocks persist concurrently, bounded by
// the worker persist thread limit.
func (w *BlockWorker) PersistFile(path string) error {
	status, err := w.coord.FileStatus(path)
	if err != nil {
		return err
	}

	g := thread.NewGroup()
	g.SetLimit(constant.DefaultWorkerPersistThread)

	go func() {
		for _, blockID := range status.BlockIDs {
			g.Go(blockID, func(job interface{}) error {
				blockID := job.(int64)
				if !w.HasBlock(blockID) {
					return fmt.Errorf("the file [%s] block [%d] is not held by worker [%s]", path, blockID, w.id)
				}
				return nil
			})
		}
		g.Wait()
	}()

	// drain fully so no task goroutine stays blocked on the result channel
	var firstErr error
	for res := range g.ResultC {
		if res.Error != nil && firstErr == nil {
			firstErr = res.Error
		}
	}
	if firstErr != nil {
		return firstErr
	}

	if err = w.coord.SetFilePersisted(path); err != nil {
		return err
	}
	logger.Info("worker persisted file",
		zap.String("worker", w.id),
		zap.String("file", path),
		zap.Int("blocks", len(status.BlockIDs)))
	return nil
}

// CacheFile records the cached share of a file after a load
func (w *BlockWorker) CacheFile(path string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("the file [%s] cache percent [%d] out of range", path, percent)
	}
	return w.coord.SetFileCachePercent(path, percent)
}
