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
package master

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/logger"
)

// FileStatus is the externally visible state of one file, the status test
// predicates poll against.
type FileStatus struct {
	Path           string `json:"path"`
	Persisted      bool   `json:"persisted"`
	InCachePercent int    `json:"in-cache-percent"`
	BlockIDs       []int64
}

// Coordinator is the authoritative block location and file metadata registry.
// Workers push state changes at commit time and through the block sync
// heartbeat; tests and clients only read.
type Coordinator struct {
	mu sync.RWMutex
	// block id -> worker ids currently holding the block
	locations map[int64]map[string]struct{}
	files     map[string]*FileStatus
	lost      map[int64]struct{}
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		locations: make(map[int64]map[string]struct{}),
		files:     make(map[string]*FileStatus),
		lost:      make(map[int64]struct{}),
	}
}

// CreateFile registers a file and its block layout
func (c *Coordinator) CreateFile(path string, blockIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = &FileStatus{Path: path, BlockIDs: blockIDs}
}

// CommitBlock records a worker holding a block replica
func (c *Coordinator) CommitBlock(workerID string, blockID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locations[blockID] == nil {
		c.locations[blockID] = make(map[string]struct{})
	}
	c.locations[blockID][workerID] = struct{}{}
	delete(c.lost, blockID)
}

// ApplyRemovals consumes one worker removal report produced by the block sync
// heartbeat, dropping the reporting worker from every listed block location.
func (c *Coordinator) ApplyRemovals(workerID string, blockIDs []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, blockID := range blockIDs {
		workers := c.locations[blockID]
		if workers == nil {
			continue
		}
		delete(workers, workerID)
		if len(workers) == 0 {
			delete(c.locations, blockID)
		}
	}
	logger.Info("coordinator applied block removals",
		zap.String("worker", workerID),
		zap.Int64s("blocks", blockIDs))
}

// BlockWorkers returns the workers currently holding a block
func (c *Coordinator) BlockWorkers(blockID int64) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	workers := make([]string, 0, len(c.locations[blockID]))
	for workerID := range c.locations[blockID] {
		workers = append(workers, workerID)
	}
	return workers
}

// FileStatus returns a copy of the file metadata
func (c *Coordinator) FileStatus(path string) (FileStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fs := c.files[path]
	if fs == nil {
		return FileStatus{}, fmt.Errorf("the file [%s] is not found", path)
	}
	status := *fs
	status.BlockIDs = append([]int64(nil), fs.BlockIDs...)
	return status, nil
}

// SetFilePersisted marks a file durable in the under storage
func (c *Coordinator) SetFilePersisted(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fs := c.files[path]
	if fs == nil {
		return fmt.Errorf("the file [%s] is not found", path)
	}
	fs.Persisted = true
	return nil
}

// SetFileCachePercent records how much of a file sits in cluster cache
func (c *Coordinator) SetFileCachePercent(path string, percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fs := c.files[path]
	if fs == nil {
		return fmt.Errorf("the file [%s] is not found", path)
	}
	fs.InCachePercent = percent
	return nil
}

// LostBlocks returns the blocks the audit found without any live location
func (c *Coordinator) LostBlocks() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lost := make([]int64, 0, len(c.lost))
	for blockID := range c.lost {
		lost = append(lost, blockID)
	}
	return lost
}

// auditLostBlocks scans file layouts for blocks without any location
func (c *Coordinator) auditLostBlocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := 0
	for _, fs := range c.files {
		for _, blockID := range fs.BlockIDs {
			if len(c.locations[blockID]) == 0 {
				if _, ok := c.lost[blockID]; !ok {
					c.lost[blockID] = struct{}{}
					found++
				}
			}
		}
	}
	return found
}
