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
	"fmt"

	"github.com/wentaojin/cachefs/conf"
	"github.com/wentaojin/cachefs/heartbeat"
	"github.com/wentaojin/cachefs/master"
	"github.com/wentaojin/cachefs/utils/constant"
	"github.com/wentaojin/cachefs/utils/netutil"
	"github.com/wentaojin/cachefs/utils/waitfor"
	"github.com/wentaojin/cachefs/worker"
)

// WaitForPersisted blocks until the coordinator reports the file durable in
// the under storage, bounded by the default condition wait timeout.
func WaitForPersisted(ctx context.Context, coord *master.Coordinator, path string) error {
	return waitfor.WaitFor(ctx, waitfor.Config{
		Description: fmt.Sprintf("file [%s] persisted", path),
	}, func() (bool, error) {
		status, err := coord.FileStatus(path)
		if err != nil {
			return false, err
		}
		return status.Persisted, nil
	})
}

// WaitForCached blocks until the coordinator reports the expected share of the
// file resident in cluster cache.
func WaitForCached(ctx context.Context, coord *master.Coordinator, path string, percent int) error {
	return waitfor.WaitFor(ctx, waitfor.Config{
		Description: fmt.Sprintf("file [%s] cached [%d%%]", path, percent),
	}, func() (bool, error) {
		status, err := coord.FileStatus(path)
		if err != nil {
			return false, err
		}
		return status.InCachePercent == percent, nil
	})
}

// WaitForBlocksFreed drives block removals all the way to the coordinator.
//
// One block sync cycle is not enough: the first cycle only folds the removals
// into the worker reporter. So trigger a cycle, wait until the reporter holds
// the removals, then trigger a second cycle that flushes the report. Each
// trigger blocks until its cycle has started.
func WaitForBlocksFreed(ctx context.Context, scheduler *heartbeat.Scheduler, w *worker.BlockWorker, blockIDs ...int64) error {
	if err := scheduler.Execute(ctx, constant.HeartbeatWorkerBlockSync); err != nil {
		return err
	}
	err := waitfor.WaitFor(ctx, waitfor.Config{
		Description: fmt.Sprintf("worker [%s] reporter holds removed blocks", w.ID()),
	}, func() (bool, error) {
		return w.Reporter().HasPendingRemovals(blockIDs...), nil
	})
	if err != nil {
		return err
	}
	return scheduler.Execute(ctx, constant.HeartbeatWorkerBlockSync)
}

// ReserveClusterPorts reserves one ephemeral port per cluster-facing service
// and publishes them in the configuration store. Callers that need to listen
// on a reserved port Rebind its socket.
func ReserveClusterPorts(store conf.Store) (map[string]*netutil.ReservedPort, error) {
	return netutil.ReservePorts(store, []netutil.ServiceDescriptor{
		{Service: "master-client", PortKey: constant.ConfKeyMasterClientPort},
		{Service: "master-peer", PortKey: constant.ConfKeyMasterPeerPort},
		{Service: "worker-data", PortKey: constant.ConfKeyWorkerDataPort},
	})
}
