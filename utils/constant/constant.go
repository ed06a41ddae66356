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
package constant

import "time"

const (
	StringSeparatorDot   = "."
	StringSeparatorSlash = "/"
)

// DefaultWaitForSleepTime is the interval between two condition evaluations
const DefaultWaitForSleepTime = 100 * time.Millisecond

// DefaultWaitForTimeout is the bound of one condition wait
const DefaultWaitForTimeout = 15 * time.Second

// DefaultHeartbeatExecuteTimeout bounds the wait for a manually triggered
// heartbeat cycle to be picked up by the scheduler
const DefaultHeartbeatExecuteTimeout = 5 * time.Second

// DefaultHeartbeatEventChannelSize used for manual trigger queue channel size
const DefaultHeartbeatEventChannelSize = 16

// Heartbeat task names known to the cluster
const (
	HeartbeatWorkerBlockSync   = "worker-block-sync"
	HeartbeatMasterLostBlock   = "master-lost-block-audit"
	DefaultMasterAuditInterval = "@every 30s"
)

// Configuration store keys for network-facing services
const (
	ConfKeyMasterClientPort = "master.client.port"
	ConfKeyMasterPeerPort   = "master.peer.port"
	ConfKeyWorkerDataPort   = "worker.data.port"
	ConfKeyBindHostSuffix   = "bind.host"
)

// DefaultServiceBindHost is used when no per-service bind policy is configured
const DefaultServiceBindHost = "127.0.0.1"

// DefaultWorkerPersistThread limits the worker persist fan-out
const DefaultWorkerPersistThread = 4
