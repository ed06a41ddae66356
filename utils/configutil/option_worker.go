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
package configutil

const (
	DefaultWorkerNamePrefix = "worker"
	DefaultWorkerBindHost   = "127.0.0.1"
	// DefaultWorkerSyncExpress drives the block sync heartbeat every 5 seconds
	DefaultWorkerSyncExpress = "*/5 * * * * * *"
	// DefaultConfPrefixKey is the etcd keyspace shared cluster configuration lives under
	DefaultConfPrefixKey = "/cachefs/conf"
)

// WorkerOptions worker server relative config items
type WorkerOptions struct {
	Name string `toml:"name" json:"name"`
	// Join is the etcd endpoint for cluster-shared configuration, empty runs
	// the worker with an in-process configuration store
	Join        string `toml:"join" json:"join"`
	BindHost    string `toml:"bind-host" json:"bind-host"`
	SyncExpress string `toml:"sync-express" json:"sync-express"`
}

type WorkerOption func(opts *WorkerOptions)

func DefaultWorkerServerConfig() *WorkerOptions {
	return &WorkerOptions{
		Name:        DefaultWorkerNamePrefix,
		BindHost:    DefaultWorkerBindHost,
		SyncExpress: DefaultWorkerSyncExpress,
	}
}

func WithWorkerName(name string) WorkerOption {
	return func(opts *WorkerOptions) {
		if name != "" {
			opts.Name = name
		}
	}
}

func WithMasterEndpoint(addr string) WorkerOption {
	return func(opts *WorkerOptions) {
		opts.Join = addr
	}
}

func WithWorkerBindHost(host string) WorkerOption {
	return func(opts *WorkerOptions) {
		if host != "" {
			opts.BindHost = host
		}
	}
}

func WithWorkerSyncExpress(express string) WorkerOption {
	return func(opts *WorkerOptions) {
		if express != "" {
			opts.SyncExpress = express
		}
	}
}
