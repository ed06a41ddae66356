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
	"fmt"
	"net"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wentaojin/cachefs/conf"
	"github.com/wentaojin/cachefs/heartbeat"
	"github.com/wentaojin/cachefs/logger"
	"github.com/wentaojin/cachefs/master"
	"github.com/wentaojin/cachefs/utils/configutil"
	"github.com/wentaojin/cachefs/utils/constant"
	"github.com/wentaojin/cachefs/utils/etcdutil"
	"github.com/wentaojin/cachefs/utils/netutil"
	"github.com/wentaojin/cachefs/utils/stringutil"
)

type Server struct {
	*Config

	coord      *master.Coordinator
	store      conf.Store
	etcdClient *clientv3.Client

	blockWorker *BlockWorker
	scheduler   *heartbeat.Scheduler
	dataPort    int
	group       *errgroup.Group
}

// NewServer creates a new server
func NewServer(cfg *Config, coord *master.Coordinator) *Server {
	return &Server{
		Config: cfg,
		coord:  coord,
	}
}

// Start reserves the worker service port, rebinds the data listener on it and
// launches the block sync heartbeat. It returns once the server is serving,
// the data plane drains when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	opts, err := s.initOption(
		configutil.WithWorkerName(s.WorkerOptions.Name),
		configutil.WithMasterEndpoint(s.WorkerOptions.Join),
		configutil.WithWorkerBindHost(s.WorkerOptions.BindHost),
		configutil.WithWorkerSyncExpress(s.WorkerOptions.SyncExpress))
	if err != nil {
		return err
	}

	if opts.Join != "" {
		s.etcdClient, err = etcdutil.CreateClient(ctx, stringutil.WrapSchemes(opts.Join, false), nil)
		if err != nil {
			return fmt.Errorf("create etcd client for [%v] failed: [%v]", opts.Join, err)
		}
		s.store = conf.NewEtcdStore(s.etcdClient, configutil.DefaultConfPrefixKey)
	} else {
		s.store = conf.NewMemStore()
	}

	reserved, err := netutil.ReservePorts(s.store, []netutil.ServiceDescriptor{
		{Service: opts.Name, PortKey: constant.ConfKeyWorkerDataPort, BindHost: opts.BindHost},
	})
	if err != nil {
		return err
	}
	lis, err := reserved[opts.Name].Rebind()
	if err != nil {
		return err
	}
	s.dataPort = reserved[opts.Name].Port

	s.blockWorker = NewBlockWorker(opts.Name, s.coord)
	s.scheduler = heartbeat.NewScheduler(ctx)
	if err = s.scheduler.Register(constant.HeartbeatWorkerBlockSync, opts.SyncExpress, NewSyncJob(s.blockWorker)); err != nil {
		_ = lis.Close()
		return err
	}
	// manual-only, the cron in cmd owns the periodic sweep
	if err = s.scheduler.Register(constant.HeartbeatMasterLostBlock, "", master.NewAuditJob(s.coord)); err != nil {
		_ = lis.Close()
		return err
	}
	s.scheduler.Start()

	logger.Info("worker server started",
		zap.String("worker", opts.Name),
		zap.String("addr", netutil.BindAddr(opts.BindHost, s.dataPort)),
		zap.String("sync express", opts.SyncExpress))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.serveData(lis)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		return lis.Close()
	})
	s.group = g
	return nil
}

func (s *Server) initOption(opts ...configutil.WorkerOption) (*configutil.WorkerOptions, error) {
	workerCfg := configutil.DefaultWorkerServerConfig()
	for _, opt := range opts {
		opt(workerCfg)
	}

	if _, _, err := net.SplitHostPort(net.JoinHostPort(workerCfg.BindHost, "0")); err != nil {
		return nil, fmt.Errorf("worker bind host [%s] invalid: [%v]", workerCfg.BindHost, err)
	}

	s.WorkerOptions = workerCfg
	return workerCfg, nil
}

// serveData accepts and drops connections, the data plane protocol itself is
// out of scope here. Liveness probes dial this listener.
func (s *Server) serveData(lis *net.TCPListener) {
	for {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		_ = conn.Close()
	}
}

// Close stops the heartbeat, waits for the data plane to drain and releases
// the etcd client. Call after canceling the Start context.
func (s *Server) Close() {
	if s.scheduler != nil {
		s.scheduler.Close()
	}
	if s.group != nil {
		if err := s.group.Wait(); err != nil {
			logger.Warn("worker server close data listener failed", zap.Error(err))
		}
	}
	if s.etcdClient != nil {
		if err := s.etcdClient.Close(); err != nil {
			logger.Warn("worker server close etcd client failed", zap.Error(err))
		}
	}
}

func (s *Server) BlockWorker() *BlockWorker {
	return s.blockWorker
}

func (s *Server) Scheduler() *heartbeat.Scheduler {
	return s.scheduler
}

func (s *Server) Store() conf.Store {
	return s.store
}

func (s *Server) DataPort() int {
	return s.dataPort
}
