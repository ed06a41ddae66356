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
package main

import (
	"context"
	"log"
	"os"

	"github.com/wentaojin/cachefs/version"

	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/signal"

	"github.com/wentaojin/cachefs/logger"
	"github.com/wentaojin/cachefs/master"
	"github.com/wentaojin/cachefs/worker"
)

func main() {
	cfg := worker.NewConfig()
	if err := cfg.Parse(os.Args[1:]); err != nil {
		log.Fatalf("start worker failed. error is [%s], Use '--help' for help.", err)
	}

	logger.NewRootLogger(cfg.LogConfig)

	version.RecordAppVersion("cachefs", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())

	coord := master.NewCoordinator()
	audit, err := master.NewAuditCron(coord)
	if err != nil {
		logger.Fatal("audit cron build failed", zap.Error(err))
		os.Exit(1)
	}
	audit.Start()

	srv := worker.NewServer(cfg, coord)
	err = srv.Start(ctx)
	if err != nil {
		logger.Fatal("server start failed", zap.Error(err))
		os.Exit(1)
	}

	signal.SetupSignalHandler(func() {
		cancel()
	})

	<-ctx.Done()

	audit.Stop()
	srv.Close()

	err = logger.Sync()
	if err != nil {
		logger.Fatal("sync log", zap.Error(err))
		os.Exit(1)
	}
}
