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
package signal

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/logger"
)

// SetupSignalHandler setup signal handler for the process, shutdownFunc runs
// once on the first termination signal.
func SetupSignalHandler(shutdownFunc func()) {
	closeSignalChan := make(chan os.Signal, 1)
	signal.Notify(closeSignalChan,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		sig := <-closeSignalChan
		logger.Warn("received signal to exit", zap.Stringer("signal", sig))
		shutdownFunc()
	}()
}
