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
package netutil

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wentaojin/cachefs/utils/waitfor"
)

const defaultDialProbeTimeout = 1 * time.Second

// PortStarted waits until a port is being listened
func PortStarted(ctx context.Context, host string, port int, timeout time.Duration) error {
	addr := BindAddr(host, port)
	return waitfor.WaitFor(ctx, waitfor.Config{
		Description: fmt.Sprintf("port [%s] started", addr),
		Timeout:     timeout,
	}, func() (bool, error) {
		conn, err := net.DialTimeout("tcp", addr, defaultDialProbeTimeout)
		if err != nil {
			return false, nil
		}
		_ = conn.Close()
		return true, nil
	})
}

// PortStopped waits until a port is being released
func PortStopped(ctx context.Context, host string, port int, timeout time.Duration) error {
	addr := BindAddr(host, port)
	return waitfor.WaitFor(ctx, waitfor.Config{
		Description: fmt.Sprintf("port [%s] stopped", addr),
		Timeout:     timeout,
	}, func() (bool, error) {
		conn, err := net.DialTimeout("tcp", addr, defaultDialProbeTimeout)
		if err != nil {
			return true, nil
		}
		_ = conn.Close()
		return false, nil
	})
}
