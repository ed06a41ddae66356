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
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/wentaojin/cachefs/conf"
	"github.com/wentaojin/cachefs/utils/constant"
	"github.com/wentaojin/cachefs/utils/stringutil"
)

// ErrPortAllocation matches any PortAllocationError via errors.Is
var ErrPortAllocation = errors.New("service port allocation failed")

// ServiceDescriptor names one network-facing service a cluster process will
// expose, the configuration key its chosen port is published under, and the
// bind address policy. An empty BindHost falls back to the per-service
// "<service>.bind.host" configuration key, then to the loopback default.
type ServiceDescriptor struct {
	Service  string
	PortKey  string
	BindHost string
}

// ReservedPort holds an ephemeral port claimed for one service. The listener
// stays open so the OS cannot hand the port to anyone else; ownership belongs
// to the caller, which eventually closes it or rebinds the real server on the
// same port.
type ReservedPort struct {
	Service  string
	Port     int
	Listener *net.TCPListener
}

// Rebind closes the reservation socket and listens again on the reserved port.
// Two sockets cannot bind the same port at once, so the claim is released only
// at the instant the real listener takes it over.
func (rp *ReservedPort) Rebind() (*net.TCPListener, error) {
	addr := rp.Listener.Addr().(*net.TCPAddr)
	if err := rp.Listener.Close(); err != nil {
		return nil, fmt.Errorf("the service [%s] reservation socket close failed: %v", rp.Service, err)
	}
	lis, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("the service [%s] rebind addr [%s] failed: %v", rp.Service, addr, err)
	}
	return lis, nil
}

// PortAllocationError identifies the descriptor a bind failed for. Earlier
// reservations of the same batch are unaffected and stay open.
type PortAllocationError struct {
	Service string
	Addr    string
	Cause   error
}

func (e *PortAllocationError) Error() string {
	return fmt.Sprintf("the service [%s] bind addr [%s] port allocation failed: %v", e.Service, e.Addr, e.Cause)
}

func (e *PortAllocationError) Is(target error) bool {
	return target == ErrPortAllocation
}

func (e *PortAllocationError) Unwrap() error {
	return e.Cause
}

// ReservePorts claims one OS-assigned ephemeral port per descriptor, in order,
// publishes each chosen port into the configuration store under the
// descriptor's key and returns the open reservation sockets keyed by service.
//
// Descriptors are processed independently, every socket stays open until the
// consumer rebinds it, so a later descriptor can never collide with an earlier
// one of the same batch. On failure the partial result is returned together
// with the error; nothing is rolled back here, the caller decides whether to
// release the earlier reservations.
//
// One batch belongs to one logical caller. Concurrent unrelated batches are
// safe because the OS enforces port uniqueness globally.
func ReservePorts(store conf.Store, descs []ServiceDescriptor) (map[string]*ReservedPort, error) {
	reserved := make(map[string]*ReservedPort, len(descs))
	for _, d := range descs {
		addr := net.JoinHostPort(resolveBindHost(store, d), "0")
		tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
		if err != nil {
			return reserved, &PortAllocationError{Service: d.Service, Addr: addr, Cause: err}
		}
		lis, err := net.ListenTCP("tcp", tcpAddr)
		if err != nil {
			return reserved, &PortAllocationError{Service: d.Service, Addr: addr, Cause: err}
		}

		port := lis.Addr().(*net.TCPAddr).Port
		if err = store.Set(d.PortKey, port); err != nil {
			// the claim was never published, release it instead of leaking
			_ = lis.Close()
			return reserved, fmt.Errorf("the service [%s] port [%d] publish key [%s] failed: %v", d.Service, port, d.PortKey, err)
		}

		reserved[d.Service] = &ReservedPort{
			Service:  d.Service,
			Port:     port,
			Listener: lis,
		}
	}
	return reserved, nil
}

func resolveBindHost(store conf.Store, d ServiceDescriptor) string {
	if d.BindHost != "" {
		return d.BindHost
	}
	key := stringutil.StringBuilder(d.Service, constant.StringSeparatorDot, constant.ConfKeyBindHostSuffix)
	if host, err := store.Get(key); err == nil && host != "" {
		return host
	}
	return constant.DefaultServiceBindHost
}

// BindAddr formats the advertise addr for a reserved port
func BindAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
