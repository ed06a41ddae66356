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
package conf

import (
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/wentaojin/cachefs/utils/constant"
	"github.com/wentaojin/cachefs/utils/etcdutil"
	"github.com/wentaojin/cachefs/utils/stringutil"
)

// EtcdStore is a Store over an etcd keyspace, used when configuration has to
// be visible across cluster processes rather than inside one test process.
type EtcdStore struct {
	etcdClient *clientv3.Client
	prefix     string
}

func NewEtcdStore(etcdClient *clientv3.Client, prefix string) *EtcdStore {
	return &EtcdStore{etcdClient: etcdClient, prefix: prefix}
}

func (e *EtcdStore) key(key string) string {
	return stringutil.StringBuilder(e.prefix, constant.StringSeparatorSlash, key)
}

func (e *EtcdStore) Get(key string) (string, error) {
	resp, err := etcdutil.GetKey(e.etcdClient, e.key(key))
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", fmt.Errorf("the configuration key [%s] get failed: %w", key, ErrKeyNotFound)
	}
	return stringutil.BytesToString(resp.Kvs[0].Value), nil
}

func (e *EtcdStore) Set(key string, value any) error {
	_, err := etcdutil.PutKey(e.etcdClient, e.key(key), fmt.Sprint(value))
	return err
}

func (e *EtcdStore) Delete(key string) error {
	_, err := etcdutil.DeleteKey(e.etcdClient, e.key(key))
	return err
}
