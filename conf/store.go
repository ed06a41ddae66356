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
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var ErrKeyNotFound = errors.New("configuration key not found")

// Store is the process-wide mutable key-value configuration shared between the
// port reservation service (writer) and cluster processes (readers at startup).
// There is no teardown contract, tests reset or replace the store per run.
type Store interface {
	Get(key string) (string, error)
	Set(key string, value any) error
	Delete(key string) error
}

// GetInt reads key and converts the value to int
func GetInt(s Store, key string) (int, error) {
	val, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("the configuration key [%s] value [%s] convert int failed: %v", key, val, err)
	}
	return num, nil
}

// MemStore is an in-memory Store, the per-test default
type MemStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{keys: make(map[string]string)}
}

func (m *MemStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.keys[key]
	if !ok {
		return "", fmt.Errorf("the configuration key [%s] get failed: %w", key, ErrKeyNotFound)
	}
	return val, nil
}

func (m *MemStore) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = fmt.Sprint(value)
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// Reset clears all keys, used between test runs
func (m *MemStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = make(map[string]string)
}
