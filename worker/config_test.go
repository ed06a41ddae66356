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

import "testing"

func TestConfigParseFlags(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Parse([]string{
		"-name", "worker-1",
		"-join", "127.0.0.1:2379",
		"-sync-express", "*/2 * * * * * *",
	}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.WorkerOptions.Name != "worker-1" {
		t.Fatalf("expected name worker-1, got %q", cfg.WorkerOptions.Name)
	}
	if cfg.WorkerOptions.Join != "127.0.0.1:2379" {
		t.Fatalf("expected join endpoint, got %q", cfg.WorkerOptions.Join)
	}
	if cfg.WorkerOptions.SyncExpress != "*/2 * * * * * *" {
		t.Fatalf("expected sync express override, got %q", cfg.WorkerOptions.SyncExpress)
	}
}

func TestConfigVersionFlagRegistered(t *testing.T) {
	cfg := NewConfig()
	// -V prints version info and exits inside Parse, only check the wiring here
	if cfg.FlagSet.Lookup("V") == nil {
		t.Fatalf("version flag not registered")
	}
}

func TestConfigRejectsPositionalArgs(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Parse([]string{"stray-arg"}); err == nil {
		t.Fatalf("expected an error for positional arguments")
	}
}
