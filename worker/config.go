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
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wentaojin/cachefs/logger"
	"github.com/wentaojin/cachefs/utils/configutil"
	"github.com/wentaojin/cachefs/utils/stringutil"
	"github.com/wentaojin/cachefs/version"
)

// Config is the configuration for cachefs-worker
type Config struct {
	FlagSet       *flag.FlagSet             `json:"-"`
	ConfigFile    string                    `toml:"config-file" json:"config-file"`
	PrintVersion  bool                      `toml:"-" json:"-"`
	WorkerOptions *configutil.WorkerOptions `toml:"worker" json:"worker"`
	LogConfig     *logger.Config            `toml:"log" json:"log"`
}

func NewConfig() *Config {
	cfg := &Config{
		WorkerOptions: &configutil.WorkerOptions{},
		LogConfig: &logger.Config{
			LogLevel:   "info",
			MaxSize:    128,
			MaxDays:    7,
			MaxBackups: 30,
		},
	}
	cfg.FlagSet = flag.NewFlagSet("cachefs worker", flag.ContinueOnError)
	fs := cfg.FlagSet
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage of cachefs worker:")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.ConfigFile, "config", "", "path to config file")
	fs.BoolVar(&cfg.PrintVersion, "V", false, "print version information and exit")
	fs.StringVar(&cfg.WorkerOptions.Name, "name", "", "worker instance name")
	fs.StringVar(&cfg.WorkerOptions.Join, "join", "", "etcd endpoint for cluster-shared configuration")
	fs.StringVar(&cfg.WorkerOptions.BindHost, "bind-host", "", "worker service bind host")
	fs.StringVar(&cfg.WorkerOptions.SyncExpress, "sync-express", "", "block sync heartbeat cron express")
	fs.StringVar(&cfg.LogConfig.LogFile, "log-file", "", "worker instance log file")
	return cfg
}

func (c *Config) Parse(args []string) error {
	err := c.FlagSet.Parse(args)
	switch err {
	case nil:
	case flag.ErrHelp:
		os.Exit(0)
	default:
		os.Exit(2)
	}

	if c.PrintVersion {
		fmt.Println(version.GetRawVersionInfo())
		os.Exit(0)
	}

	if c.ConfigFile != "" {
		if err = c.configFromFile(c.ConfigFile); err != nil {
			return err
		}
	}

	// Parse again to replace with command line options.
	err = c.FlagSet.Parse(args)
	if err != nil {
		return err
	}

	if len(c.FlagSet.Args()) != 0 {
		return fmt.Errorf("worker config invalid flag: [%v]", c.FlagSet.Args())
	}

	return nil
}

// configFromFile loads config from file.
func (c *Config) configFromFile(path string) error {
	metaData, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("decode config file [%s] failed: %v", path, err)
	}
	if undecoded := metaData.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("config file [%s] contained unknown configuration options: %v", path, keys)
	}
	return nil
}

func (c *Config) String() string {
	cfgStr, err := stringutil.MarshalJSON(c)
	if err != nil {
		return fmt.Sprintf("marshal config to json error: %v", err)
	}
	return cfgStr
}
