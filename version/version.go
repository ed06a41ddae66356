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
package version

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/logger"
)

// Version information, overwritten at build time through -ldflags -X
var (
	Version   = "None"
	BuildTS   = "None"
	GitHash   = "None"
	GitBranch = "None"
)

// GetRawVersionInfo returns the version information without logging it
func GetRawVersionInfo() string {
	return fmt.Sprintf("Release Version: %s\nGit Commit Hash: %s\nGit Branch: %s\nUTC Build Time: %s",
		Version, GitHash, GitBranch, BuildTS)
}

// RecordAppVersion logs the app version and effective configuration at startup
func RecordAppVersion(app string, config string) {
	logger.Info("Welcome to "+app,
		zap.String("Release Version", Version),
		zap.String("Git Commit Hash", GitHash),
		zap.String("Git Branch", GitBranch),
		zap.String("UTC Build Time", BuildTS))
	logger.Info(app+" config", zap.String("config", config))
}
