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
package master

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wentaojin/cachefs/heartbeat"
	"github.com/wentaojin/cachefs/logger"
	"github.com/wentaojin/cachefs/utils/constant"
)

// auditJob periodically sweeps file layouts for blocks that lost every
// location, so operators see replica loss before clients do.
type auditJob struct {
	coord *Coordinator
}

func (j *auditJob) Run() {
	runAudit(j.coord)
}

func runAudit(coord *Coordinator) {
	if found := coord.auditLostBlocks(); found > 0 {
		logger.Warn("lost block audit found unlocated blocks", zap.Int("found", found))
	}
}

// NewAuditJob returns the lost block audit as a heartbeat job, so one extra
// sweep can be forced out of band between two cron fires.
func NewAuditJob(coord *Coordinator) heartbeat.Job {
	return func(ctx context.Context) error {
		runAudit(coord)
		return nil
	}
}

// NewAuditCron builds the coordinator background cron. The caller owns the
// returned cron lifecycle (Start/Stop).
func NewAuditCron(coord *Coordinator) (*cron.Cron, error) {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger.NewCronLogger(logger.GetRootLogger())),
	)
	if _, err := c.AddJob(constant.DefaultMasterAuditInterval, &auditJob{coord: coord}); err != nil {
		return nil, err
	}
	return c, nil
}
