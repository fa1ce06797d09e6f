// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"

	"github.com/huloud/huloud/pkg/configs"
	ctxPkg "github.com/huloud/huloud/pkg/context"
	"github.com/huloud/huloud/pkg/internal/service"
	"github.com/huloud/huloud/pkg/internal/storage"
	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 按 reconcile.cron（默认每天 03:17）执行全量孤儿清理扫描
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	cfg := configs.GetConfig()
	if !cfg.Reconcile.Enabled {
		return nil
	}

	expr := cfg.Reconcile.Cron
	if expr == "" {
		expr = configs.DefaultReconcileCron
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return sched.AddCron(JobReconcileSweep, expr, runReconcileSweep, baseCtx)
}

// runReconcileSweep 扫描全部用户，清理物理内容已缺失的索引条目.
func runReconcileSweep(ctx context.Context) {
	l := log.Logger().With().Str("job", JobReconcileSweep).Logger()

	svc := service.NewVaultService(ctx)

	n, err := svc.Reconcile(ctx)
	if err != nil {
		l.Error().Err(err).Msg("reconcile sweep failed")

		return
	}

	if n > 0 {
		l.Info().Int("pruned", n).Msg("reconcile sweep pruned orphans")
	}
}
