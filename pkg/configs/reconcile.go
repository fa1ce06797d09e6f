package configs

import "github.com/spf13/viper"

const (
	// DefaultReconcileCron 每天 03:17 做一次全量孤儿清理.
	DefaultReconcileCron = "17 3 * * *"
)

// ReconcileConfig 周期性孤儿清理任务配置。按访问触发的惰性清理始终开启，
// 这里只控制后台全量扫描.
type ReconcileConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

func (c *ReconcileConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.cron", DefaultReconcileCron)
}
