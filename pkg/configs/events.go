package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	Item    ItemEventsConfig `mapstructure:"item"`
}

// ItemEventsConfig 针对文件树条目领域的事件开关。
type ItemEventsConfig struct {
	Created   bool `mapstructure:"created"`
	Moved     bool `mapstructure:"moved"`
	Deleted   bool `mapstructure:"deleted"`
	Favorited bool `mapstructure:"favorited"`
	Accessed  bool `mapstructure:"accessed"`
	Pruned    bool `mapstructure:"pruned"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 条目领域的事件：默认仅开启最小必要集，避免噪声过大
	v.SetDefault("events.item.created", true)
	v.SetDefault("events.item.deleted", true)
	v.SetDefault("events.item.pruned", true)

	// 可选事件：默认关闭，按需开启
	v.SetDefault("events.item.moved", false)
	v.SetDefault("events.item.favorited", false)
	v.SetDefault("events.item.accessed", false) // 访问事件量可能很大，默认关闭
}
