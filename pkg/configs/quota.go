package configs

import (
	"strconv"

	"github.com/spf13/viper"
)

// DefaultQuotaTotalBytes 默认每用户配额：32GB.
const DefaultQuotaTotalBytes int64 = 32 * 1024 * 1024 * 1024

// QuotaConfig 每用户存储配额.
type QuotaConfig struct {
	// TotalBytes 所有用户的默认配额（字节）
	TotalBytes int64 `mapstructure:"total_bytes" rule:"min=0"`
	// PerUser 按用户覆盖默认配额，键为用户 ID 的十进制字符串
	PerUser map[string]int64 `mapstructure:"per_user"`
}

// TotalBytesFor 返回指定用户的配额；PerUser 覆盖优先.
func (c *QuotaConfig) TotalBytesFor(userID int64) int64 {
	if c.PerUser != nil {
		if total, ok := c.PerUser[strconv.FormatInt(userID, 10)]; ok {
			return total
		}
	}

	return c.TotalBytes
}

func (c *QuotaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("quota.total_bytes", DefaultQuotaTotalBytes)
}
