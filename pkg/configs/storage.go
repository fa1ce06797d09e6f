package configs

import "github.com/spf13/viper"

const (
	// DefaultStorageRootPath 物理存储根目录，每个用户在 users/<id>/ 下有独立子树.
	DefaultStorageRootPath = "storage/data"
	// DefaultSnapshotPath 元数据索引快照文件（JSON）.
	DefaultSnapshotPath = "storage/meta/items.json"
)

// StorageConfig 物理存储与元数据快照配置.
type StorageConfig struct {
	// RootPath 字节存储根目录；用户树位于 <root>/users/<userID>/
	RootPath string `mapstructure:"root_path" rule:"required"`
	// SnapshotPath 元数据索引的快照文件路径
	SnapshotPath string `mapstructure:"snapshot_path" rule:"required"`
}

func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.root_path", DefaultStorageRootPath)
	v.SetDefault("storage.snapshot_path", DefaultSnapshotPath)
}
