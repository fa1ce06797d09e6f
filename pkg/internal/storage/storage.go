// Package storage 聚合三类存储资源：物理字节存储、元数据索引与事件总线.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	fs := mgr.GetFSStore()
//	ix := mgr.GetIndex()
package storage

import (
	"context"
	"sync"

	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/configs"
	"github.com/huloud/huloud/pkg/internal/storage/fsstore"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	mqc "github.com/huloud/huloud/pkg/internal/storage/mq"
	nlog "github.com/huloud/huloud/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	FS    *fsstore.Store
	Index *index.Index
	MQ    *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置. 重复调用只返回已初始化实例.
// 元数据快照在这里加载：索引恢复失败时服务拒绝启动，而不是带着空索引
// 覆盖既有数据.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		osFs := afero.NewOsFs()

		// 物理存储
		m.FS = fsstore.NewWithFs(osFs, cfg.Storage.RootPath)

		// 元数据索引 + 快照恢复
		m.Index = index.New(osFs, cfg.Storage.SnapshotPath)
		if e := m.Index.Load(); e != nil {
			err = e

			return
		}

		// 事件总线
		if cfg.Events.Enabled {
			if mqi, e := mqc.New(ctx); e != nil {
				err = e

				return
			} else {
				m.MQ = mqi
			}
		}

		mgr = m

		nlog.Logger().Info().
			Str("root", cfg.Storage.RootPath).
			Str("snapshot", cfg.Storage.SnapshotPath).
			Msg("storage manager initialized")
	})

	return mgr, err
}

// GetFSStore 获取物理存储客户端.
func (m *Manager) GetFSStore() *fsstore.Store {
	return m.FS
}

// GetIndex 获取元数据索引.
func (m *Manager) GetIndex() *index.Index {
	return m.Index
}

// GetMQClient 获取事件总线客户端，事件关闭时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}
