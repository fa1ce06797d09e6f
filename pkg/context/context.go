// Package context 拓展上下文功能，将存储资源集成到上下文中，方便在应用程序各处传递和使用.
package context

import (
	"context"

	"github.com/huloud/huloud/pkg/internal/storage"
	"github.com/huloud/huloud/pkg/internal/storage/fsstore"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	mqc "github.com/huloud/huloud/pkg/internal/storage/mq"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetFSStore 从 context 中获取物理存储客户端.
func GetFSStore(ctx context.Context) *fsstore.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetFSStore()
	}

	return nil
}

// GetIndex 从 context 中获取元数据索引.
func GetIndex(ctx context.Context) *index.Index {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetIndex()
	}

	return nil
}

// GetMQClient 从 context 中获取事件总线客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}
