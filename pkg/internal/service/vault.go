// Package service 实现文件树的编排逻辑：组合物理存储与元数据索引完成
// 新建目录、上传、重命名/移动、删除、孤儿清理等复合操作.
//
// 写入顺序约定：创建类操作先物理后元数据（崩溃最多留下无主文件，不会出现
// 指向空内容的元数据）；删除类操作同样先物理后元数据，物理 NotFound 视为成功.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/huloud/huloud/pkg/configs"
	ctxPkg "github.com/huloud/huloud/pkg/context"
	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/storage/fsstore"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	"github.com/huloud/huloud/pkg/internal/storage/mq"
	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/metrics"
	"github.com/huloud/huloud/pkg/queue"
)

// countOp 记录一次操作的结果指标.
func countOp(op string, err *error) {
	status := "ok"
	if err != nil && *err != nil {
		status = "error"
	}

	metrics.ItemOperations.WithLabelValues(op, status).Inc()
}

// VaultService 是文件树的编排层，唯一允许同时改写物理存储与元数据索引的组件.
type VaultService struct {
	fs       *fsstore.Store
	index    *index.Index
	mqClient *mq.Client
	cfg      *configs.AppConfig
}

// NewVaultService 从 context 取出存储资源构造服务.
func NewVaultService(c context.Context) *VaultService {
	return &VaultService{
		fs:       ctxPkg.GetFSStore(c),
		index:    ctxPkg.GetIndex(c),
		mqClient: ctxPkg.GetMQClient(c),
		cfg:      configs.GetConfig(),
	}
}

// NewVaultServiceWith 直接注入依赖，测试用.
func NewVaultServiceWith(fs *fsstore.Store, ix *index.Index, cfg *configs.AppConfig) *VaultService {
	return &VaultService{fs: fs, index: ix, cfg: cfg}
}

// userLocks 按用户序列化全部变更操作. 服务实例按请求构造，锁必须进程级共享.
var userLocks sync.Map

// lockUser 获取用户级互斥锁，调用方负责 defer unlock.
func lockUser(userID int64) *sync.Mutex {
	mu, _ := userLocks.LoadOrStore(userID, &sync.Mutex{})

	l := mu.(*sync.Mutex)
	l.Lock()

	return l
}

// relPath 把条目逻辑路径转成物理存储的相对路径.
func relPath(logical string) string {
	return strings.TrimPrefix(logical, "/")
}

// validateName 校验条目名称：非空且不含路径分隔符.
func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", errs.ErrInvalidOperation)
	}

	if strings.ContainsAny(name, "/\\") || name == ".." || name == "." {
		return fmt.Errorf("%w: name %q contains path separators", errs.ErrInvalidPath, name)
	}

	return nil
}

// parentPathOf 解析父目录：nil 表示根层，否则必须存在、归属当前用户且为目录.
func (s *VaultService) parentPathOf(userID int64, parentID *int64) (string, error) {
	if parentID == nil {
		return "", nil
	}

	parent, err := s.index.Get(userID, *parentID)
	if err != nil {
		return "", err
	}

	if !parent.IsDirectory {
		return "", fmt.Errorf("%w: parent %d is not a directory", errs.ErrInvalidOperation, *parentID)
	}

	return parent.Path, nil
}

// siblingTaken 判断目标父目录下是否已有同名条目.
func (s *VaultService) siblingTaken(userID int64, parentID *int64, name string, excludeID int64) bool {
	for _, it := range s.index.ListChildren(userID, parentID) {
		if it.ID != excludeID && it.Name == name {
			return true
		}
	}

	return false
}

// itemRef 构造事件引用.
func itemRef(it *model.Item) queue.ItemRef {
	return queue.ItemRef{
		ID:          it.ID,
		UserID:      it.UserID,
		Name:        it.Name,
		Path:        it.Path,
		Type:        string(it.Type),
		Size:        it.Size,
		IsDirectory: it.IsDirectory,
	}
}

// publish 事件发布是旁路行为：失败只记日志，绝不影响已确认的存储变更.
func (s *VaultService) publish(fn func() error, topic string) {
	if s.mqClient == nil {
		return
	}

	if err := fn(); err != nil {
		log.Logger().Warn().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}

func (s *VaultService) publishCreated(it *model.Item, source string) {
	if !s.cfg.Events.Item.Created {
		return
	}

	s.publish(func() error {
		return queue.PublishItemCreated(publisher{s.mqClient}, queue.ItemCreatedPayload{Item: itemRef(it), Source: source})
	}, queue.TopicItemCreated)
}

func (s *VaultService) publishMoved(it *model.Item, oldPath string) {
	if !s.cfg.Events.Item.Moved {
		return
	}

	s.publish(func() error {
		return queue.PublishItemMoved(publisher{s.mqClient}, queue.ItemMovedPayload{Item: itemRef(it), OldPath: oldPath, NewPath: it.Path})
	}, queue.TopicItemMoved)
}

func (s *VaultService) publishDeleted(it *model.Item, cascaded int) {
	if !s.cfg.Events.Item.Deleted {
		return
	}

	s.publish(func() error {
		return queue.PublishItemDeleted(publisher{s.mqClient}, queue.ItemDeletedPayload{Item: itemRef(it), Cascaded: cascaded})
	}, queue.TopicItemDeleted)
}

func (s *VaultService) publishFavorited(it *model.Item) {
	if !s.cfg.Events.Item.Favorited {
		return
	}

	s.publish(func() error {
		return queue.PublishItemFavorited(publisher{s.mqClient}, queue.ItemFavoritedPayload{Item: itemRef(it), Favorite: it.IsFavorite})
	}, queue.TopicItemFavorited)
}

func (s *VaultService) publishAccessed(it *model.Item, preview bool, token string) {
	if !s.cfg.Events.Item.Accessed {
		return
	}

	s.publish(func() error {
		return queue.PublishItemAccessed(publisher{s.mqClient}, queue.ItemAccessedPayload{Item: itemRef(it), Preview: preview, Token: token})
	}, queue.TopicItemAccessed)
}

func (s *VaultService) publishPruned(it *model.Item, reason string) {
	if !s.cfg.Events.Item.Pruned {
		return
	}

	s.publish(func() error {
		return queue.PublishItemPruned(publisher{s.mqClient}, queue.ItemPrunedPayload{Item: itemRef(it), Reason: reason})
	}, queue.TopicItemPruned)
}

// publisher 把 mq.Client 适配为 watermill message.Publisher.
type publisher struct {
	c *mq.Client
}

func (p publisher) Publish(topic string, msgs ...*message.Message) error {
	return p.c.Publish(context.Background(), topic, msgs...)
}

func (p publisher) Close() error { return nil }
