package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/metrics"
)

// GetByID 按 ID 查找条目. 文件会顺带做一次物理存在性校验：物理内容
// 已消失的条目被惰性清理，调用方拿到 NotFound 而不是陈旧元数据.
// 目录不做物理校验（成本考虑）.
func (s *VaultService) GetByID(ctx context.Context, userID, id int64) (*types.ItemResponse, error) {
	it, err := s.getVerified(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	resp := types.NewItemResponse(it)

	return &resp, nil
}

// getVerified 返回经物理校验的条目模型，下载等内部路径复用.
func (s *VaultService) getVerified(ctx context.Context, userID, id int64) (*model.Item, error) {
	it, err := s.index.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if it.IsDirectory {
		return it, nil
	}

	if _, statErr := s.fs.Stat(userID, relPath(it.Path)); statErr != nil {
		if errors.Is(statErr, errs.ErrNotFound) {
			if s.pruneOrphan(userID, it, "lazy") {
				return nil, fmt.Errorf("%w: item %d", errs.ErrNotFound, id)
			}

			// 条目在 stat 与加锁之间被移动过，pruneOrphan 已按当前路径
			// 确认过内容仍在，返回最新元数据
			return s.index.Get(userID, id)
		}

		return nil, statErr
	}

	return it, nil
}

// pruneOrphan 移除物理内容缺失的条目，返回是否真的删了.
// 调用方的 stat 在锁外执行，拿到锁之后条目可能已被并发的重命名/移动
// 挪到新路径，因此必须重新读取当前元数据并按当前路径再 stat 一次，
// 确认仍是孤儿才删；条目已不在索引里同样按"已清理"处理.
func (s *VaultService) pruneOrphan(userID int64, it *model.Item, reason string) bool {
	mu := lockUser(userID)
	defer mu.Unlock()

	cur, err := s.index.Get(userID, it.ID)
	if err != nil {
		return true // 已被并发删除，无事可做
	}

	if cur.IsDirectory {
		return false
	}

	if _, statErr := s.fs.Stat(userID, relPath(cur.Path)); !errors.Is(statErr, errs.ErrNotFound) {
		// 当前路径下内容仍在（或只是暂时读不到），不是孤儿
		return false
	}

	if _, err := s.index.Remove(userID, cur.ID); err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			log.Logger().Warn().Err(err).Int64("id", cur.ID).Msg("orphan prune failed")
		}

		return true
	}

	log.Logger().Info().Int64("id", cur.ID).Str("path", cur.Path).Str("reason", reason).
		Msg("pruned orphaned item")

	metrics.PrunedItems.Inc()
	s.publishPruned(cur, reason)

	return true
}

// ListChildren 列出目录的直接子条目，parentID 为空表示根层.
func (s *VaultService) ListChildren(ctx context.Context, userID int64, parentID *int64) (*types.ListItemsResponse, error) {
	if parentID != nil {
		parent, err := s.index.Get(userID, *parentID)
		if err != nil {
			return nil, err
		}

		if !parent.IsDirectory {
			return nil, fmt.Errorf("%w: item %d is not a directory", errs.ErrInvalidOperation, *parentID)
		}
	}

	items := s.index.ListChildren(userID, parentID)

	return &types.ListItemsResponse{Items: types.NewItemResponses(items), Total: len(items)}, nil
}

// ListByType 按类型列出条目.
func (s *VaultService) ListByType(ctx context.Context, userID int64, t string) (*types.ListItemsResponse, error) {
	itemType := model.ItemType(t)
	if !model.ValidType(itemType) {
		return nil, fmt.Errorf("%w: unknown type %q", errs.ErrInvalidOperation, t)
	}

	items := s.index.ListByType(userID, itemType)

	return &types.ListItemsResponse{Items: types.NewItemResponses(items), Total: len(items)}, nil
}

// ListFavorites 列出收藏条目.
func (s *VaultService) ListFavorites(ctx context.Context, userID int64) (*types.ListItemsResponse, error) {
	items := s.index.ListFavorites(userID)

	return &types.ListItemsResponse{Items: types.NewItemResponses(items), Total: len(items)}, nil
}

// ListRecent 按更新时间倒序列出最近文件.
func (s *VaultService) ListRecent(ctx context.Context, userID int64, limit int) (*types.ListItemsResponse, error) {
	items := s.index.ListRecent(userID, limit)

	return &types.ListItemsResponse{Items: types.NewItemResponses(items), Total: len(items)}, nil
}

// Search 按名称搜索.
func (s *VaultService) Search(ctx context.Context, userID int64, query string) (*types.ListItemsResponse, error) {
	items := s.index.Search(userID, query)

	return &types.ListItemsResponse{Items: types.NewItemResponses(items), Total: len(items)}, nil
}
