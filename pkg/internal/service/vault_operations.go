package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/log"
)

// Rename 重命名条目：物理 rename 成功后才提交元数据，元数据失败时回滚物理.
func (s *VaultService) Rename(ctx context.Context, userID, id int64, req *types.RenameItemRequest) (_ *types.ItemResponse, err error) {
	defer countOp("rename", &err)

	newName := strings.TrimSpace(req.NewName)
	if err := validateName(newName); err != nil {
		return nil, err
	}

	mu := lockUser(userID)
	defer mu.Unlock()

	cur, err := s.index.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if cur.Name == newName {
		resp := types.NewItemResponse(cur)

		return &resp, nil
	}

	if s.siblingTaken(userID, cur.ParentID, newName, id) {
		return nil, fmt.Errorf("%w: %q already exists in parent", errs.ErrConflict, newName)
	}

	oldPath := cur.Path
	parentPath := strings.TrimSuffix(oldPath, "/"+cur.Name)
	newPath := parentPath + "/" + newName

	// 物理先行
	if err := s.fs.Rename(userID, relPath(oldPath), relPath(newPath)); err != nil {
		return nil, err
	}

	updated, err := s.index.Update(index.UpdateCommand{UserID: userID, ID: id, Name: &newName})
	if err != nil {
		// 元数据失败：把物理改回去，保持两边一致
		if rbErr := s.fs.Rename(userID, relPath(newPath), relPath(oldPath)); rbErr != nil {
			log.Logger().Error().Err(rbErr).Str("path", newPath).Msg("rollback of physical rename failed")
		}

		return nil, err
	}

	s.publishMoved(updated, oldPath)

	resp := types.NewItemResponse(updated)

	return &resp, nil
}

// Move 移动条目到新父目录. 目标不能是自身或自身的后代（环检测），
// 物理 rename 成功后才提交元数据.
func (s *VaultService) Move(ctx context.Context, userID, id int64, req *types.MoveItemRequest) (_ *types.ItemResponse, err error) {
	defer countOp("move", &err)

	mu := lockUser(userID)
	defer mu.Unlock()

	cur, err := s.index.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if req.NewParentID != nil {
		if *req.NewParentID == id {
			return nil, fmt.Errorf("%w: cannot move item into itself", errs.ErrInvalidOperation)
		}

		// 沿目标父目录的祖先链上溯，出现自身即构成环
		isDesc, err := s.index.IsAncestor(userID, id, *req.NewParentID)
		if err != nil {
			return nil, err
		}

		if isDesc {
			return nil, fmt.Errorf("%w: cannot move item into its own descendant", errs.ErrInvalidOperation)
		}
	}

	newParentPath, err := s.parentPathOf(userID, req.NewParentID)
	if err != nil {
		return nil, err
	}

	if sameParentID(cur.ParentID, req.NewParentID) {
		resp := types.NewItemResponse(cur)

		return &resp, nil
	}

	if s.siblingTaken(userID, req.NewParentID, cur.Name, id) {
		return nil, fmt.Errorf("%w: %q already exists in target parent", errs.ErrConflict, cur.Name)
	}

	oldPath := cur.Path
	newPath := newParentPath + "/" + cur.Name

	if err := s.fs.Rename(userID, relPath(oldPath), relPath(newPath)); err != nil {
		return nil, err
	}

	updated, err := s.index.Update(index.UpdateCommand{UserID: userID, ID: id, NewParentID: &req.NewParentID})
	if err != nil {
		if rbErr := s.fs.Rename(userID, relPath(newPath), relPath(oldPath)); rbErr != nil {
			log.Logger().Error().Err(rbErr).Str("path", newPath).Msg("rollback of physical move failed")
		}

		return nil, err
	}

	s.publishMoved(updated, oldPath)

	resp := types.NewItemResponse(updated)

	return &resp, nil
}

// ToggleFavorite 翻转收藏标记，纯元数据操作.
func (s *VaultService) ToggleFavorite(ctx context.Context, userID, id int64) (_ *types.ItemResponse, err error) {
	defer countOp("favorite", &err)

	mu := lockUser(userID)
	defer mu.Unlock()

	cur, err := s.index.Get(userID, id)
	if err != nil {
		return nil, err
	}

	fav := !cur.IsFavorite

	updated, err := s.index.Update(index.UpdateCommand{UserID: userID, ID: id, Favorite: &fav})
	if err != nil {
		return nil, err
	}

	s.publishFavorited(updated)

	resp := types.NewItemResponse(updated)

	return &resp, nil
}

// Delete 删除条目. 目录默认拒绝非空删除，recursive 为真时级联删除全部后代.
// 物理删除先行：NotFound 视为已删除，其他物理错误记日志但不阻止元数据清理，
// 宁可留下无主字节也不给用户展示打不开的条目.
func (s *VaultService) Delete(ctx context.Context, userID, id int64, recursive bool) (_ *types.DeleteItemResponse, err error) {
	defer countOp("delete", &err)

	mu := lockUser(userID)
	defer mu.Unlock()

	cur, err := s.index.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if cur.IsDirectory {
		children := s.index.ListChildren(userID, &cur.ID)
		if len(children) > 0 && !recursive {
			return nil, fmt.Errorf("%w: directory %d is not empty", errs.ErrInvalidOperation, id)
		}
	}

	rel := relPath(cur.Path)

	var physErr error
	if cur.IsDirectory {
		physErr = s.fs.DeleteRecursive(userID, rel)
	} else {
		physErr = s.fs.Delete(userID, rel)
	}

	if physErr != nil && !errors.Is(physErr, errs.ErrNotFound) {
		log.Logger().Warn().Err(physErr).Str("path", cur.Path).
			Msg("physical delete failed, removing metadata anyway")
	}

	removed, err := s.index.Remove(userID, id)
	if err != nil {
		return nil, err
	}

	s.publishDeleted(cur, len(removed)-1)

	return &types.DeleteItemResponse{ID: id, Cascaded: len(removed) - 1}, nil
}

func sameParentID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
