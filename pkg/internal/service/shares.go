package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	"github.com/huloud/huloud/pkg/internal/types"
)

// shareURL 分享链接的路径模板，完整 URL 由前端/网关拼接主机名.
func shareURL(token string) string {
	return "/api/v1/shares/" + token
}

// CreateShare 为条目创建分享链接. 目录不可分享；同一条目重复分享
// 返回既有 token（幂等）.
func (s *VaultService) CreateShare(ctx context.Context, userID, itemID int64) (*types.ShareResponse, error) {
	mu := lockUser(userID)
	defer mu.Unlock()

	it, err := s.index.Get(userID, itemID)
	if err != nil {
		return nil, err
	}

	if it.IsDirectory {
		return nil, fmt.Errorf("%w: directories cannot be shared", errs.ErrInvalidOperation)
	}

	if existing, err := s.index.ShareForItem(userID, itemID); err == nil {
		return &types.ShareResponse{
			Token:     existing.Token,
			ItemID:    existing.ItemID,
			URL:       shareURL(existing.Token),
			CreatedAt: existing.CreatedAt,
		}, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	sh := &model.Share{
		Token:  uuid.NewString(),
		ItemID: itemID,
		UserID: userID,
	}

	if err := s.index.PutShare(sh); err != nil {
		return nil, err
	}

	public := true
	if _, err := s.index.Update(index.UpdateCommand{UserID: userID, ID: itemID, Public: &public}); err != nil {
		return nil, err
	}

	stored, err := s.index.GetShare(sh.Token)
	if err != nil {
		return nil, err
	}

	return &types.ShareResponse{
		Token:     stored.Token,
		ItemID:    stored.ItemID,
		URL:       shareURL(stored.Token),
		CreatedAt: stored.CreatedAt,
	}, nil
}

// GetShare 查询分享详情（属主视角）.
func (s *VaultService) GetShare(ctx context.Context, userID, itemID int64) (*types.ShareResponse, error) {
	sh, err := s.index.ShareForItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	return &types.ShareResponse{
		Token:     sh.Token,
		ItemID:    sh.ItemID,
		URL:       shareURL(sh.Token),
		CreatedAt: sh.CreatedAt,
	}, nil
}

// ResolveShare 按 token 解析分享条目的元数据，不要求登录.
// 物理内容缺失时走惰性清理，访问方拿到 NotFound.
func (s *VaultService) ResolveShare(ctx context.Context, token string) (*types.ItemResponse, error) {
	sh, err := s.index.GetShare(token)
	if err != nil {
		return nil, err
	}

	it, err := s.getVerified(ctx, sh.UserID, sh.ItemID)
	if err != nil {
		return nil, err
	}

	resp := types.NewItemResponse(it)

	return &resp, nil
}

// RevokeShareForItem 按条目 ID 撤销分享（属主视角的入口）.
func (s *VaultService) RevokeShareForItem(ctx context.Context, userID, itemID int64) error {
	sh, err := s.index.ShareForItem(userID, itemID)
	if err != nil {
		return err
	}

	return s.DeleteShare(ctx, userID, sh.Token)
}

// DeleteShare 撤销分享链接并清除条目的公开标记.
func (s *VaultService) DeleteShare(ctx context.Context, userID int64, token string) error {
	mu := lockUser(userID)
	defer mu.Unlock()

	sh, err := s.index.GetShare(token)
	if err != nil {
		return err
	}

	if sh.UserID != userID {
		return fmt.Errorf("%w: share %s", errs.ErrForbidden, token)
	}

	if err := s.index.DeleteShare(userID, token); err != nil {
		return err
	}

	public := false
	if _, err := s.index.Update(index.UpdateCommand{UserID: userID, ID: sh.ItemID, Public: &public}); err != nil {
		// 条目可能已被删除，分享撤销本身已成功
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}
	}

	return nil
}
