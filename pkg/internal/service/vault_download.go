package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
)

// DownloadResult 下载所需的全部信息，Content 由调用方负责 Close.
type DownloadResult struct {
	Item        *model.Item
	Content     io.ReadCloser
	ContentType string
	ETag        string
}

// ETagFor 计算条目的弱校验 ETag，基于 id、大小与更新时间的哈希.
// 内容不变则三者不变，足以支撑 If-None-Match 协商缓存.
func ETagFor(it *model.Item) string {
	h := xxhash.New()
	_, _ = h.WriteString(strconv.FormatInt(it.ID, 10))
	_, _ = h.WriteString(":")
	_, _ = h.WriteString(strconv.FormatInt(it.Size, 10))
	_, _ = h.WriteString(":")
	_, _ = h.WriteString(strconv.FormatInt(it.UpdatedAt.UnixNano(), 10))

	return fmt.Sprintf("W/\"%x\"", h.Sum64())
}

// Download 打开文件内容用于下载/预览. 目录不可下载；
// 物理内容缺失的条目走惰性清理并返回 NotFound.
func (s *VaultService) Download(ctx context.Context, userID, id int64, preview bool) (*DownloadResult, error) {
	it, err := s.getVerified(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if it.IsDirectory {
		return nil, fmt.Errorf("%w: item %d is a directory", errs.ErrInvalidOperation, id)
	}

	rc, err := s.fs.Open(userID, relPath(it.Path))
	if err != nil {
		return nil, err
	}

	s.publishAccessed(it, preview, "")

	return &DownloadResult{
		Item:        it,
		Content:     rc,
		ContentType: model.ContentTypeFor(it.Name),
		ETag:        ETagFor(it),
	}, nil
}

// DownloadShared 经分享 token 打开文件内容，不要求登录.
// token 即授权凭证，归属校验换成分享记录里的属主.
func (s *VaultService) DownloadShared(ctx context.Context, token string, preview bool) (*DownloadResult, error) {
	sh, err := s.index.GetShare(token)
	if err != nil {
		return nil, err
	}

	it, err := s.getVerified(ctx, sh.UserID, sh.ItemID)
	if err != nil {
		return nil, err
	}

	if it.IsDirectory {
		return nil, fmt.Errorf("%w: shared item %d is a directory", errs.ErrInvalidOperation, it.ID)
	}

	rc, err := s.fs.Open(sh.UserID, relPath(it.Path))
	if err != nil {
		return nil, err
	}

	s.publishAccessed(it, preview, token)

	return &DownloadResult{
		Item:        it,
		Content:     rc,
		ContentType: model.ContentTypeFor(it.Name),
		ETag:        ETagFor(it),
	}, nil
}
