package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/log"
)

// UploadFile 上传文件：先流式写入物理存储，成功后提交元数据.
// size 记录实际写入的字节数，类型按声明的内容类型/扩展名分类.
func (s *VaultService) UploadFile(ctx context.Context, userID int64, parentID *int64, name, contentType string, r io.Reader) (_ *types.ItemResponse, err error) {
	defer countOp("upload", &err)

	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	mu := lockUser(userID)
	defer mu.Unlock()

	parentPath, err := s.parentPathOf(userID, parentID)
	if err != nil {
		return nil, err
	}

	if s.siblingTaken(userID, parentID, name, 0) {
		return nil, fmt.Errorf("%w: %q already exists in parent", errs.ErrConflict, name)
	}

	logicalPath := parentPath + "/" + name
	rel := relPath(logicalPath)

	// 物理优先
	written, err := s.fs.Write(userID, rel, r)
	if err != nil {
		// 写了一半的文件不保留
		if delErr := s.fs.Delete(userID, rel); delErr != nil && !errors.Is(delErr, errs.ErrNotFound) {
			log.Logger().Warn().Err(delErr).Str("path", rel).Msg("cleanup of partial upload failed")
		}

		return nil, err
	}

	// 配额检查在写入后进行：此时才知道真实大小
	if err := s.checkQuota(userID, written); err != nil {
		if delErr := s.fs.Delete(userID, rel); delErr != nil && !errors.Is(delErr, errs.ErrNotFound) {
			log.Logger().Warn().Err(delErr).Str("path", rel).Msg("cleanup of over-quota upload failed")
		}

		return nil, err
	}

	stored, err := s.index.Insert(&model.Item{
		Name:     name,
		Type:     model.Classify(contentType, name),
		Size:     written,
		ParentID: parentID,
		UserID:   userID,
	})
	if err != nil {
		// 元数据提交失败：回收刚写入的物理文件，避免积累无主内容
		if delErr := s.fs.Delete(userID, rel); delErr != nil && !errors.Is(delErr, errs.ErrNotFound) {
			log.Logger().Warn().Err(delErr).Str("path", rel).Msg("cleanup after metadata failure failed")
		}

		return nil, err
	}

	s.publishCreated(stored, "upload")

	resp := types.NewItemResponse(stored)

	return &resp, nil
}

// checkQuota 校验新写入 written 字节后是否超出配额. 写入本身已计入
// usedBytes，因此直接用索引求和（不含本次）加 written 比较.
func (s *VaultService) checkQuota(userID, written int64) error {
	total := s.cfg.Quota.TotalBytesFor(userID)
	if total <= 0 {
		return nil // 0 配额表示不限制
	}

	var used int64

	for _, it := range s.index.AllForUser(userID) {
		if !it.IsDirectory {
			used += it.Size
		}
	}

	if used+written > total {
		return fmt.Errorf("%w: quota exceeded (%d + %d > %d)", errs.ErrInvalidOperation, used, written, total)
	}

	return nil
}
