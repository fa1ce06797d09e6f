package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/types"
)

// CreateFolder 新建目录：先物理创建（幂等），再提交元数据.
// 元数据提交失败时物理目录原样保留，重试会收敛.
func (s *VaultService) CreateFolder(ctx context.Context, userID int64, req *types.CreateFolderRequest) (_ *types.ItemResponse, err error) {
	defer countOp("mkdir", &err)

	name := strings.TrimSpace(req.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	mu := lockUser(userID)
	defer mu.Unlock()

	parentPath, err := s.parentPathOf(userID, req.ParentID)
	if err != nil {
		return nil, err
	}

	if s.siblingTaken(userID, req.ParentID, name, 0) {
		return nil, fmt.Errorf("%w: %q already exists in parent", errs.ErrConflict, name)
	}

	logicalPath := parentPath + "/" + name

	// 物理优先
	if err := s.fs.CreateDirectory(userID, relPath(logicalPath)); err != nil {
		return nil, err
	}

	stored, err := s.index.Insert(&model.Item{
		Name:        name,
		Type:        model.TypeFolder,
		ParentID:    req.ParentID,
		UserID:      userID,
		IsDirectory: true,
	})
	if err != nil {
		// 空目录留在磁盘上无害，重试创建会幂等收敛
		return nil, err
	}

	s.publishCreated(stored, "mkdir")

	resp := types.NewItemResponse(stored)

	return &resp, nil
}
