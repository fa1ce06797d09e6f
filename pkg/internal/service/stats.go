package service

import (
	"context"

	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/log"
)

const percentFactor = 100

// StatsFor 计算用户的用量统计.
// used 优先按索引求和（便宜）；用户在索引中没有任何条目时回退到
// 物理存储遍历，覆盖索引与磁盘短暂不一致的窗口.
// 配额为 0 时百分比恒为 0，避免除零.
func (s *VaultService) StatsFor(ctx context.Context, userID int64) (*types.StorageStatsResponse, error) {
	items := s.index.AllForUser(userID)

	var (
		used        int64
		fileCount   int
		folderCount int
	)

	byType := make(map[string]types.TypeStat)

	for _, it := range items {
		if it.IsDirectory {
			folderCount++

			continue
		}

		fileCount++
		used += it.Size

		st := byType[string(it.Type)]
		st.Count++
		st.Bytes += it.Size
		byType[string(it.Type)] = st
	}

	if len(items) == 0 {
		walked, err := s.fs.UsedBytes(userID)
		if err != nil {
			log.Logger().Warn().Err(err).Int64("user", userID).Msg("usage walk failed, reporting zero")
		} else {
			used = walked
		}
	}

	total := s.cfg.Quota.TotalBytesFor(userID)

	var percent float64
	if total > 0 {
		percent = float64(used) / float64(total) * percentFactor
	}

	available := total - used
	if available < 0 {
		available = 0
	}

	return &types.StorageStatsResponse{
		UsedBytes:      used,
		TotalBytes:     total,
		AvailableBytes: available,
		UsedPercent:    percent,
		FileCount:      fileCount,
		FolderCount:    folderCount,
		ByType:         byType,
	}, nil
}
