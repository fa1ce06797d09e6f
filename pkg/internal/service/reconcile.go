package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/metrics"
)

// reconcileConcurrency 同时扫描的用户数上限.
const reconcileConcurrency = 4

// Reconcile 全量孤儿清理：遍历每个用户的全部文件条目，物理内容缺失的
// 从索引中移除. 按访问触发的惰性清理只能覆盖被访问到的条目，
// 这里的后台扫描补齐剩余部分. 返回清理的条目数.
func (s *VaultService) Reconcile(ctx context.Context) (int, error) {
	users := s.index.UserIDs()

	pruned := make([]int, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)

	for i, userID := range users {
		i, userID := i, userID

		g.Go(func() error {
			n, err := s.reconcileUser(gctx, userID)
			pruned[i] = n

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range pruned {
		total += n
	}

	if total > 0 {
		log.Logger().Info().Int("pruned", total).Msg("reconcile sweep finished")
	}

	return total, nil
}

// reconcileUser 扫描单个用户的条目，持用户锁以免和在线变更交错.
func (s *VaultService) reconcileUser(ctx context.Context, userID int64) (int, error) {
	mu := lockUser(userID)
	defer mu.Unlock()

	pruned := 0

	for _, it := range s.index.AllForUser(userID) {
		select {
		case <-ctx.Done():
			return pruned, ctx.Err()
		default:
		}

		if it.IsDirectory {
			continue
		}

		_, statErr := s.fs.Stat(userID, relPath(it.Path))
		if statErr == nil {
			continue
		}

		if !errors.Is(statErr, errs.ErrNotFound) {
			log.Logger().Warn().Err(statErr).Int64("id", it.ID).Msg("stat failed during sweep, skipping")

			continue
		}

		// 级联删除可能已顺带移除了这个条目
		if _, err := s.index.Remove(userID, it.ID); err != nil {
			if !errors.Is(err, errs.ErrNotFound) {
				log.Logger().Warn().Err(err).Int64("id", it.ID).Msg("sweep prune failed")
			}

			continue
		}

		log.Logger().Info().Int64("id", it.ID).Str("path", it.Path).Msg("pruned orphaned item during sweep")

		metrics.PrunedItems.Inc()
		s.publishPruned(it, "sweep")
		pruned++
	}

	return pruned, nil
}
