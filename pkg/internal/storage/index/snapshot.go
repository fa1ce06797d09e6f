package index

import (
	"fmt"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
)

// snapshotState 快照文件的序列化形态：全部条目、分享记录与下一个待分配 ID.
type snapshotState struct {
	NextID int64          `json:"next_id"`
	Items  []*model.Item  `json:"items"`
	Shares []*model.Share `json:"shares"`
}

// snapshotter 负责快照的原子落盘与恢复.
// 写入走 临时文件 + rename，避免进程中途退出留下半个快照.
type snapshotter struct {
	fs   afero.Fs
	path string
}

func newSnapshotter(afs afero.Fs, path string) *snapshotter {
	return &snapshotter{fs: afs, path: path}
}

// save 序列化并原子替换快照文件.
func (s *snapshotter) save(state *snapshotState) error {
	data, err := sonic.ConfigDefault.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", errs.ErrIO, err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir snapshot dir: %v", errs.ErrIO, err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", errs.ErrIO, err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: replace snapshot: %v", errs.ErrIO, err)
	}

	return nil
}

// load 读取快照. 文件不存在返回 (nil, nil)，表示冷启动.
func (s *snapshotter) load() (*snapshotState, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat snapshot: %v", errs.ErrIO, err)
	}

	if !exists {
		return nil, nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %v", errs.ErrIO, err)
	}

	var state snapshotState
	if err := sonic.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", errs.ErrIO, err)
	}

	return &state, nil
}
