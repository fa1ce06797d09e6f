// Package fsstore 实现物理字节存储：按 (userID, 相对路径) 映射到存储根目录下的
// 真实文件系统，每个用户拥有独立子树 users/<id>/，互不干扰.
//
// fsstore 只关心字节与路径，对元数据 ID 一无所知；目录创建、读写删除、
// 递归删除与用量统计都在这一层完成. 文件系统通过 afero 抽象注入，
// 测试使用内存文件系统.
package fsstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/internal/storage/errs"
	nlog "github.com/huloud/huloud/pkg/log"
)

const usersDir = "users"

// Store 是基于文件系统的物理存储.
type Store struct {
	fs   afero.Fs
	root string
}

// New 创建使用操作系统文件系统的 Store.
func New(root string) *Store {
	return NewWithFs(afero.NewOsFs(), root)
}

// NewWithFs 创建使用指定文件系统的 Store，测试时传入 afero.NewMemMapFs().
func NewWithFs(afs afero.Fs, root string) *Store {
	return &Store{fs: afs, root: root}
}

// Info 物理条目的状态.
type Info struct {
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// userRoot 用户子树的根目录.
func (s *Store) userRoot(userID int64) string {
	return filepath.Join(s.root, usersDir, strconv.FormatInt(userID, 10))
}

// resolve 规范化相对路径并映射到真实文件系统路径.
// 去掉前导分隔符、折叠 "."/".."，拒绝逃逸出用户根目录的路径.
func (s *Store) resolve(userID int64, rel string) (string, error) {
	// 不能先加根再 Clean：加根会把前导 ".." 折叠进根目录，逃逸就检不出来了
	slashed := strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")

	cleaned := path.Clean(slashed)
	// Clean 之后仍以 ".." 开头说明试图穿越用户根
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes user root", errs.ErrInvalidPath, rel)
	}

	if cleaned == "." {
		return s.userRoot(userID), nil
	}

	return filepath.Join(s.userRoot(userID), filepath.FromSlash(cleaned)), nil
}

// EnsureUserRoot 幂等地创建用户子树.
func (s *Store) EnsureUserRoot(userID int64) error {
	if err := s.fs.MkdirAll(s.userRoot(userID), 0o755); err != nil {
		return fmt.Errorf("%w: ensure user root: %v", errs.ErrIO, err)
	}

	return nil
}

// Write 写入文件内容（覆盖语义），自动创建缺失的中间目录.
func (s *Store) Write(userID int64, rel string, r io.Reader) (int64, error) {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return 0, err
	}

	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("%w: mkdir for %s: %v", errs.ErrIO, rel, err)
	}

	f, err := s.fs.Create(target)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %v", errs.ErrIO, rel, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return n, fmt.Errorf("%w: write %s: %v", errs.ErrIO, rel, err)
	}

	return n, nil
}

// Read 读取完整文件内容.
func (s *Store) Read(userID int64, rel string) ([]byte, error) {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(target)
	if err != nil {
		return nil, notFoundOrIO(err, rel)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", errs.ErrInvalidOperation, rel)
	}

	data, err := afero.ReadFile(s.fs, target)
	if err != nil {
		return nil, notFoundOrIO(err, rel)
	}

	return data, nil
}

// Open 打开文件用于流式读取，调用方负责 Close.
func (s *Store) Open(userID int64, rel string) (io.ReadCloser, error) {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(target)
	if err != nil {
		return nil, notFoundOrIO(err, rel)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", errs.ErrInvalidOperation, rel)
	}

	f, err := s.fs.Open(target)
	if err != nil {
		return nil, notFoundOrIO(err, rel)
	}

	return f, nil
}

// Delete 删除单个文件.
func (s *Store) Delete(userID int64, rel string) error {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return err
	}

	if _, err := s.fs.Stat(target); err != nil {
		return notFoundOrIO(err, rel)
	}

	if err := s.fs.Remove(target); err != nil {
		return notFoundOrIO(err, rel)
	}

	return nil
}

// DeleteRecursive 删除目录及其全部内容. 尽力而为：个别条目并发消失不算失败，
// 其余单条错误不会中断整体删除，但最终以聚合错误上报.
func (s *Store) DeleteRecursive(userID int64, rel string) error {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return err
	}

	if _, err := s.fs.Stat(target); err != nil {
		return notFoundOrIO(err, rel)
	}

	var failures []error

	s.removeTree(target, &failures)

	if len(failures) > 0 {
		return fmt.Errorf("%w: delete recursive %s: %v", errs.ErrIO, rel, errors.Join(failures...))
	}

	return nil
}

// removeTree 后序遍历删除，单条失败记录后继续.
func (s *Store) removeTree(target string, failures *[]error) {
	info, err := s.fs.Stat(target)
	if err != nil {
		if isNotExist(err) {
			return // 并发消失，不算失败
		}

		*failures = append(*failures, err)

		return
	}

	if info.IsDir() {
		entries, err := afero.ReadDir(s.fs, target)
		if err != nil {
			if !isNotExist(err) {
				*failures = append(*failures, err)
			}

			return
		}

		for _, entry := range entries {
			s.removeTree(filepath.Join(target, entry.Name()), failures)
		}
	}

	if err := s.fs.Remove(target); err != nil && !isNotExist(err) {
		*failures = append(*failures, err)
	}
}

// CreateDirectory 递归创建目录，幂等.
func (s *Store) CreateDirectory(userID int64, rel string) error {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", errs.ErrIO, rel, err)
	}

	return nil
}

// Rename 在用户子树内原地移动文件或目录，移动/重命名协议的物理步骤.
func (s *Store) Rename(userID int64, oldRel, newRel string) error {
	oldTarget, err := s.resolve(userID, oldRel)
	if err != nil {
		return err
	}

	newTarget, err := s.resolve(userID, newRel)
	if err != nil {
		return err
	}

	if _, err := s.fs.Stat(oldTarget); err != nil {
		return notFoundOrIO(err, oldRel)
	}

	if err := s.fs.MkdirAll(filepath.Dir(newTarget), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for %s: %v", errs.ErrIO, newRel, err)
	}

	if err := s.fs.Rename(oldTarget, newTarget); err != nil {
		return fmt.Errorf("%w: rename %s -> %s: %v", errs.ErrIO, oldRel, newRel, err)
	}

	return nil
}

// Stat 返回物理条目的状态.
func (s *Store) Stat(userID int64, rel string) (Info, error) {
	target, err := s.resolve(userID, rel)
	if err != nil {
		return Info{}, err
	}

	info, err := s.fs.Stat(target)
	if err != nil {
		return Info{}, notFoundOrIO(err, rel)
	}

	return Info{
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// UsedBytes 遍历用户子树累加文件大小. 无法读取的条目跳过并记录日志，
// 不中断整体统计.
func (s *Store) UsedBytes(userID int64) (int64, error) {
	root := s.userRoot(userID)

	if _, err := s.fs.Stat(root); err != nil {
		if isNotExist(err) {
			return 0, nil // 尚未写入任何内容
		}

		return 0, fmt.Errorf("%w: stat user root: %v", errs.ErrIO, err)
	}

	var used int64

	err := afero.Walk(s.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			nlog.Logger().Warn().Err(err).Str("path", p).Msg("skipping unreadable entry in usage walk")

			return nil
		}

		if !info.IsDir() {
			used += info.Size()
		}

		return nil
	})
	if err != nil {
		return used, fmt.Errorf("%w: walk user tree: %v", errs.ErrIO, err)
	}

	return used, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

func notFoundOrIO(err error, rel string) error {
	if isNotExist(err) {
		return fmt.Errorf("%w: %s", errs.ErrNotFound, rel)
	}

	return fmt.Errorf("%w: %s: %v", errs.ErrIO, rel, err)
}
