// Package index 维护全部条目元数据的内存索引，并在每次变更后同步落盘快照.
//
// 索引是唯一的元数据权威：树形结构通过 ParentID 表达，Path 作为冗余字段
// 随重命名/移动重算. 所有写操作持锁执行且在返回前完成快照持久化，
// 保证确认过的变更重启后仍然可见.
package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/internal/model"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
)

// Index 条目元数据索引.
type Index struct {
	mu     sync.RWMutex
	items  map[int64]*model.Item
	shares map[string]*model.Share // token -> share
	nextID int64

	snap *snapshotter
}

// New 创建空索引，快照写入指定文件系统上的 snapshotPath.
func New(afs afero.Fs, snapshotPath string) *Index {
	return &Index{
		items:  make(map[int64]*model.Item),
		shares: make(map[string]*model.Share),
		nextID: 1,
		snap:   newSnapshotter(afs, snapshotPath),
	}
}

// Load 从快照恢复索引状态. 快照不存在视为冷启动，空索引照常工作.
func (ix *Index) Load() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	state, err := ix.snap.load()
	if err != nil {
		return err
	}

	if state == nil {
		return nil
	}

	ix.items = make(map[int64]*model.Item, len(state.Items))
	for _, it := range state.Items {
		ix.items[it.ID] = it
	}

	ix.shares = make(map[string]*model.Share, len(state.Shares))
	for _, sh := range state.Shares {
		ix.shares[sh.Token] = sh
	}

	ix.nextID = state.NextID
	if ix.nextID < 1 {
		ix.nextID = 1
	}

	// 防御损坏的快照：nextID 必须大于任何已分配 ID
	for id := range ix.items {
		if id >= ix.nextID {
			ix.nextID = id + 1
		}
	}

	return nil
}

// save 持锁调用，把当前状态同步写入快照.
func (ix *Index) save() error {
	state := &snapshotState{
		NextID: ix.nextID,
		Items:  make([]*model.Item, 0, len(ix.items)),
		Shares: make([]*model.Share, 0, len(ix.shares)),
	}

	for _, it := range ix.items {
		state.Items = append(state.Items, it)
	}

	for _, sh := range ix.shares {
		state.Shares = append(state.Shares, sh)
	}

	return ix.snap.save(state)
}

// AllocateID 返回下一个单调递增 ID. 仅在持锁期间调用.
func (ix *Index) allocateID() int64 {
	id := ix.nextID
	ix.nextID++

	return id
}

// Insert 插入新条目并持久化. ID 为零时自动分配；同级重名返回 ErrConflict.
// 返回插入后的条目拷贝.
func (ix *Index) Insert(it *model.Item) (*model.Item, error) {
	if strings.TrimSpace(it.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", errs.ErrInvalidOperation)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	parentPath := ""

	if it.ParentID != nil {
		parent, ok := ix.items[*it.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: parent %d", errs.ErrNotFound, *it.ParentID)
		}

		if parent.UserID != it.UserID {
			return nil, fmt.Errorf("%w: parent %d", errs.ErrForbidden, *it.ParentID)
		}

		if !parent.IsDirectory {
			return nil, fmt.Errorf("%w: parent %d is not a directory", errs.ErrInvalidOperation, *it.ParentID)
		}

		parentPath = parent.Path
	}

	if ix.siblingExists(it.UserID, it.ParentID, it.Name, 0) {
		return nil, fmt.Errorf("%w: %q already exists in parent", errs.ErrConflict, it.Name)
	}

	stored := it.Clone()
	if stored.ID == 0 {
		stored.ID = ix.allocateID()
	} else if stored.ID >= ix.nextID {
		ix.nextID = stored.ID + 1
	}

	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	stored.UpdatedAt = now
	stored.Path = parentPath + "/" + stored.Name

	ix.items[stored.ID] = stored

	if err := ix.save(); err != nil {
		delete(ix.items, stored.ID)

		return nil, err
	}

	return stored.Clone(), nil
}

// Get 按 ID 查找条目并校验归属.
func (ix *Index) Get(userID, id int64) (*model.Item, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return ix.getLocked(userID, id)
}

func (ix *Index) getLocked(userID, id int64) (*model.Item, error) {
	it, ok := ix.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %d", errs.ErrNotFound, id)
	}

	if it.UserID != userID {
		return nil, fmt.Errorf("%w: item %d", errs.ErrForbidden, id)
	}

	return it.Clone(), nil
}

// ListChildren 列出某父目录的直接子条目，parentID 为 nil 表示根层.
// 目录在前，同类按名称（忽略大小写）排序.
func (ix *Index) ListChildren(userID int64, parentID *int64) []*model.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*model.Item

	for _, it := range ix.items {
		if it.UserID != userID {
			continue
		}

		if sameParent(it.ParentID, parentID) {
			out = append(out, it.Clone())
		}
	}

	sortFolderFirst(out)

	return out
}

// ListByType 列出用户指定类型的全部条目.
func (ix *Index) ListByType(userID int64, t model.ItemType) []*model.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*model.Item

	for _, it := range ix.items {
		if it.UserID == userID && it.Type == t {
			out = append(out, it.Clone())
		}
	}

	sortFolderFirst(out)

	return out
}

// ListFavorites 列出用户收藏的条目.
func (ix *Index) ListFavorites(userID int64) []*model.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*model.Item

	for _, it := range ix.items {
		if it.UserID == userID && it.IsFavorite {
			out = append(out, it.Clone())
		}
	}

	sortFolderFirst(out)

	return out
}

// ListRecent 按更新时间倒序列出用户最近的文件（不含目录），limit <= 0 表示不限.
func (ix *Index) ListRecent(userID int64, limit int) []*model.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*model.Item

	for _, it := range ix.items {
		if it.UserID == userID && !it.IsDirectory {
			out = append(out, it.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}

		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// Search 按名称做大小写不敏感的子串匹配.
func (ix *Index) Search(userID int64, query string) []*model.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*model.Item

	for _, it := range ix.items {
		if it.UserID == userID && strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it.Clone())
		}
	}

	sortFolderFirst(out)

	return out
}

// UpdateCommand 描述一次元数据更新，nil 字段表示保持不变.
// NewParentID 的双层指针区分"不改父目录"（外层 nil）与"移到根层"（内层 nil）.
type UpdateCommand struct {
	UserID int64
	ID     int64

	Name        *string
	NewParentID **int64
	Favorite    *bool
	Public      *bool
	Size        *int64
	Touch       bool // 仅刷新 UpdatedAt
}

// Update 应用元数据更新并持久化. 重命名/移动时校验目标同级重名并
// 重算自身与全部后代的 Path. 环检测是编排层的职责，索引只维护一致性.
func (ix *Index) Update(cmd UpdateCommand) (*model.Item, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cur, ok := ix.items[cmd.ID]
	if !ok {
		return nil, fmt.Errorf("%w: item %d", errs.ErrNotFound, cmd.ID)
	}

	if cur.UserID != cmd.UserID {
		return nil, fmt.Errorf("%w: item %d", errs.ErrForbidden, cmd.ID)
	}

	newName := cur.Name
	if cmd.Name != nil {
		newName = strings.TrimSpace(*cmd.Name)
		if newName == "" {
			return nil, fmt.Errorf("%w: empty name", errs.ErrInvalidOperation)
		}
	}

	newParent := cur.ParentID
	if cmd.NewParentID != nil {
		newParent = *cmd.NewParentID
	}

	parentPath := ""

	if newParent != nil {
		parent, ok := ix.items[*newParent]
		if !ok {
			return nil, fmt.Errorf("%w: parent %d", errs.ErrNotFound, *newParent)
		}

		if parent.UserID != cmd.UserID {
			return nil, fmt.Errorf("%w: parent %d", errs.ErrForbidden, *newParent)
		}

		if !parent.IsDirectory {
			return nil, fmt.Errorf("%w: parent %d is not a directory", errs.ErrInvalidOperation, *newParent)
		}

		parentPath = parent.Path
	}

	renamedOrMoved := newName != cur.Name || !sameParent(newParent, cur.ParentID)
	if renamedOrMoved && ix.siblingExists(cmd.UserID, newParent, newName, cmd.ID) {
		return nil, fmt.Errorf("%w: %q already exists in target parent", errs.ErrConflict, newName)
	}

	// 先拷贝旧状态，持久化失败时回滚
	backup := cur.Clone()

	cur.Name = newName
	cur.ParentID = newParent

	if cmd.Favorite != nil {
		cur.IsFavorite = *cmd.Favorite
	}

	if cmd.Public != nil {
		cur.IsPublic = *cmd.Public
	}

	if cmd.Size != nil {
		cur.Size = *cmd.Size
	}

	cur.UpdatedAt = time.Now().UTC()

	if renamedOrMoved {
		cur.Path = parentPath + "/" + cur.Name
		ix.recomputeDescendantPaths(cur)
	}

	if err := ix.save(); err != nil {
		ix.items[cmd.ID] = backup
		ix.recomputeDescendantPaths(backup)

		return nil, err
	}

	return cur.Clone(), nil
}

// recomputeDescendantPaths 以 root 的新 Path 为基准重算全部后代路径.
func (ix *Index) recomputeDescendantPaths(root *model.Item) {
	var walk func(parent *model.Item)
	walk = func(parent *model.Item) {
		for _, it := range ix.items {
			if it.ParentID != nil && *it.ParentID == parent.ID {
				it.Path = parent.Path + "/" + it.Name
				walk(it)
			}
		}
	}

	walk(root)
}

// Remove 删除条目及其全部后代（级联），并清理指向它们的分享记录.
// 返回被删除条目的拷贝，删除顺序为后代在前.
func (ix *Index) Remove(userID, id int64) ([]*model.Item, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	it, ok := ix.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %d", errs.ErrNotFound, id)
	}

	if it.UserID != userID {
		return nil, fmt.Errorf("%w: item %d", errs.ErrForbidden, id)
	}

	subtree := ix.descendantsLocked(id)
	subtree = append(subtree, it)

	removed := make([]*model.Item, 0, len(subtree))
	for _, victim := range subtree {
		removed = append(removed, victim.Clone())
		delete(ix.items, victim.ID)
	}

	var droppedShares []*model.Share

	for token, sh := range ix.shares {
		if _, alive := ix.items[sh.ItemID]; alive {
			continue
		}

		droppedShares = append(droppedShares, sh)

		delete(ix.shares, token)
	}

	if err := ix.save(); err != nil {
		// 持久化失败时恢复内存状态
		for _, victim := range subtree {
			ix.items[victim.ID] = victim
		}

		for _, sh := range droppedShares {
			ix.shares[sh.Token] = sh
		}

		return nil, err
	}

	return removed, nil
}

// DescendantsOf 返回条目全部后代的拷贝，深的在前.
func (ix *Index) DescendantsOf(userID, id int64) ([]*model.Item, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if _, err := ix.getLocked(userID, id); err != nil {
		return nil, err
	}

	subtree := ix.descendantsLocked(id)

	out := make([]*model.Item, 0, len(subtree))
	for _, it := range subtree {
		out = append(out, it.Clone())
	}

	return out, nil
}

// descendantsLocked 收集后代，后序排列（深的在前），持锁调用.
func (ix *Index) descendantsLocked(id int64) []*model.Item {
	var out []*model.Item

	var walk func(parentID int64)
	walk = func(parentID int64) {
		for _, it := range ix.items {
			if it.ParentID != nil && *it.ParentID == parentID {
				walk(it.ID)
				out = append(out, it)
			}
		}
	}

	walk(id)

	return out
}

// IsAncestor 判断 ancestorID 是否是 itemID 的祖先（含自身），移动环检测用.
func (ix *Index) IsAncestor(userID, ancestorID, itemID int64) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	cur, ok := ix.items[itemID]
	if !ok {
		return false, fmt.Errorf("%w: item %d", errs.ErrNotFound, itemID)
	}

	if cur.UserID != userID {
		return false, fmt.Errorf("%w: item %d", errs.ErrForbidden, itemID)
	}

	for {
		if cur.ID == ancestorID {
			return true, nil
		}

		if cur.ParentID == nil {
			return false, nil
		}

		next, ok := ix.items[*cur.ParentID]
		if !ok {
			return false, nil
		}

		cur = next
	}
}

// AllForUser 返回用户全部条目的拷贝，统计与后台清理任务用.
func (ix *Index) AllForUser(userID int64) []*model.Item {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*model.Item

	for _, it := range ix.items {
		if it.UserID == userID {
			out = append(out, it.Clone())
		}
	}

	return out
}

// UserIDs 返回持有条目的全部用户 ID.
func (ix *Index) UserIDs() []int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[int64]struct{})

	for _, it := range ix.items {
		seen[it.UserID] = struct{}{}
	}

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// PutShare 登记分享记录并持久化.
func (ix *Index) PutShare(sh *model.Share) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.items[sh.ItemID]; !ok {
		return fmt.Errorf("%w: item %d", errs.ErrNotFound, sh.ItemID)
	}

	stored := sh.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	ix.shares[stored.Token] = stored

	if err := ix.save(); err != nil {
		delete(ix.shares, stored.Token)

		return err
	}

	return nil
}

// GetShare 按 token 查找分享记录.
func (ix *Index) GetShare(token string) (*model.Share, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	sh, ok := ix.shares[token]
	if !ok {
		return nil, fmt.Errorf("%w: share %s", errs.ErrNotFound, token)
	}

	return sh.Clone(), nil
}

// ShareForItem 返回条目已有的分享记录，没有则返回 ErrNotFound.
func (ix *Index) ShareForItem(userID, itemID int64) (*model.Share, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, sh := range ix.shares {
		if sh.ItemID == itemID && sh.UserID == userID {
			return sh.Clone(), nil
		}
	}

	return nil, fmt.Errorf("%w: no share for item %d", errs.ErrNotFound, itemID)
}

// DeleteShare 删除分享记录并持久化.
func (ix *Index) DeleteShare(userID int64, token string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	sh, ok := ix.shares[token]
	if !ok {
		return fmt.Errorf("%w: share %s", errs.ErrNotFound, token)
	}

	if sh.UserID != userID {
		return fmt.Errorf("%w: share %s", errs.ErrForbidden, token)
	}

	delete(ix.shares, token)

	if err := ix.save(); err != nil {
		ix.shares[token] = sh

		return err
	}

	return nil
}

// siblingExists 判断同一用户同一父目录下是否已有同名条目（区分大小写），
// excludeID 排除自身.
func (ix *Index) siblingExists(userID int64, parentID *int64, name string, excludeID int64) bool {
	for _, it := range ix.items {
		if it.ID == excludeID || it.UserID != userID || it.Name != name {
			continue
		}

		if sameParent(it.ParentID, parentID) {
			return true
		}
	}

	return false
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// sortFolderFirst 目录在前，同类按名称（忽略大小写）排序，稳定兜底按 ID.
func sortFolderFirst(items []*model.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].IsDirectory != items[j].IsDirectory {
			return items[i].IsDirectory
		}

		ni, nj := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if ni != nj {
			return ni < nj
		}

		return items[i].ID < items[j].ID
	})
}
