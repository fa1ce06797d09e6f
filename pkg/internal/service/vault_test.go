package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/configs"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/storage/fsstore"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	"github.com/huloud/huloud/pkg/internal/types"
)

func newTestVault(t *testing.T) (*VaultService, *fsstore.Store, *index.Index) {
	t.Helper()

	afs := afero.NewMemMapFs()
	fs := fsstore.NewWithFs(afs, "storage/data")
	ix := index.New(afs, "storage/meta/items.json")

	cfg := &configs.AppConfig{
		Quota: configs.QuotaConfig{TotalBytes: configs.DefaultQuotaTotalBytes},
	}

	return NewVaultServiceWith(fs, ix, cfg), fs, ix
}

func mustCreateFolder(t *testing.T, s *VaultService, userID int64, name string, parentID *int64) *types.ItemResponse {
	t.Helper()

	resp, err := s.CreateFolder(context.Background(), userID, &types.CreateFolderRequest{Name: name, ParentID: parentID})
	if err != nil {
		t.Fatalf("CreateFolder(%q) failed: %v", name, err)
	}

	return resp
}

func mustUpload(t *testing.T, s *VaultService, userID int64, parentID *int64, name, content string) *types.ItemResponse {
	t.Helper()

	resp, err := s.UploadFile(context.Background(), userID, parentID, name, "", strings.NewReader(content))
	if err != nil {
		t.Fatalf("UploadFile(%q) failed: %v", name, err)
	}

	return resp
}

func TestCreateFolderAndUploadScenario(t *testing.T) {
	s, fs, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	if docs.Path != "/Docs" || !docs.IsDirectory {
		t.Fatalf("unexpected folder: %+v", docs)
	}

	report := mustUpload(t, s, 1, &docs.ID, "report.pdf", strings.Repeat("x", 5000))
	if report.Path != "/Docs/report.pdf" || report.Size != 5000 {
		t.Fatalf("unexpected file: %+v", report)
	}

	// 物理内容在元数据提交前已写入
	if _, err := fs.Read(1, "Docs/report.pdf"); err != nil {
		t.Fatalf("physical content missing: %v", err)
	}

	list, err := s.ListChildren(ctx, 1, &docs.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}

	if list.Total != 1 || list.Items[0].Name != "report.pdf" {
		t.Fatalf("listing wrong: %+v", list)
	}

	// 递归删除后两个条目都不可见，物理内容也被清掉
	del, err := s.Delete(ctx, 1, docs.ID, true)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if del.Cascaded != 1 {
		t.Fatalf("expected 1 cascaded, got %d", del.Cascaded)
	}

	for _, id := range []int64{docs.ID, report.ID} {
		if _, err := s.GetByID(ctx, 1, id); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("item %d still queryable: %v", id, err)
		}
	}

	if _, err := fs.Stat(1, "Docs"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("physical subtree survived: %v", err)
	}
}

func TestUploadSiblingConflict(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	mustUpload(t, s, 1, &docs.ID, "a.txt", "one")

	if _, err := s.UploadFile(ctx, 1, &docs.ID, "a.txt", "", strings.NewReader("two")); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// 不同父目录下同名成功
	mustUpload(t, s, 1, nil, "a.txt", "root copy")
}

func TestUploadRejectsBadNames(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	if _, err := s.UploadFile(ctx, 1, nil, "  ", "", strings.NewReader("x")); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for blank name, got %v", err)
	}

	if _, err := s.UploadFile(ctx, 1, nil, "a/b.txt", "", strings.NewReader("x")); !errors.Is(err, errs.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for separator in name, got %v", err)
	}
}

func TestUploadQuotaExceeded(t *testing.T) {
	afs := afero.NewMemMapFs()
	fs := fsstore.NewWithFs(afs, "storage/data")
	ix := index.New(afs, "storage/meta/items.json")
	s := NewVaultServiceWith(fs, ix, &configs.AppConfig{
		Quota: configs.QuotaConfig{TotalBytes: 10},
	})

	ctx := context.Background()

	mustUpload(t, s, 1, nil, "small.txt", "12345")

	if _, err := s.UploadFile(ctx, 1, nil, "big.txt", "", strings.NewReader("1234567890")); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected quota error, got %v", err)
	}

	// 超额写入不留物理残渣
	if _, err := fs.Stat(1, "big.txt"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("over-quota upload left bytes behind: %v", err)
	}
}

func TestRenameMovesPhysicalAndDescendantPaths(t *testing.T) {
	s, fs, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	sub := mustCreateFolder(t, s, 1, "Sub", &docs.ID)
	f := mustUpload(t, s, 1, &sub.ID, "a.txt", "payload")

	renamed, err := s.Rename(ctx, 1, docs.ID, &types.RenameItemRequest{NewName: "Papers"})
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if renamed.Path != "/Papers" {
		t.Fatalf("renamed path wrong: %q", renamed.Path)
	}

	got, err := s.GetByID(ctx, 1, f.ID)
	if err != nil {
		t.Fatalf("GetByID after rename failed: %v", err)
	}

	if got.Path != "/Papers/Sub/a.txt" {
		t.Fatalf("descendant path stale: %q", got.Path)
	}

	// 物理树随之改名
	if _, err := fs.Read(1, "Papers/Sub/a.txt"); err != nil {
		t.Fatalf("physical bytes not under new path: %v", err)
	}

	if _, err := fs.Stat(1, "Docs"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("old physical path survived: %v", err)
	}
}

func TestRenameConflict(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	mustUpload(t, s, 1, nil, "a.txt", "x")
	b := mustUpload(t, s, 1, nil, "b.txt", "y")

	if _, err := s.Rename(ctx, 1, b.ID, &types.RenameItemRequest{NewName: "a.txt"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMoveCyclePrevention(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	a := mustCreateFolder(t, s, 1, "A", nil)
	b := mustCreateFolder(t, s, 1, "B", &a.ID)
	c := mustCreateFolder(t, s, 1, "C", &b.ID)

	// 移动到自身后代构成环
	if _, err := s.Move(ctx, 1, a.ID, &types.MoveItemRequest{NewParentID: &c.ID}); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for cycle, got %v", err)
	}

	// 移动到自身
	if _, err := s.Move(ctx, 1, a.ID, &types.MoveItemRequest{NewParentID: &a.ID}); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for self move, got %v", err)
	}

	// 树未被破坏
	got, err := s.GetByID(ctx, 1, c.ID)
	if err != nil || got.Path != "/A/B/C" {
		t.Fatalf("tree corrupted after rejected moves: %+v, %v", got, err)
	}
}

func TestMoveToRootAndBack(t *testing.T) {
	s, fs, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	f := mustUpload(t, s, 1, &docs.ID, "a.txt", "payload")

	moved, err := s.Move(ctx, 1, f.ID, &types.MoveItemRequest{NewParentID: nil})
	if err != nil {
		t.Fatalf("Move to root failed: %v", err)
	}

	if moved.Path != "/a.txt" || moved.ParentID != nil {
		t.Fatalf("move to root wrong: %+v", moved)
	}

	if _, err := fs.Read(1, "a.txt"); err != nil {
		t.Fatalf("physical bytes not at root: %v", err)
	}

	back, err := s.Move(ctx, 1, f.ID, &types.MoveItemRequest{NewParentID: &docs.ID})
	if err != nil {
		t.Fatalf("Move back failed: %v", err)
	}

	if back.Path != "/Docs/a.txt" {
		t.Fatalf("move back wrong: %q", back.Path)
	}
}

func TestDeleteNonEmptyDirectoryRequiresRecursive(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	mustUpload(t, s, 1, &docs.ID, "a.txt", "x")

	if _, err := s.Delete(ctx, 1, docs.ID, false); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for non-empty dir, got %v", err)
	}

	if _, err := s.Delete(ctx, 1, docs.ID, true); err != nil {
		t.Fatalf("recursive delete failed: %v", err)
	}
}

func TestDeleteToleratesMissingPhysical(t *testing.T) {
	s, fs, _ := newTestVault(t)
	ctx := context.Background()

	f := mustUpload(t, s, 1, nil, "a.txt", "x")

	// 模拟外部删除物理文件
	if err := fs.Delete(1, "a.txt"); err != nil {
		t.Fatalf("setup delete failed: %v", err)
	}

	if _, err := s.Delete(ctx, 1, f.ID, false); err != nil {
		t.Fatalf("delete with missing physical failed: %v", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	f := mustUpload(t, s, 1, nil, "a.txt", "x")

	on, err := s.ToggleFavorite(ctx, 1, f.ID)
	if err != nil || !on.IsFavorite {
		t.Fatalf("first toggle: %+v, %v", on, err)
	}

	favs, err := s.ListFavorites(ctx, 1)
	if err != nil || favs.Total != 1 {
		t.Fatalf("favorites listing: %+v, %v", favs, err)
	}

	off, err := s.ToggleFavorite(ctx, 1, f.ID)
	if err != nil || off.IsFavorite {
		t.Fatalf("second toggle: %+v, %v", off, err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	mine := mustUpload(t, s, 1, nil, "mine.txt", "x")
	mustUpload(t, s, 2, nil, "theirs.txt", "y")

	if _, err := s.GetByID(ctx, 2, mine.ID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	list, err := s.ListChildren(ctx, 2, nil)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}

	for _, it := range list.Items {
		if it.Name == "mine.txt" {
			t.Fatal("user 2 listing leaked user 1's item")
		}
	}
}

func TestLazyOrphanPruning(t *testing.T) {
	s, fs, ix := newTestVault(t)
	ctx := context.Background()

	f := mustUpload(t, s, 1, nil, "ghost.txt", "boo")

	// 外部删除物理文件，条目成为孤儿
	if err := fs.Delete(1, "ghost.txt"); err != nil {
		t.Fatalf("setup delete failed: %v", err)
	}

	before := len(ix.AllForUser(1))

	// 第一次访问触发清理
	if _, err := s.GetByID(ctx, 1, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on first access, got %v", err)
	}

	if after := len(ix.AllForUser(1)); after != before-1 {
		t.Fatalf("index size %d, want %d", after, before-1)
	}

	// 第二次访问幂等
	if _, err := s.GetByID(ctx, 1, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second access, got %v", err)
	}
}

func TestPruneOrphanSparesConcurrentlyMovedItem(t *testing.T) {
	s, fs, ix := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	f := mustUpload(t, s, 1, &docs.ID, "a.txt", "still here")

	// 锁外 stat 之后、清理加锁之前，条目被并发移动到根层：
	// 用移动前的过期快照调用清理，必须确认不再是孤儿并放过它
	stale, err := ix.Get(1, f.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if _, err := s.Move(ctx, 1, f.ID, &types.MoveItemRequest{}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if pruned := s.pruneOrphan(1, stale, "lazy"); pruned {
		t.Fatal("live item pruned from a stale snapshot")
	}

	got, err := s.GetByID(ctx, 1, f.ID)
	if err != nil {
		t.Fatalf("item lost after stale prune attempt: %v", err)
	}

	if got.Path != "/a.txt" {
		t.Fatalf("path %q, want /a.txt", got.Path)
	}

	if data, err := fs.Read(1, "a.txt"); err != nil || string(data) != "still here" {
		t.Fatalf("physical content lost: %q, %v", data, err)
	}
}

func TestDownload(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	f := mustUpload(t, s, 1, nil, "notes.txt", "important notes")

	res, err := s.Download(ctx, 1, f.ID, false)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer res.Content.Close()

	data, err := io.ReadAll(res.Content)
	if err != nil {
		t.Fatalf("read content failed: %v", err)
	}

	if string(data) != "important notes" {
		t.Fatalf("content wrong: %q", data)
	}

	if res.ContentType != "text/plain" {
		t.Fatalf("content type wrong: %q", res.ContentType)
	}

	if !strings.HasPrefix(res.ETag, `W/"`) {
		t.Fatalf("etag not weak-form: %q", res.ETag)
	}
}

func TestDownloadDirectoryFails(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)

	if _, err := s.Download(ctx, 1, docs.ID, false); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestSharesRoundTrip(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	f := mustUpload(t, s, 1, nil, "shared.txt", "public content")

	sh, err := s.CreateShare(ctx, 1, f.ID)
	if err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}

	if sh.Token == "" {
		t.Fatal("empty share token")
	}

	// 幂等：重复分享同一条目返回同一 token
	again, err := s.CreateShare(ctx, 1, f.ID)
	if err != nil || again.Token != sh.Token {
		t.Fatalf("share not idempotent: %+v, %v", again, err)
	}

	// 条目被标记为公开
	got, err := s.GetByID(ctx, 1, f.ID)
	if err != nil || !got.IsPublic {
		t.Fatalf("item not public after share: %+v, %v", got, err)
	}

	// 经 token 下载不要求属主身份
	res, err := s.DownloadShared(ctx, sh.Token, false)
	if err != nil {
		t.Fatalf("DownloadShared failed: %v", err)
	}
	defer res.Content.Close()

	data, _ := io.ReadAll(res.Content)
	if string(data) != "public content" {
		t.Fatalf("shared content wrong: %q", data)
	}

	// 撤销后 token 失效，公开标记清除
	if err := s.DeleteShare(ctx, 1, sh.Token); err != nil {
		t.Fatalf("DeleteShare failed: %v", err)
	}

	if _, err := s.DownloadShared(ctx, sh.Token, false); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("revoked share still works: %v", err)
	}

	got, err = s.GetByID(ctx, 1, f.ID)
	if err != nil || got.IsPublic {
		t.Fatalf("item still public after revoke: %+v, %v", got, err)
	}
}

func TestResolveShareAndRevokeByItem(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	f := mustUpload(t, s, 1, nil, "notes.txt", "hello")

	sh, err := s.CreateShare(ctx, 1, f.ID)
	if err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}

	// token 解析出条目元数据，无需属主身份
	resolved, err := s.ResolveShare(ctx, sh.Token)
	if err != nil {
		t.Fatalf("ResolveShare failed: %v", err)
	}

	if resolved.ID != f.ID || resolved.Name != "notes.txt" {
		t.Fatalf("resolved wrong item: %+v", resolved)
	}

	// 属主按条目 ID 撤销
	if err := s.RevokeShareForItem(ctx, 1, f.ID); err != nil {
		t.Fatalf("RevokeShareForItem failed: %v", err)
	}

	if _, err := s.ResolveShare(ctx, sh.Token); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("revoked token still resolves: %v", err)
	}

	// 再撤销一次应报 NotFound
	if err := s.RevokeShareForItem(ctx, 1, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShareDirectoryRejected(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)

	if _, err := s.CreateShare(ctx, 1, docs.ID); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestStatsFor(t *testing.T) {
	s, _, _ := newTestVault(t)
	ctx := context.Background()

	docs := mustCreateFolder(t, s, 1, "Docs", nil)
	mustUpload(t, s, 1, &docs.ID, "a.txt", strings.Repeat("x", 100))
	mustUpload(t, s, 1, nil, "b.jpg", strings.Repeat("y", 50))

	stats, err := s.StatsFor(ctx, 1)
	if err != nil {
		t.Fatalf("StatsFor failed: %v", err)
	}

	if stats.UsedBytes != 150 || stats.FileCount != 2 || stats.FolderCount != 1 {
		t.Fatalf("stats wrong: %+v", stats)
	}

	if stats.ByType["document"].Bytes != 100 || stats.ByType["image"].Bytes != 50 {
		t.Fatalf("by-type stats wrong: %+v", stats.ByType)
	}
}

func TestStatsForEmptyUserZeroQuota(t *testing.T) {
	afs := afero.NewMemMapFs()
	fs := fsstore.NewWithFs(afs, "storage/data")
	ix := index.New(afs, "storage/meta/items.json")
	s := NewVaultServiceWith(fs, ix, &configs.AppConfig{
		Quota: configs.QuotaConfig{TotalBytes: 0},
	})

	stats, err := s.StatsFor(context.Background(), 42)
	if err != nil {
		t.Fatalf("StatsFor failed: %v", err)
	}

	// 零配额必须守住除零
	if stats.UsedBytes != 0 || stats.UsedPercent != 0 {
		t.Fatalf("zero-quota stats wrong: %+v", stats)
	}
}

func TestReconcileSweep(t *testing.T) {
	s, fs, ix := newTestVault(t)
	ctx := context.Background()

	mustUpload(t, s, 1, nil, "alive.txt", "x")
	ghost := mustUpload(t, s, 1, nil, "ghost.txt", "y")
	mustUpload(t, s, 2, nil, "other.txt", "z")

	if err := fs.Delete(1, "ghost.txt"); err != nil {
		t.Fatalf("setup delete failed: %v", err)
	}

	pruned, err := s.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if pruned != 1 {
		t.Fatalf("pruned %d, want 1", pruned)
	}

	if _, err := ix.Get(1, ghost.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("ghost survived sweep: %v", err)
	}

	if len(ix.AllForUser(2)) != 1 {
		t.Fatal("sweep touched another user's items")
	}
}
