package fsstore

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/internal/storage/errs"
)

func newTestStore() *Store {
	return NewWithFs(afero.NewMemMapFs(), "storage/data")
}

func TestWriteAndRead(t *testing.T) {
	s := newTestStore()

	n, err := s.Write(1, "/Docs/report.pdf", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if n != int64(len("hello world")) {
		t.Fatalf("Write returned %d bytes, want %d", n, len("hello world"))
	}

	data, err := s.Read(1, "Docs/report.pdf")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if !bytes.Equal(data, []byte("hello world")) {
		t.Fatalf("Read returned %q", data)
	}
}

func TestWriteOverwrites(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "a.txt", strings.NewReader("first")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := s.Write(1, "a.txt", strings.NewReader("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := s.Read(1, "a.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestUserIsolation(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "secret.txt", strings.NewReader("user one")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := s.Read(2, "secret.txt"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	s := newTestStore()

	cases := []string{"../evil", "a/../../evil", "../../etc/passwd", "/../evil"}
	for _, rel := range cases {
		if _, err := s.Read(1, rel); !errors.Is(err, errs.ErrInvalidPath) {
			t.Errorf("Read(%q): expected ErrInvalidPath, got %v", rel, err)
		}

		if _, err := s.Write(1, rel, strings.NewReader("x")); !errors.Is(err, errs.ErrInvalidPath) {
			t.Errorf("Write(%q): expected ErrInvalidPath, got %v", rel, err)
		}
	}

	// 被拒的写入不能在用户根下留下被折叠后的文件
	if _, err := s.Read(1, "evil"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("escaped write left residue: %v", err)
	}
}

func TestResolveNormalizes(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "Docs/a.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// 前导斜杠、重复斜杠与 "." 片段折叠后指向同一文件
	for _, rel := range []string{"/Docs/a.txt", "Docs//a.txt", "./Docs/./a.txt"} {
		if _, err := s.Read(1, rel); err != nil {
			t.Errorf("Read(%q) failed: %v", rel, err)
		}
	}
}

func TestReadDirectoryFails(t *testing.T) {
	s := newTestStore()

	if err := s.CreateDirectory(1, "Docs"); err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}

	if _, err := s.Read(1, "Docs"); !errors.Is(err, errs.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation reading a directory, got %v", err)
	}
}

func TestOpenStreams(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "big.bin", strings.NewReader("streamed content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rc, err := s.Open(1, "big.bin")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if string(data) != "streamed content" {
		t.Fatalf("got %q", data)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "a.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := s.Delete(1, "a.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := s.Read(1, "a.txt"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := s.Delete(1, "a.txt"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestDeleteRecursive(t *testing.T) {
	s := newTestStore()

	files := []string{"Docs/a.txt", "Docs/Sub/b.txt", "Docs/Sub/Deep/c.txt"}
	for _, f := range files {
		if _, err := s.Write(1, f, strings.NewReader("x")); err != nil {
			t.Fatalf("Write(%q) failed: %v", f, err)
		}
	}

	if err := s.DeleteRecursive(1, "Docs"); err != nil {
		t.Fatalf("DeleteRecursive failed: %v", err)
	}

	for _, f := range files {
		if _, err := s.Read(1, f); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("%q still readable after recursive delete: %v", f, err)
		}
	}

	if _, err := s.Stat(1, "Docs"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("directory itself survived recursive delete: %v", err)
	}
}

func TestDeleteRecursiveMissing(t *testing.T) {
	s := newTestStore()

	if err := s.DeleteRecursive(1, "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRename(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "Docs/a.txt", strings.NewReader("payload")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := s.Rename(1, "Docs/a.txt", "Archive/renamed.txt"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if _, err := s.Read(1, "Docs/a.txt"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("old path still readable: %v", err)
	}

	data, err := s.Read(1, "Archive/renamed.txt")
	if err != nil {
		t.Fatalf("Read new path failed: %v", err)
	}

	if string(data) != "payload" {
		t.Fatalf("content changed across rename: %q", data)
	}
}

func TestRenameDirectoryMovesChildren(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "Old/Sub/c.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := s.Rename(1, "Old", "New"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if _, err := s.Read(1, "New/Sub/c.txt"); err != nil {
		t.Fatalf("child not reachable under new name: %v", err)
	}
}

func TestStat(t *testing.T) {
	s := newTestStore()

	if _, err := s.Write(1, "a.txt", strings.NewReader("12345")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := s.Stat(1, "a.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if info.IsDir || info.Size != 5 {
		t.Fatalf("unexpected Info: %+v", info)
	}
}

func TestUsedBytes(t *testing.T) {
	s := newTestStore()

	// 空用户 0 字节
	used, err := s.UsedBytes(7)
	if err != nil || used != 0 {
		t.Fatalf("UsedBytes on empty user: %d, %v", used, err)
	}

	if _, err := s.Write(7, "a.txt", strings.NewReader("1234")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := s.Write(7, "Sub/b.txt", strings.NewReader("123456")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	used, err = s.UsedBytes(7)
	if err != nil {
		t.Fatalf("UsedBytes failed: %v", err)
	}

	if used != 10 {
		t.Fatalf("UsedBytes = %d, want 10", used)
	}
}

func TestEnsureUserRootIdempotent(t *testing.T) {
	s := newTestStore()

	for i := 0; i < 2; i++ {
		if err := s.EnsureUserRoot(3); err != nil {
			t.Fatalf("EnsureUserRoot #%d failed: %v", i, err)
		}
	}
}
