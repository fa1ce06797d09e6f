package handle_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/huloud/huloud/pkg/configs"
	"github.com/huloud/huloud/pkg/internal/router"
	"github.com/huloud/huloud/pkg/internal/service"
	"github.com/huloud/huloud/pkg/internal/storage"
	"github.com/huloud/huloud/pkg/internal/storage/errs"
	"github.com/huloud/huloud/pkg/internal/storage/fsstore"
	"github.com/huloud/huloud/pkg/internal/storage/index"
	"github.com/huloud/huloud/pkg/internal/types"
	"github.com/huloud/huloud/pkg/middleware"
	"github.com/huloud/huloud/pkg/scheduler"
)

// newTestServer 搭一个完整路由的测试引擎，存储落在内存文件系统上.
func newTestServer(t *testing.T) (*gin.Engine, *service.VaultService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	afs := afero.NewMemMapFs()
	st := fsstore.NewWithFs(afs, "data")

	ix := index.New(afs, "meta/items.json")
	if err := ix.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	mgr := &storage.Manager{FS: st, Index: ix}

	e := gin.New()
	e.Use(middleware.StorageMiddleware(mgr), middleware.SchedulerMiddleware(sched))
	router.RegisterAll(e.Group("/api/v1"))

	return e, service.NewVaultServiceWith(st, ix, configs.GetConfig())
}

func doRequest(e *gin.Engine, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("X-User", "1")

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func TestDeleteItemCascadesByDefault(t *testing.T) {
	e, svc := newTestServer(t)
	ctx := context.Background()

	docs, err := svc.CreateFolder(ctx, 1, &types.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	f, err := svc.UploadFile(ctx, 1, &docs.ID, "a.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	// 不带 recursive 参数的 DELETE 对非空目录默认级联
	w := doRequest(e, http.MethodDelete, "/api/v1/files/"+strconv.FormatInt(docs.ID, 10))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	if _, err := svc.GetByID(ctx, 1, docs.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("folder survived delete: %v", err)
	}

	if _, err := svc.GetByID(ctx, 1, f.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("child survived delete: %v", err)
	}
}

func TestDeleteItemRecursiveFalseGuardsNonEmpty(t *testing.T) {
	e, svc := newTestServer(t)
	ctx := context.Background()

	docs, err := svc.CreateFolder(ctx, 1, &types.CreateFolderRequest{Name: "Docs"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	if _, err := svc.UploadFile(ctx, 1, &docs.ID, "a.txt", "text/plain", strings.NewReader("x")); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	w := doRequest(e, http.MethodDelete,
		"/api/v1/files/"+strconv.FormatInt(docs.ID, 10)+"?recursive=false")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400; body %s", w.Code, w.Body.String())
	}

	// 目录原样保留
	if _, err := svc.GetByID(ctx, 1, docs.ID); err != nil {
		t.Fatalf("guarded folder lost: %v", err)
	}
}

func TestAdminJobsEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	w := doRequest(e, http.MethodGet, "/api/v1/admin/jobs")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "jobs") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
