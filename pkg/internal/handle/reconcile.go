package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/service"
	"github.com/huloud/huloud/pkg/middleware"
)

// TriggerReconcile 手动触发一次全量孤儿清理，正常情况由定时任务执行.
func TriggerReconcile(c *gin.Context) {
	svc := service.NewVaultService(c.Request.Context())

	pruned, err := svc.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}

// ListJobs 列出定时任务及其运行状态.
func ListJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not available"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}
