package router

import (
	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/handle"
)

// RegisterAdminRoutes 注册运维路由.
func RegisterAdminRoutes(g *gin.RouterGroup) {
	adminRoutes := g.Group("/admin")
	{
		adminRoutes.POST("/reconcile", handle.TriggerReconcile) // 手动触发孤儿清理
		adminRoutes.GET("/jobs", handle.ListJobs)               // 定时任务状态
	}
}
