// Package router 管理路由配置，将 URL 路径绑定到 handle 包的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAll 在给定路由组（通常是 /api/v1）下注册全部业务路由.
func RegisterAll(g *gin.RouterGroup) {
	RegisterFilesRoutes(g)
	RegisterFoldersRoutes(g)
	RegisterSharesRoutes(g)
	RegisterStatsRoutes(g)
	RegisterAdminRoutes(g)
	RegisterHealthCheckRoute(g)
}
