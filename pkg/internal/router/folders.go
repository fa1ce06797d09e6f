package router

import (
	"github.com/gin-gonic/gin"

	"github.com/huloud/huloud/pkg/internal/handle"
)

// RegisterFoldersRoutes 注册目录相关路由.
func RegisterFoldersRoutes(g *gin.RouterGroup) {
	foldersRoutes := g.Group("/folders")
	{
		foldersRoutes.POST("", handle.CreateFolder) // 新建目录
	}
}
